package export

import (
	"time"

	"github.com/Spok95/classroom-league/internal/ledger"
	"github.com/Spok95/classroom-league/internal/models"
)

const (
	SheetLeaderboard = "Рейтинг"
	SheetHistory     = "Журнал"
	SheetSummary     = "Итоги"
)

// LeaderboardSheet — места, звания и кошельки учеников.
func LeaderboardSheet(standings []ledger.Standing) SheetSpec {
	s := SheetSpec{
		Title:  SheetLeaderboard,
		Header: []string{"Место", "Имя", "Класс", "Группа", "Баллы", "Звание", "Монеты"},
	}
	for _, st := range standings {
		s.Rows = append(s.Rows, []any{
			st.Place,
			st.User.FullName,
			st.User.ClassName,
			groupCell(st.User.GroupNumber),
			st.User.Points,
			st.Rank.Title(),
			st.User.Coins,
		})
	}
	return s
}

// HistorySheets — журнал ученика и сводка по причинам.
func HistorySheets(entries []models.AuditEntry, sum ledger.HistorySummary, loc *time.Location) []SheetSpec {
	if loc == nil {
		loc = time.UTC
	}
	journal := SheetSpec{Title: SheetHistory, Header: []string{"Дата", "Изменение", "Причина"}}
	for _, e := range entries {
		journal.Rows = append(journal.Rows, []any{e.CreatedAt.In(loc).Format("2006-01-02 15:04"), e.Amount, e.Reason})
	}

	summary := SheetSpec{Title: SheetSummary, Header: []string{"Вид", "Причина", "Раз", "Итого"}}
	for _, g := range sum.Groups {
		kind := "Нарушение"
		if g.Positive {
			kind = "Достижение"
		}
		summary.Rows = append(summary.Rows, []any{kind, g.Reason, g.Count, g.Total})
	}
	summary.Rows = append(summary.Rows,
		[]any{"Всего плюсов", "", sum.PositiveCount, sum.PositiveTotal},
		[]any{"Всего минусов", "", sum.NegativeCount, sum.NegativeTotal},
	)
	return []SheetSpec{journal, summary}
}

// Leaderboard — готовая книга рейтинга.
func Leaderboard(standings []ledger.Standing) (*Workbook, error) {
	return NewWorkbook([]SheetSpec{LeaderboardSheet(standings)})
}

// History — готовая книга журнала ученика.
func History(entries []models.AuditEntry, sum ledger.HistorySummary, loc *time.Location) (*Workbook, error) {
	return NewWorkbook(HistorySheets(entries, sum, loc))
}

func groupCell(n int) any {
	if n == 0 {
		return "-"
	}
	return n
}
