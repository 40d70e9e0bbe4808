package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/Spok95/classroom-league/internal/ledger"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestColumnName(t *testing.T) {
	require.Equal(t, "A", columnName(1))
	require.Equal(t, "Z", columnName(26))
	require.Equal(t, "AA", columnName(27))
	require.Equal(t, "AZ", columnName(52))
}

func TestFilenames(t *testing.T) {
	day := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "Рейтинг 6A1 2024-05-31.xlsx", BuildLeaderboardFilename("6A1", day))
	require.Equal(t, "Рейтинг все классы 2024-05-31.xlsx", BuildLeaderboardFilename("", day))
	require.Equal(t, "История Иван_Петров 6A1 2024-05-31.xlsx", BuildHistoryFilename("Иван/Петров", " 6A1 ", day))
}

func TestLeaderboardWorkbook(t *testing.T) {
	standings := ledger.Leaderboard([]models.User{
		{FullName: "Анна", ClassName: "6A1", GroupNumber: 2, Role: models.Student, Points: 120, Coins: 15},
		{FullName: "Учитель", ClassName: "6A1", Role: models.Teacher, Points: 999},
		{FullName: "Борис", ClassName: "6A1", Role: models.Student, Points: 410},
	})
	wb, err := Leaderboard(standings)
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	data, err := wb.Bytes()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetLeaderboard)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "Место", rows[0][0])
	require.Equal(t, []string{"1", "Борис", "6A1", "-", "410", "Легенда", "0"}, rows[1])
	require.Equal(t, []string{"2", "Анна", "6A1", "2", "120", "Звёздочка", "15"}, rows[2])
}

func TestHistoryWorkbook(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	entries := []models.AuditEntry{
		{Amount: 10, Reason: "[2024-05-01 - Утро] Ответ (x2)", CreatedAt: at},
		{Amount: -2, Reason: "[2024-05-01 - Утро] Опоздание (x1)", CreatedAt: at},
	}
	wb, err := History(entries, ledger.Summarize(entries), nil)
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	journal, err := wb.File.GetRows(SheetHistory)
	require.NoError(t, err)
	require.Len(t, journal, 3)
	require.Equal(t, []string{"2024-05-01 09:30", "10", "[2024-05-01 - Утро] Ответ (x2)"}, journal[1])

	summary, err := wb.File.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Equal(t, []string{"Достижение", "Ответ", "1", "10"}, summary[1])
	require.Equal(t, []string{"Нарушение", "Опоздание", "1", "-2"}, summary[2])
	require.Equal(t, []string{"Всего плюсов", "", "1", "10"}, summary[3])
}

func TestNewWorkbook_Empty(t *testing.T) {
	_, err := NewWorkbook(nil)
	require.Error(t, err)
}
