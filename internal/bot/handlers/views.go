package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Spok95/classroom-league/internal/access"
	"github.com/Spok95/classroom-league/internal/appstate"
	"github.com/Spok95/classroom-league/internal/ledger"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/Spok95/classroom-league/internal/roster"
	"github.com/Spok95/classroom-league/internal/shop"
	"github.com/google/uuid"
)

// Me — профиль; заодно выдаются заработанные значки.
func (h *Handlers) Me(ctx context.Context, st *appstate.State, chatID int64, _ string) error {
	fresh, err := h.svc.Ledger.CheckAchievements(ctx, st.Snapshot().ID)
	if err != nil {
		return err
	}
	u, err := st.Refresh(ctx)
	if err != nil {
		return err
	}
	return h.reply(chatID, renderProfile(u, fresh))
}

func renderProfile(u models.User, fresh []ledger.Badge) string {
	var b strings.Builder
	rank := ledger.Tier(u.Points)
	fmt.Fprintf(&b, "%s %s (%s)\n", rank.Icon(), u.FullName, u.Username)
	fmt.Fprintf(&b, "Класс: %s, %s\n", orDash(u.ClassName), groupLabel(u.GroupNumber))
	if u.Role.IsStaff() {
		fmt.Fprintf(&b, "Роль: %s\n", u.Role)
	} else {
		fmt.Fprintf(&b, "⭐ Баллы: %d, звание: %s\n", u.Points, rank.Title())
		fmt.Fprintf(&b, "🪙 Монеты: %d, 🎟 купоны: %d\n", u.Coins, u.Coupons)
	}
	if u.AvatarCode != "" {
		fmt.Fprintf(&b, "Аватар: %s\n", shop.AvatarURL(u.AvatarCode))
	}
	if !u.Frame.IsZero() {
		fmt.Fprintf(&b, "Рамка: %s\n", u.Frame)
	}
	if len(u.Badges) > 0 {
		b.WriteString("Значки:")
		for _, id := range u.Badges {
			if badge, ok := ledger.BadgeByID(id); ok {
				b.WriteString(" " + badge.Icon)
			}
		}
		b.WriteString("\n")
	}
	for _, badge := range fresh {
		fmt.Fprintf(&b, "🎉 Новый значок %s %s: +%d монет\n", badge.Icon, badge.Name, ledger.BadgeBonus)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Top — "/top [класс]"; класс учитывается только для администратора.
func (h *Handlers) Top(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	u := st.Snapshot()
	board, err := h.svc.Ledger.Standings(ctx, u, roster.NormalizeClassName(args))
	if err != nil {
		return err
	}
	return h.reply(chatID, renderStandings(board, u.ID))
}

func renderStandings(board []ledger.Standing, self uuid.UUID) string {
	if len(board) == 0 {
		return "Рейтинг пуст."
	}
	medals := []string{"🥇", "🥈", "🥉"}
	var b strings.Builder
	b.WriteString("🏆 Рейтинг\n")
	for _, st := range board {
		mark := strconv.Itoa(st.Place) + "."
		if st.Place <= len(medals) {
			mark = medals[st.Place-1]
		}
		me := ""
		if st.User.ID == self {
			me = " ← вы"
		}
		fmt.Fprintf(&b, "%s %s %s: %d%s\n", mark, st.Rank.Icon(), st.User.FullName, st.User.Points, me)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Report — отчёт об учёбе: "/report" о себе или "/report логин" для учителя и старост.
func (h *Handlers) Report(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	target := st.Snapshot()
	if name := strings.TrimSpace(args); name != "" {
		if err := access.Require(target, access.ViewReport); err != nil {
			return err
		}
		var err error
		if target, err = h.findUser(ctx, target, name); err != nil {
			return err
		}
	}
	sum, err := h.svc.Ledger.SummarizeHistory(ctx, target.ID)
	if err != nil {
		return err
	}
	return h.reply(chatID, renderSummary(target, sum))
}

func renderSummary(u models.User, s ledger.HistorySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📒 Отчёт: %s\n", u.FullName)
	fmt.Fprintf(&b, "Плюсов: %d (%s), минусов: %d (%s)\n",
		s.PositiveCount, signed(s.PositiveTotal), s.NegativeCount, signed(s.NegativeTotal))
	if a := s.Achievements(); len(a) > 0 {
		b.WriteString("\n✅ Достижения\n")
		for _, g := range a {
			fmt.Fprintf(&b, "• %s ×%d (%s)\n", g.Reason, g.Count, signed(g.Total))
		}
	}
	if v := s.Violations(); len(v) > 0 {
		b.WriteString("\n⚠️ Нарушения\n")
		for _, g := range v {
			fmt.Fprintf(&b, "• %s ×%d (%s)\n", g.Reason, g.Count, signed(g.Total))
		}
	}
	if len(s.Groups) == 0 {
		b.WriteString("Записей пока нет.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handlers) Rules(ctx context.Context, _ *appstate.State, chatID int64, _ string) error {
	rules, err := h.svc.Ledger.Rules(ctx)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return h.reply(chatID, "Правил пока нет.")
	}
	var b strings.Builder
	b.WriteString("📜 Правила (номер нужен для /tally)\n")
	for _, r := range rules {
		fmt.Fprintf(&b, "%d. %s (%s)\n", r.ID, r.Content, signed(r.Points))
	}
	return h.reply(chatID, strings.TrimRight(b.String(), "\n"))
}

// Journal — "/journal [N]", последние записи класса.
func (h *Handlers) Journal(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	limit := 20
	if n, err := strconv.Atoi(strings.TrimSpace(args)); err == nil && n > 0 && n <= 200 {
		limit = n
	}
	entries, err := h.svc.Ledger.Journal(ctx, st.Snapshot(), limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return h.reply(chatID, "Журнал пуст.")
	}
	var b strings.Builder
	for _, e := range entries {
		who := orDash(e.TargetName)
		if e.TargetID == nil {
			who = "все"
		}
		fmt.Fprintf(&b, "%s %s %s: %s (%s)\n",
			e.CreatedAt.In(h.loc).Format("02.01 15:04"), who, signed(e.Amount), e.Reason, orDash(e.ActorName))
	}
	return h.reply(chatID, strings.TrimRight(b.String(), "\n"))
}

// Users — "/users [поиск]", видимый состав класса.
func (h *Handlers) Users(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	users, err := h.svc.Roster.List(ctx, st.Snapshot(), args)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return h.reply(chatID, "Никого не найдено.")
	}
	var b strings.Builder
	for _, u := range users {
		fmt.Fprintf(&b, "%s (%s) %s, %s, %s, %d\n", u.FullName, u.Username, u.Role, orDash(u.ClassName), groupLabel(u.GroupNumber), u.Points)
	}
	return h.reply(chatID, strings.TrimRight(b.String(), "\n"))
}
