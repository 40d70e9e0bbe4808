package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/appstate"
	"github.com/Spok95/classroom-league/internal/auth"
	"github.com/Spok95/classroom-league/internal/bot/shared/fsmutil"
	"github.com/Spok95/classroom-league/internal/ledger"
	"github.com/Spok95/classroom-league/internal/models"
	"go.uber.org/zap"
)

// Add — ручное начисление или списание.
func (h *Handlers) Add(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	in, err := parseAdd(args)
	if err != nil {
		return err
	}
	actor := st.Snapshot()
	target, err := h.findUser(ctx, actor, in.Username)
	if err != nil {
		return err
	}
	balance, err := h.svc.Ledger.Award(ctx, actor, target.ID, in.Amount, in.Reason)
	if err != nil {
		return err
	}
	return h.reply(chatID, fmt.Sprintf("✅ %s: %s, теперь %d (%s)", target.FullName, signed(in.Amount), balance, ledger.Tier(balance)))
}

// Tally — журнал урока одним сообщением; см. parseTally.
func (h *Handlers) Tally(ctx context.Context, st *appstate.State, chatID int64, text string) error {
	sheet, err := parseTally(text, h.today())
	if err != nil {
		return err
	}
	if !fsmutil.SetPending(chatID, "tally") {
		return apperr.Invalid("pending", "предыдущий журнал ещё проводится")
	}
	defer fsmutil.ClearPending(chatID, "tally")

	actor := st.Snapshot()
	visible, err := h.svc.Roster.List(ctx, actor, "")
	if err != nil {
		return err
	}
	byLogin := make(map[string]models.User, len(visible))
	for _, u := range visible {
		byLogin[u.Username] = u
	}

	tally := ledger.Tally{}
	var unknown []string
	for _, line := range sheet.Lines {
		u, ok := byLogin[auth.NormalizeUsername(line.Username)]
		if !ok {
			unknown = append(unknown, line.Username)
			continue
		}
		for ruleID, qty := range line.Counts {
			tally.Add(u.ID, ruleID, qty)
		}
	}

	res, batchErr := h.svc.Ledger.ApplyBatch(ctx, actor, tally, sheet.Day, sheet.Session)
	if batchErr != nil && res.Updated == 0 && len(res.Failed) == 0 {
		return batchErr
	}
	if batchErr != nil {
		h.log.Warn("tally partially failed", zap.Int64("chat", chatID), zap.Error(batchErr))
	}
	return h.reply(chatID, renderBatch(res, unknown, visible))
}

func renderBatch(res ledger.BatchResult, unknown []string, users []models.User) string {
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID.String()] = u.FullName
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Журнал проведён: обновлено %d, без изменений %d", res.Updated, res.Skipped)
	if len(res.Failed) > 0 {
		fmt.Fprintf(&b, "\n❌ Ошибки (%d):", len(res.Failed))
		for _, f := range res.Failed {
			name := names[f.UserID.String()]
			if name == "" {
				name = f.UserID.String()
			}
			fmt.Fprintf(&b, "\n• %s: %s", name, apperr.UserMessage(f.Err))
		}
	}
	if len(unknown) > 0 {
		fmt.Fprintf(&b, "\n❓ Не найдены: %s", strings.Join(unknown, ", "))
	}
	return b.String()
}
