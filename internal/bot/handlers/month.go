package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Spok95/classroom-league/internal/access"
	"github.com/Spok95/classroom-league/internal/appstate"
	"github.com/Spok95/classroom-league/internal/bot/shared/fsmutil"
	"github.com/Spok95/classroom-league/internal/roster"
	"go.uber.org/multierr"
)

const (
	cbResetOK     = "reset_ok"
	cbResetCancel = "reset_cancel"
)

// ResetMonth спрашивает подтверждение: сброс касается всех учеников школы.
func (h *Handlers) ResetMonth(_ context.Context, st *appstate.State, chatID int64, _ string) error {
	if err := access.Require(st.Snapshot(), access.MonthReset); err != nil {
		return err
	}
	return h.replyConfirm(chatID,
		"Подвести итоги месяца? Баллы всех учеников вернутся к стартовым, группы снимутся. Монеты сохранятся.",
		cbResetOK, cbResetCancel)
}

func (h *Handlers) ResetCallback(ctx context.Context, st *appstate.State, chatID int64, data string) error {
	if data != cbResetOK {
		return h.reply(chatID, "Сброс отменён.")
	}
	if !fsmutil.SetPending(chatID, "reset") {
		return nil
	}
	defer fsmutil.ClearPending(chatID, "reset")

	n, err := h.svc.Ledger.ResetMonth(ctx, st.Snapshot())
	if err != nil {
		return err
	}
	return h.reply(chatID, fmt.Sprintf("🗓 Итоги месяца подведены, обновлено профилей: %d.", n))
}

// RewardTop — "/reward_top [класс]": 30/20/10 монет первой тройке.
func (h *Handlers) RewardTop(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	if !fsmutil.SetPending(chatID, "reward_top") {
		return nil
	}
	defer fsmutil.ClearPending(chatID, "reward_top")

	awards, err := h.svc.Ledger.RewardTop(ctx, st.Snapshot(), roster.NormalizeClassName(args))
	if len(awards) == 0 && err != nil {
		return err
	}
	var b strings.Builder
	if len(awards) == 0 {
		b.WriteString("В рейтинге пока никого нет.")
	}
	for _, a := range awards {
		fmt.Fprintf(&b, "🎁 %d место: %s +%d 🪙\n", a.Standing.Place, a.Standing.User.FullName, a.Coins)
	}
	for _, e := range multierr.Errors(err) {
		fmt.Fprintf(&b, "❌ %v\n", e)
	}
	return h.reply(chatID, strings.TrimRight(b.String(), "\n"))
}
