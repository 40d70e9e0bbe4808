package handlers

import (
	"context"
	"strings"

	"github.com/Spok95/classroom-league/internal/access"
	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/appstate"
	"github.com/Spok95/classroom-league/internal/bot/shared/fsmutil"
	"github.com/Spok95/classroom-league/internal/export"
	"github.com/Spok95/classroom-league/internal/roster"
	"github.com/Spok95/classroom-league/internal/tg"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Export — "/export top [класс]" или "/export history логин"; книга Excel документом.
func (h *Handlers) Export(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	actor := st.Snapshot()
	if err := access.Require(actor, access.ViewJournal); err != nil {
		return err
	}
	if !fsmutil.SetPending(chatID, "export") {
		return apperr.Invalid("pending", "выгрузка уже готовится")
	}
	defer fsmutil.ClearPending(chatID, "export")

	kind, rest := splitArgs(args)
	var (
		wb   *export.Workbook
		name string
	)
	switch strings.ToLower(kind) {
	case "", "top":
		class, all := access.ClassScope(actor)
		if all {
			class = roster.NormalizeClassName(rest)
		}
		board, err := h.svc.Ledger.Standings(ctx, actor, class)
		if err != nil {
			return err
		}
		if wb, err = export.Leaderboard(board); err != nil {
			return err
		}
		name = export.BuildLeaderboardFilename(class, h.today())
	case "history":
		target, err := h.findUser(ctx, actor, rest)
		if err != nil {
			return err
		}
		entries, err := h.svc.Ledger.History(ctx, target.ID)
		if err != nil {
			return err
		}
		sum, err := h.svc.Ledger.SummarizeHistory(ctx, target.ID)
		if err != nil {
			return err
		}
		if wb, err = export.History(entries, sum, h.loc); err != nil {
			return err
		}
		name = export.BuildHistoryFilename(target.FullName, target.ClassName, h.today())
	default:
		return apperr.Invalid("kind", "формат: /export top [класс] или /export history логин")
	}
	defer func() { _ = wb.Close() }()

	data, err := wb.Bytes()
	if err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	if _, err := tg.Send(h.bot, doc); err != nil {
		h.log.Warn("export send failed", zap.String("file", name), zap.Error(err))
		return err
	}
	return nil
}
