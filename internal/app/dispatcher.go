package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/appstate"
	"github.com/Spok95/classroom-league/internal/auth"
	"github.com/Spok95/classroom-league/internal/bot/handlers"
	"github.com/Spok95/classroom-league/internal/bot/menu"
	"github.com/Spok95/classroom-league/internal/bot/shared/fsmutil"
	"github.com/Spok95/classroom-league/internal/ctxutil"
	"github.com/Spok95/classroom-league/internal/metrics"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/Spok95/classroom-league/internal/observability"
	"github.com/Spok95/classroom-league/internal/tg"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Identity — профиль по Telegram-чату.
type Identity interface {
	ByTelegram(ctx context.Context, telegramID int64) (models.User, error)
}

// UpdateTimeout — предел на обработку одного обновления.
const UpdateTimeout = 30 * time.Second

type Dispatcher struct {
	bot     tg.Sender
	ident   Identity
	users   appstate.Loader
	limiter *ChatLimiter
	log     *zap.Logger
	cmds    map[string]handlers.Command
	guest   map[string]handlers.GuestCommand
	h       *handlers.Handlers
}

func NewDispatcher(bot tg.Sender, h *handlers.Handlers, ident Identity, users appstate.Loader, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		bot:     bot,
		ident:   ident,
		users:   users,
		limiter: NewChatLimiter(),
		log:     log.Named("dispatch"),
		cmds:    h.Commands(),
		guest:   h.GuestCommands(),
		h:       h,
	}
}

// Run читает обновления до отмены ctx. Каждый чат обрабатывается по очереди.
func (d *Dispatcher) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			go d.limiter.Do(chatOf(upd), func() { d.HandleUpdate(ctx, upd) })
		}
	}
}

func chatOf(upd tgbotapi.Update) int64 {
	switch {
	case upd.Message != nil:
		return upd.Message.Chat.ID
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil:
		return upd.CallbackQuery.Message.Chat.ID
	}
	return 0
}

func (d *Dispatcher) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	metrics.BotUpdates.Inc()
	chatID := chatOf(upd)
	if chatID == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctxutil.WithChatID(ctx, chatID), UpdateTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			metrics.HandlerErrors.Inc()
			err := fmt.Errorf("panic in update handler: %v", r)
			observability.CaptureContext(ctx, err)
			d.log.Error("panic", zap.Int64("chat", chatID), zap.Any("recover", r), zap.Stack("stack"))
			_ = tg.Text(d.bot, chatID, "❌ Внутренняя ошибка, попробуйте ещё раз.")
		}
	}()

	switch {
	case upd.Message != nil:
		d.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		d.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	name, args := commandOf(msg)
	if name == "" {
		return
	}
	ctx = ctxutil.WithOp(ctx, name)

	user, err := d.ident.ByTelegram(ctx, chatID)
	if errors.Is(err, apperr.ErrNotFound) {
		cmd, ok := d.guest[name]
		if !ok {
			cmd = d.h.Welcome
		}
		d.finish(ctx, chatID, name, cmd(ctx, chatID, args))
		return
	}
	if err != nil {
		d.finish(ctx, chatID, name, err)
		return
	}

	cmd, ok := d.cmds[name]
	if !ok {
		d.finish(ctx, chatID, name, tg.Text(d.bot, chatID, "⚠️ Неизвестная команда. Список команд: /help"))
		return
	}
	ctx = ctxutil.WithActor(ctx, user.ID)
	st := appstate.New(d.users, user)
	d.finish(ctx, chatID, name, cmd(ctx, st, chatID, args))
}

// commandOf — имя команды и аргументы; кнопки меню переводятся в команды.
func commandOf(msg *tgbotapi.Message) (string, string) {
	if msg.IsCommand() {
		return strings.ToLower(msg.Command()), msg.CommandArguments()
	}
	if cmd, ok := menu.CommandFor(strings.TrimSpace(msg.Text)); ok {
		return cmd, ""
	}
	if strings.TrimSpace(msg.Text) == "" {
		return "", ""
	}
	return "unknown", ""
}

func (d *Dispatcher) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	tg.Answer(d.bot, cb.ID, "")
	fsmutil.DisableMarkup(d.bot, chatID, cb.Message.MessageID)

	cmd, ok := d.h.Callback(cb.Data)
	if !ok {
		d.log.Debug("unknown callback", zap.String("data", cb.Data))
		return
	}
	ctx = ctxutil.WithOp(ctx, "callback")
	user, err := d.ident.ByTelegram(ctx, chatID)
	if err != nil {
		d.finish(ctx, chatID, "callback", err)
		return
	}
	ctx = ctxutil.WithActor(ctx, user.ID)
	d.finish(ctx, chatID, "callback", cmd(ctx, appstate.New(d.users, user), chatID, cb.Data))
}

// finish сообщает пользователю об ошибке; неожиданные ошибки уходят в лог и Sentry.
func (d *Dispatcher) finish(ctx context.Context, chatID int64, op string, err error) {
	if err == nil {
		return
	}
	if !expected(err) {
		metrics.HandlerErrors.Inc()
		observability.CaptureContext(ctx, err)
		fields := []zap.Field{zap.Int64("chat", chatID), zap.String("op", op), zap.Error(err)}
		if actor, ok := ctxutil.Actor(ctx); ok {
			fields = append(fields, zap.Stringer("actor", actor))
		}
		d.log.Error("handler failed", fields...)
	}
	_ = tg.Text(d.bot, chatID, apperr.UserMessage(err))
}

func expected(err error) bool {
	if apperr.IsValidation(err) {
		return true
	}
	for _, target := range []error{
		apperr.ErrForbidden,
		apperr.ErrNotFound,
		apperr.ErrInsufficientFunds,
		apperr.ErrConflict,
		auth.ErrBadCredentials,
		models.ErrOutOfStock,
		models.ErrFrameOwned,
		models.ErrClassNotEmpty,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
