// Package handlers — команды бота поверх сервисов лиги.
// Каждый обработчик получает снимок пользователя и возвращает ошибку;
// текст ошибки для пользователя формирует диспетчер.
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/appstate"
	"github.com/Spok95/classroom-league/internal/auth"
	"github.com/Spok95/classroom-league/internal/bot/menu"
	"github.com/Spok95/classroom-league/internal/ledger"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/Spok95/classroom-league/internal/roster"
	"github.com/Spok95/classroom-league/internal/shop"
	"github.com/Spok95/classroom-league/internal/tg"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Services struct {
	Auth   *auth.Service
	Ledger *ledger.Engine
	Shop   *shop.Service
	Roster *roster.Service
}

type Handlers struct {
	bot tg.Sender
	svc Services
	log *zap.Logger
	loc *time.Location
}

func New(bot tg.Sender, svc Services, log *zap.Logger, loc *time.Location) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Handlers{bot: bot, svc: svc, log: log.Named("bot"), loc: loc}
}

// Command — обработчик команды зарегистрированного пользователя.
type Command func(ctx context.Context, st *appstate.State, chatID int64, args string) error

func (h *Handlers) reply(chatID int64, text string) error {
	return tg.Text(h.bot, chatID, text)
}

func (h *Handlers) replyMenu(chatID int64, text string, role models.Role) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = menu.ForRole(role)
	_, err := tg.Send(h.bot, msg)
	return err
}

func (h *Handlers) replyConfirm(chatID int64, text, okData, cancelData string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(menu.ConfirmRow(okData, cancelData))
	_, err := tg.Send(h.bot, msg)
	return err
}

// findUser ищет профиль по логину среди видимых исполнителю.
func (h *Handlers) findUser(ctx context.Context, actor models.User, username string) (models.User, error) {
	username = auth.NormalizeUsername(username)
	if username == "" {
		return models.User{}, apperr.Invalid("username", "укажите логин")
	}
	users, err := h.svc.Roster.List(ctx, actor, "")
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("логин %q: %w", username, apperr.ErrNotFound)
}

func (h *Handlers) today() time.Time {
	now := time.Now().In(h.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.loc)
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

func groupLabel(n int) string {
	if n == 0 {
		return "без группы"
	}
	return fmt.Sprintf("%s %d", roster.GroupLabel, n)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
