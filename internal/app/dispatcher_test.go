package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/bot/handlers"
	"github.com/Spok95/classroom-league/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	texts []string
	reqs  int
}

func (r *recorder) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		r.texts = append(r.texts, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func (r *recorder) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (r *recorder) last(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.texts)
	return r.texts[len(r.texts)-1]
}

type identity struct {
	users map[int64]models.User
	err   error
}

func (i identity) ByTelegram(_ context.Context, id int64) (models.User, error) {
	if i.err != nil {
		return models.User{}, i.err
	}
	u, ok := i.users[id]
	if !ok {
		return models.User{}, apperr.ErrNotFound
	}
	return u, nil
}

func (i identity) GetUser(_ context.Context, id uuid.UUID) (models.User, error) {
	for _, u := range i.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, apperr.ErrNotFound
}

func command(chatID int64, text string, cmdLen int) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}}
}

func newTestDispatcher(rec *recorder, ident identity) *Dispatcher {
	h := handlers.New(rec, handlers.Services{}, nil, time.UTC)
	return NewDispatcher(rec, h, ident, ident, nil)
}

func TestDispatcher_GuestGetsWelcome(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(rec, identity{users: map[int64]models.User{}})

	d.HandleUpdate(context.Background(), command(1, "/start", 6))
	require.Contains(t, rec.last(t), "/register")

	d.HandleUpdate(context.Background(), command(1, "/top", 4))
	require.Contains(t, rec.last(t), "/login")
}

func TestDispatcher_RoutesRegisteredUser(t *testing.T) {
	rec := &recorder{}
	st := models.User{ID: uuid.New(), FullName: "Ученик", Role: models.Student}
	d := newTestDispatcher(rec, identity{users: map[int64]models.User{2: st}})

	d.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Text: "❓ Помощь",
		Chat: &tgbotapi.Chat{ID: 2},
	}})
	require.Contains(t, rec.last(t), "/me")
	require.NotContains(t, rec.last(t), "Администратору")

	d.HandleUpdate(context.Background(), command(2, "/nope", 5))
	require.Contains(t, rec.last(t), "Неизвестная команда")
}

func TestDispatcher_ValidationErrorShownToUser(t *testing.T) {
	rec := &recorder{}
	st := models.User{ID: uuid.New(), Role: models.Student}
	d := newTestDispatcher(rec, identity{users: map[int64]models.User{3: st}})

	d.HandleUpdate(context.Background(), command(3, "/buy abc", 4))
	require.Equal(t, "⚠️ формат: /buy номер_товара", rec.last(t))
}

func TestDispatcher_StoreFailureIsReported(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(rec, identity{err: errors.New("connection refused")})

	d.HandleUpdate(context.Background(), command(4, "/me", 3))
	require.Equal(t, "❌ Ошибка: connection refused", rec.last(t))
}

func TestDispatcher_UnknownCallbackOnlyAnswers(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(rec, identity{users: map[int64]models.User{}})

	d.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    "something_else",
		Message: &tgbotapi.Message{MessageID: 10, Chat: &tgbotapi.Chat{ID: 5}},
	}})
	require.Empty(t, rec.texts)
	require.Equal(t, 2, rec.reqs)
}

func TestExpected(t *testing.T) {
	require.True(t, expected(apperr.Invalid("x", "y")))
	require.True(t, expected(models.ErrOutOfStock))
	require.True(t, expected(errors.Join(errors.New("ctx"), apperr.ErrForbidden)))
	require.False(t, expected(errors.New("boom")))
}

func TestDispatcher_HelpSectionsFollowAccess(t *testing.T) {
	rec := &recorder{}
	leader := models.User{ID: uuid.New(), Role: models.GroupLeader, ClassName: "6A1", GroupNumber: 1}
	tch := models.User{ID: uuid.New(), Role: models.Teacher, ClassName: "6A1"}
	d := newTestDispatcher(rec, identity{users: map[int64]models.User{6: leader, 7: tch}})

	d.HandleUpdate(context.Background(), command(6, "/help", 5))
	require.Contains(t, rec.last(t), "Старосте и учителю")
	require.NotContains(t, rec.last(t), "Учителю:")

	d.HandleUpdate(context.Background(), command(7, "/help", 5))
	require.Contains(t, rec.last(t), "Учителю:")
	require.NotContains(t, rec.last(t), "Администратору")
}

func TestDispatcher_StudentCannotReportOnOthers(t *testing.T) {
	rec := &recorder{}
	st := models.User{ID: uuid.New(), Role: models.Student, ClassName: "6A1"}
	d := newTestDispatcher(rec, identity{users: map[int64]models.User{8: st}})

	d.HandleUpdate(context.Background(), command(8, "/report boris", 7))
	require.Equal(t, "🚫 недостаточно прав", rec.last(t))
}
