package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/appstate"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
)

const (
	cbDelUserPrefix = "deluser_ok:"
	cbDelUserCancel = "deluser_cancel"
)

func (h *Handlers) Classes(ctx context.Context, _ *appstate.State, chatID int64, _ string) error {
	classes, err := h.svc.Roster.Classes(ctx)
	if err != nil {
		return err
	}
	if len(classes) == 0 {
		return h.reply(chatID, "Классов пока нет.")
	}
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		names = append(names, c.Name)
	}
	return h.reply(chatID, "🏫 Классы: "+strings.Join(names, ", "))
}

func (h *Handlers) JoinClass(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	if err := h.svc.Roster.JoinClass(ctx, st.Snapshot(), args); err != nil {
		return err
	}
	u, _ := st.Refresh(ctx)
	return h.reply(chatID, fmt.Sprintf("✅ Вы в классе %s. Теперь выберите группу: /group 1", u.ClassName))
}

// Group — ученик выбирает группу; до сброса месяца сменить её нельзя.
func (h *Handlers) Group(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return apperr.Invalid("group", fmt.Sprintf("формат: /group 1..%d", models.MaxGroupNumber))
	}
	if err := h.svc.Roster.ChooseGroup(ctx, st.Snapshot(), n); err != nil {
		return err
	}
	return h.reply(chatID, fmt.Sprintf("✅ Вы в группе %d.", n))
}

func (h *Handlers) SetRole(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	login, rest := splitArgs(args)
	role, err := models.ParseRole(rest)
	if err != nil {
		return apperr.Invalid("role", err.Error())
	}
	actor := st.Snapshot()
	target, err := h.findUser(ctx, actor, login)
	if err != nil {
		return err
	}
	if err := h.svc.Roster.SetRole(ctx, actor, target.ID, role); err != nil {
		return err
	}
	return h.reply(chatID, fmt.Sprintf("✅ %s теперь %s.", target.FullName, role))
}

func (h *Handlers) SetGroup(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	login, rest := splitArgs(args)
	n, err := strconv.Atoi(rest)
	if err != nil {
		return apperr.Invalid("group", fmt.Sprintf("формат: /setgroup логин 0..%d", models.MaxGroupNumber))
	}
	actor := st.Snapshot()
	target, err := h.findUser(ctx, actor, login)
	if err != nil {
		return err
	}
	if err := h.svc.Roster.SetGroup(ctx, actor, target.ID, n); err != nil {
		return err
	}
	return h.reply(chatID, fmt.Sprintf("✅ %s: %s.", target.FullName, groupLabel(n)))
}

// SetClass — "/setclass логин 7A1" или "/setclass логин -" чтобы снять класс.
func (h *Handlers) SetClass(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	login, class := splitArgs(args)
	if class == "-" {
		class = ""
	}
	actor := st.Snapshot()
	target, err := h.findUser(ctx, actor, login)
	if err != nil {
		return err
	}
	if err := h.svc.Roster.SetClass(ctx, actor, target.ID, class); err != nil {
		return err
	}
	return h.reply(chatID, fmt.Sprintf("✅ %s: класс %s.", target.FullName, orDash(strings.ToUpper(class))))
}

// DelUser спрашивает подтверждение; удаление — в DelUserCallback.
func (h *Handlers) DelUser(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	target, err := h.findUser(ctx, st.Snapshot(), args)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Удалить %s (%s) вместе с журналом и покупками? Это необратимо.", target.FullName, target.Username)
	return h.replyConfirm(chatID, text, cbDelUserPrefix+target.ID.String(), cbDelUserCancel)
}

func (h *Handlers) DelUserCallback(ctx context.Context, st *appstate.State, chatID int64, data string) error {
	if data == cbDelUserCancel {
		return h.reply(chatID, "Удаление отменено.")
	}
	id, err := uuid.Parse(strings.TrimPrefix(data, cbDelUserPrefix))
	if err != nil {
		return apperr.Invalid("user", "неизвестная кнопка")
	}
	if err := h.svc.Roster.DeleteUser(ctx, st.Snapshot(), id); err != nil {
		return err
	}
	return h.reply(chatID, "🗑 Профиль удалён.")
}

func (h *Handlers) AddClass(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	c, err := h.svc.Roster.CreateClass(ctx, st.Snapshot(), args)
	if err != nil {
		return err
	}
	return h.reply(chatID, "✅ Класс "+c.Name+" создан.")
}

func (h *Handlers) DelClass(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	if err := h.svc.Roster.DeleteClass(ctx, st.Snapshot(), args); err != nil {
		return err
	}
	return h.reply(chatID, "🗑 Класс удалён.")
}
