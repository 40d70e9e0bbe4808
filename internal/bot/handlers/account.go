package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Spok95/classroom-league/internal/access"
	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/appstate"
	"github.com/Spok95/classroom-league/internal/auth"
)

const guestHelp = `👋 Классная лига: баллы, звания и магазин призов.

Новый аккаунт:
/register логин пароль Имя Фамилия

Уже есть аккаунт:
/login логин пароль`

// Welcome — /start для чата без привязанного профиля.
func (h *Handlers) Welcome(_ context.Context, chatID int64, _ string) error {
	return h.reply(chatID, guestHelp)
}

// Register — регистрация и сразу привязка чата.
func (h *Handlers) Register(ctx context.Context, chatID int64, args string) error {
	f := strings.Fields(args)
	if len(f) < 3 {
		return apperr.Invalid("args", "формат: /register логин пароль Имя Фамилия")
	}
	reg := auth.Registration{Username: f[0], Password: f[1], FullName: strings.Join(f[2:], " ")}
	if _, err := h.svc.Auth.Register(ctx, reg); err != nil {
		return err
	}
	u, err := h.svc.Auth.BindTelegram(ctx, chatID, reg.Username, reg.Password)
	if err != nil {
		return err
	}
	return h.replyMenu(chatID, fmt.Sprintf("✅ Аккаунт %s создан. Выберите класс: /classes, затем /joinclass 6A1", u.Username), u.Role)
}

// Login привязывает чат к существующему профилю.
func (h *Handlers) Login(ctx context.Context, chatID int64, args string) error {
	f := strings.Fields(args)
	if len(f) != 2 {
		return apperr.Invalid("args", "формат: /login логин пароль")
	}
	u, err := h.svc.Auth.BindTelegram(ctx, chatID, f[0], f[1])
	if err != nil {
		return err
	}
	return h.replyMenu(chatID, fmt.Sprintf("✅ Здравствуйте, %s!", u.FullName), u.Role)
}

// Start — /start для привязанного чата: меню по роли.
func (h *Handlers) Start(_ context.Context, st *appstate.State, chatID int64, _ string) error {
	u := st.Snapshot()
	text := fmt.Sprintf("С возвращением, %s! Команды: /help", u.FullName)
	if u.ClassName == "" && !u.Role.IsStaff() {
		text += "\nВы ещё не выбрали класс: /classes, затем /joinclass 6A1"
	}
	return h.replyMenu(chatID, text, u.Role)
}

// Passwd — "/passwd старый новый".
func (h *Handlers) Passwd(ctx context.Context, st *appstate.State, chatID int64, args string) error {
	f := strings.Fields(args)
	if len(f) != 2 {
		return apperr.Invalid("args", "формат: /passwd старый_пароль новый_пароль")
	}
	if err := h.svc.Auth.ChangePassword(ctx, st.Snapshot().ID, f[0], f[1]); err != nil {
		return err
	}
	return h.reply(chatID, "🔑 Пароль изменён.")
}

func (h *Handlers) Help(_ context.Context, st *appstate.State, chatID int64, _ string) error {
	u := st.Snapshot()
	var b strings.Builder
	b.WriteString(`Ученику:
/me — профиль и значки
/top — рейтинг класса
/report — отчёт об учёбе
/rules — правила
/shop, /buy N — магазин
/avatar код, /frame GOLD|NONE — оформление
/classes, /joinclass 6A1, /group N — класс и группа
/passwd старый новый`)
	if access.Can(u, access.ScoreEdit) {
		b.WriteString(`

Старосте и учителю:
/add логин ±баллы причина
/tally Урок + строки "логин 1x2 3"
/users [поиск]`)
	}
	if access.Can(u, access.ViewJournal) {
		b.WriteString(`

Учителю:
/orders, /deliver N — выдача призов
/journal [N] — последние записи
/reset_month, /reward_top — итоги месяца
/setgroup логин N, /deluser логин
/export top | /export history логин`)
	}
	if access.Can(u, access.ClassManage) {
		b.WriteString(`

Администратору:
/setrole логин РОЛЬ, /setclass логин КЛАСС|-
/addclass 6A1, /delclass 6A1
/additem название; цена; количество; редкость; категория; ссылка`)
	}
	return h.reply(chatID, b.String())
}
