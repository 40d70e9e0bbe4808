package menu

import (
	"github.com/Spok95/classroom-league/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type button struct {
	Label   string
	Command string
}

// buttons — подписи кнопок меню и команды без "/".
var buttons = []button{
	{"📊 Мой профиль", "me"},
	{"🏆 Рейтинг", "top"},
	{"📒 Отчёт", "report"},
	{"🛍 Магазин", "shop"},
	{"📜 Правила", "rules"},
	{"👥 Класс", "users"},
	{"📦 Заявки", "orders"},
	{"🗒 Журнал", "journal"},
	{"📥 Экспорт", "export"},
	{"🗓 Итоги месяца", "reset_month"},
	{"🎁 Награда топ-3", "reward_top"},
	{"🏫 Классы", "classes"},
	{"❓ Помощь", "help"},
}

// CommandFor — команда для подписи кнопки.
func CommandFor(label string) (string, bool) {
	for _, b := range buttons {
		if b.Label == label {
			return b.Command, true
		}
	}
	return "", false
}

// ForRole — клавиатура по роли пользователя.
func ForRole(role models.Role) tgbotapi.ReplyKeyboardMarkup {
	switch role {
	case models.Teacher:
		return teacherMenu()
	case models.SuperAdmin:
		return adminMenu()
	case models.Monitor, models.GroupLeader:
		return leaderMenu()
	default:
		return studentMenu()
	}
}

func studentMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📊 Мой профиль"),
			tgbotapi.NewKeyboardButton("🏆 Рейтинг"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🛍 Магазин"),
			tgbotapi.NewKeyboardButton("📒 Отчёт"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📜 Правила"),
			tgbotapi.NewKeyboardButton("❓ Помощь"),
		),
	)
}

func leaderMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📊 Мой профиль"),
			tgbotapi.NewKeyboardButton("🏆 Рейтинг"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("👥 Класс"),
			tgbotapi.NewKeyboardButton("📜 Правила"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🛍 Магазин"),
			tgbotapi.NewKeyboardButton("❓ Помощь"),
		),
	)
}

func teacherMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("👥 Класс"),
			tgbotapi.NewKeyboardButton("🏆 Рейтинг"),
			tgbotapi.NewKeyboardButton("📜 Правила"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📦 Заявки"),
			tgbotapi.NewKeyboardButton("🗒 Журнал"),
			tgbotapi.NewKeyboardButton("📥 Экспорт"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🗓 Итоги месяца"),
			tgbotapi.NewKeyboardButton("🎁 Награда топ-3"),
			tgbotapi.NewKeyboardButton("❓ Помощь"),
		),
	)
}

func adminMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("👥 Класс"),
			tgbotapi.NewKeyboardButton("🏫 Классы"),
			tgbotapi.NewKeyboardButton("🏆 Рейтинг"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📦 Заявки"),
			tgbotapi.NewKeyboardButton("🗒 Журнал"),
			tgbotapi.NewKeyboardButton("📥 Экспорт"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🗓 Итоги месяца"),
			tgbotapi.NewKeyboardButton("🎁 Награда топ-3"),
			tgbotapi.NewKeyboardButton("❓ Помощь"),
		),
	)
}

// ConfirmRow — строка «Подтвердить / Отмена» для inline-подтверждений.
func ConfirmRow(okData, cancelData string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", okData),
		tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", cancelData),
	)
}
