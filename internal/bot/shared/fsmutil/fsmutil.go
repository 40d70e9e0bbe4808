package fsmutil

import (
	"sync"

	"github.com/Spok95/classroom-league/internal/metrics"
	"github.com/Spok95/classroom-league/internal/tg"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// pending — защита от повторного запуска «тяжёлых» действий в одном чате.
// Ключ — chatID; значение — вид действия ("tally", "buy", "export").
var pending = struct {
	mu sync.Mutex
	m  map[int64]string
}{
	m: make(map[int64]string),
}

// SetPending помечает чат как занятый действием key.
// false — в чате уже что-то выполняется.
func SetPending(chatID int64, key string) bool {
	pending.mu.Lock()
	defer pending.mu.Unlock()

	if _, ok := pending.m[chatID]; ok {
		return false
	}
	pending.m[chatID] = key
	return true
}

// ClearPending снимает отметку, если ключ совпал.
func ClearPending(chatID int64, key string) {
	pending.mu.Lock()
	defer pending.mu.Unlock()

	if cur, ok := pending.m[chatID]; ok && cur == key {
		delete(pending.m, chatID)
	}
}

// IsPending — чем занят чат, если занят.
func IsPending(chatID int64) (string, bool) {
	pending.mu.Lock()
	defer pending.mu.Unlock()
	key, ok := pending.m[chatID]
	return key, ok
}

// DisableMarkup гасит inline-клавиатуру после нажатия, чтобы кнопку не нажали дважды.
func DisableMarkup(bot tg.Sender, chatID int64, messageID int) {
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: make([][]tgbotapi.InlineKeyboardButton, 0)}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty)
	if _, err := tg.Request(bot, edit); err != nil {
		metrics.HandlerErrors.Inc()
	}
}
