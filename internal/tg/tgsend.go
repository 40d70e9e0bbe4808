// Package tg — обёртки над Bot API: системные сбои уходят в Sentry, ошибки ввода — нет.
package tg

import (
	"strings"

	"github.com/Spok95/classroom-league/internal/observability"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender — часть *tgbotapi.BotAPI, нужная обработчикам.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Системные: 5xx, 429, timeout. Bad Request и прочие ответы на кривой ввод не считаем.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	for _, marker := range []string{"429", "500", "502", "503", "timeout"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func Send(bot Sender, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := bot.Send(msg)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return m, err
}

func Request(bot Sender, req tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	r, err := bot.Request(req)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return r, err
}

// Text — сообщение без разметки; длинный текст режется по строкам.
func Text(bot Sender, chatID int64, text string) error {
	for _, part := range Split(text, MaxMessageLen) {
		if _, err := Send(bot, tgbotapi.NewMessage(chatID, part)); err != nil {
			return err
		}
	}
	return nil
}

// Answer закрывает «часики» на inline-кнопке.
func Answer(bot Sender, callbackID, text string) {
	_, _ = Request(bot, tgbotapi.NewCallback(callbackID, text))
}

const MaxMessageLen = 4096

// Split делит текст на части не длиннее limit байт, стараясь резать по переводу строки.
func Split(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var out []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !isRuneStart(text[cut]) {
				cut--
			}
		}
		out = append(out, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
