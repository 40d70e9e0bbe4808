// Package apperr — общие виды ошибок, которые показываются пользователю.
package apperr

import (
	"errors"
	"strings"
)

var (
	ErrForbidden         = errors.New("недостаточно прав")
	ErrNotFound          = errors.New("не найдено")
	ErrInsufficientFunds = errors.New("недостаточно монет")
	// ErrConflict — состояние изменилось между чтением и записью.
	ErrConflict = errors.New("данные уже изменились, обновите экран")
)

// FieldError — ошибка конкретного поля ввода.
type FieldError struct {
	Field string
	Error string
}

// ValidationError — ввод отклонён до любой записи в базу.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// Invalid — короткая форма для ошибки одного поля.
func Invalid(field, msg string) error {
	return &ValidationError{Err: errors.New(msg), Fields: []FieldError{{Field: field, Error: msg}}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Err == nil {
			return "некорректные данные"
		}
		return e.Err.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error)
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UserMessage — текст для пользователя без технических подробностей для известных ошибок.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return "⚠️ " + err.Error()
	case errors.Is(err, ErrForbidden):
		return "🚫 " + ErrForbidden.Error()
	case errors.Is(err, ErrNotFound):
		return "🔎 " + ErrNotFound.Error()
	case errors.Is(err, ErrInsufficientFunds):
		return "💸 " + ErrInsufficientFunds.Error()
	case errors.Is(err, ErrConflict):
		return "🔄 " + err.Error()
	}
	return "❌ Ошибка: " + err.Error()
}
