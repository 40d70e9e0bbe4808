// Package validate настраивает go-playground/validator с русскими сообщениями.
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/ru"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	ru_translations "github.com/go-playground/validator/v10/translations/ru"

	"github.com/Spok95/classroom-league/internal/apperr"
)

var (
	once       sync.Once
	validate   *validator.Validate
	translator ut.Translator
)

func instance() (*validator.Validate, ut.Translator) {
	once.Do(func() {
		locale := ru.New()
		uni := ut.New(locale, locale)
		translator, _ = uni.GetTranslator("ru")

		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = ru_translations.RegisterDefaultTranslations(validate, translator)

		// в сообщениях — имя из тега label, а не имя поля Go
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("label"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate, translator
}

// Struct проверяет структуру по тегам validate и возвращает *apperr.ValidationError.
func Struct(s any) error {
	v, tr := instance()
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{Field: fe.Field(), Error: fe.Translate(tr)})
	}
	return apperr.NewValidationError(err, fields...)
}
