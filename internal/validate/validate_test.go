package validate

import (
	"errors"
	"testing"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `validate:"required" label:"имя"`
	Count int    `validate:"min=1"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(sample{Name: "a", Count: 1}))

	err := Struct(sample{})
	require.True(t, apperr.IsValidation(err))

	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Fields, 2)
	require.Equal(t, "имя", ve.Fields[0].Field)
	require.Equal(t, "Count", ve.Fields[1].Field)
	require.Contains(t, ve.Fields[0].Error, "имя")
}
