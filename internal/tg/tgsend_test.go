package tg

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestIsSystemErr(t *testing.T) {
	require.False(t, isSystemErr(nil))
	require.True(t, isSystemErr(errors.New("Too Many Requests: retry after 5 (429)")))
	require.True(t, isSystemErr(errors.New("context deadline exceeded (Client.Timeout exceeded): timeout")))
	require.False(t, isSystemErr(errors.New("Bad Request: chat not found")))
}

func TestSplit(t *testing.T) {
	require.Equal(t, []string{"коротко"}, Split("коротко", 100))

	lines := strings.Repeat("строка\n", 10)
	parts := Split(lines, 30)
	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		require.LessOrEqual(t, len(p), 30)
		require.True(t, utf8.ValidString(p))
	}
	require.Equal(t, strings.Count(lines, "строка"), strings.Count(strings.Join(parts, "\n"), "строка"))

	long := strings.Repeat("я", 50)
	for _, p := range Split(long, 15) {
		require.True(t, utf8.ValidString(p))
		require.LessOrEqual(t, len(p), 15)
	}
}
