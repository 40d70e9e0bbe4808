package config

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/league")
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("STARTING_POINTS", "")
	t.Setenv("ROSTER_LOCALE", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("TZ", "UTC")
	t.Setenv("API_TOKEN", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Empty(t, cfg.APIToken)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, 100, cfg.StartingPoints)
	require.Equal(t, language.Vietnamese, cfg.RosterLocale)
	require.Equal(t, "UTC", cfg.Location.String())
	require.Error(t, cfg.RequireBot())
}

func TestLoad_APIToken(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/league")
	t.Setenv("API_TOKEN", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "s3cret", cfg.APIToken)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://localhost/league")
	t.Setenv("STARTING_POINTS", "много")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("STARTING_POINTS", "50")
	t.Setenv("ROSTER_LOCALE", "ru")
	t.Setenv("BOT_TOKEN", "x")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 50, cfg.StartingPoints)
	require.Equal(t, language.Russian, cfg.RosterLocale)
	require.NoError(t, cfg.RequireBot())
}
