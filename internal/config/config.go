package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/language"
)

type Config struct {
	BotToken       string // нужен только боту; classctl работает без него
	DatabaseURL    string
	Location       *time.Location
	HTTPAddr       string
	LogLevel       string
	Env            string // dev|prod
	SentryDSN      string
	SeedFile       string // "" — встроенный каталог
	StartingPoints int
	RosterLocale   language.Tag
	APIToken       string // "" — отчёты по ученикам в HTTP открыты
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Europe/Moscow")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("required env DATABASE_URL is empty")
	}

	points, err := strconv.Atoi(getenv("STARTING_POINTS", "100"))
	if err != nil || points < 0 {
		return nil, fmt.Errorf("STARTING_POINTS: bad value %q", os.Getenv("STARTING_POINTS"))
	}

	locale, err := language.Parse(getenv("ROSTER_LOCALE", "vi"))
	if err != nil {
		return nil, fmt.Errorf("ROSTER_LOCALE: %w", err)
	}

	cfg := &Config{
		BotToken:       os.Getenv("BOT_TOKEN"),
		DatabaseURL:    dsn,
		Location:       loc,
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		Env:            getenv("ENV", "dev"),
		SentryDSN:      os.Getenv("SENTRY_DSN"),
		SeedFile:       os.Getenv("SEED_FILE"),
		StartingPoints: points,
		RosterLocale:   locale,
		APIToken:       os.Getenv("API_TOKEN"),
	}
	return cfg, nil
}

// RequireBot — проверка перед запуском бота.
func (c *Config) RequireBot() error {
	if c.BotToken == "" {
		return fmt.Errorf("required env BOT_TOKEN is empty")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
