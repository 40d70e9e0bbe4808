package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/classroom-league/internal/app"
	"github.com/Spok95/classroom-league/internal/auth"
	"github.com/Spok95/classroom-league/internal/bot/handlers"
	"github.com/Spok95/classroom-league/internal/config"
	"github.com/Spok95/classroom-league/internal/db"
	"github.com/Spok95/classroom-league/internal/httpapi"
	"github.com/Spok95/classroom-league/internal/jobs"
	"github.com/Spok95/classroom-league/internal/ledger"
	"github.com/Spok95/classroom-league/internal/logging"
	"github.com/Spok95/classroom-league/internal/observability"
	"github.com/Spok95/classroom-league/internal/roster"
	"github.com/Spok95/classroom-league/internal/shop"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.RequireBot(); err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()
	logger := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, version)
	if err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Ошибка подключения к БД", zap.Error(err))
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(database); err != nil {
		logger.Fatal("Миграция не удалась", zap.Error(err))
	}
	catalog, err := db.LoadSeed(cfg.SeedFile)
	if err != nil {
		logger.Fatal("seed catalog", zap.Error(err))
	}
	if err := db.Seed(ctx, database, catalog, lg.Component("seed")); err != nil {
		logger.Fatal("seed", zap.Error(err))
	}

	store := db.NewStore(database)
	svc := handlers.Services{
		Auth:   auth.New(store, lg.Component("auth"), auth.WithStartingPoints(cfg.StartingPoints)),
		Ledger: ledger.New(store, lg.Component("ledger"), ledger.WithBaseline(cfg.StartingPoints)),
		Shop:   shop.New(store, lg.Component("shop")),
		Roster: roster.New(store, lg.Component("roster"), roster.WithCollation(cfg.RosterLocale)),
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal("Ошибка запуска бота", zap.Error(err))
	}
	bot.Debug = cfg.Env != "prod"
	logger.Info("bot started", zap.String("username", bot.Self.UserName), zap.String("version", version))

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	api := httpapi.New(store, func(ctx context.Context) error { return db.Ping(ctx, database) }, logger,
		httpapi.WithToken(cfg.APIToken))
	app.StartHTTP(ctx, cfg.HTTPAddr, api.Router(), logger)

	runner := jobs.New(ctx, logger)
	runner.Every(time.Minute, "db_ping", func(ctx context.Context) error { return db.Ping(ctx, database) })

	h := handlers.New(bot, svc, logger, cfg.Location)
	dispatcher := app.NewDispatcher(bot, h, svc.Auth, store, logger)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	dispatcher.Run(ctx, updates)
	bot.StopReceivingUpdates()
	logger.Info("shutdown")
}
