// Command classctl — служебные операции лиги без бота: миграции, справочники,
// итоги месяца, выгрузка рейтинга и создание администратора.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/classroom-league/internal/config"
	"github.com/Spok95/classroom-league/internal/db"
	"github.com/Spok95/classroom-league/internal/logging"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
)

const usage = `usage: classctl <command> [flags]

commands:
  migrate        накатить миграции
  seed           заполнить справочники (правила, призы, классы)
  reset-month    сбросить баллы и группы (--as логин администратора)
  reward-top     наградить первую тройку (--as логин, --class КЛАСС)
  export         выгрузить рейтинг в xlsx (--class КЛАСС, --out файл)
  create-admin   создать администратора (--username, --password, --name)
`

// env — общее окружение команд.
type env struct {
	cfg *config.Config
	db  *sql.DB
	log *logging.Log
	out io.Writer
}

type command func(ctx context.Context, e *env, args []string) error

var commands = map[string]command{
	"migrate":      runMigrate,
	"seed":         runSeed,
	"reset-month":  runResetMonth,
	"reward-top":   runRewardTop,
	"export":       runExport,
	"create-admin": runCreateAdmin,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err := run(cmd, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "classctl:", err)
		os.Exit(1)
	}
}

func run(cmd command, args []string) error {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		return err
	}
	defer lg.Closer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	return cmd(ctx, &env{cfg: cfg, db: database, log: lg, out: os.Stdout}, args)
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SortFlags = false
	return fs
}
