package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/auth"
	"github.com/Spok95/classroom-league/internal/db"
	"github.com/Spok95/classroom-league/internal/export"
	"github.com/Spok95/classroom-league/internal/ledger"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/Spok95/classroom-league/internal/roster"
	"go.uber.org/multierr"
)

func runMigrate(_ context.Context, e *env, args []string) error {
	if err := newFlags("migrate").Parse(args); err != nil {
		return err
	}
	if err := db.Migrate(e.db); err != nil {
		return err
	}
	v, err := db.MigrationVersion(e.db)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "schema version %d\n", v)
	return nil
}

func runSeed(ctx context.Context, e *env, args []string) error {
	fs := newFlags("seed")
	file := fs.String("file", e.cfg.SeedFile, "YAML-каталог; пусто — встроенный")
	if err := fs.Parse(args); err != nil {
		return err
	}
	catalog, err := db.LoadSeed(*file)
	if err != nil {
		return err
	}
	if err := db.Seed(ctx, e.db, catalog, e.log.Component("seed")); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "seeded %d rules, %d rewards, %d classes\n", len(catalog.Rules), len(catalog.Rewards), len(catalog.Classes))
	return nil
}

func runResetMonth(ctx context.Context, e *env, args []string) error {
	fs := newFlags("reset-month")
	as := fs.String("as", "", "логин администратора, от имени которого пишется журнал")
	if err := fs.Parse(args); err != nil {
		return err
	}
	actor, err := actorByLogin(ctx, e, *as)
	if err != nil {
		return err
	}
	eng := ledger.New(db.NewStore(e.db), e.log.Component("ledger"), ledger.WithBaseline(e.cfg.StartingPoints))
	n, err := eng.ResetMonth(ctx, actor)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "reset %d profiles to %d points\n", n, e.cfg.StartingPoints)
	return nil
}

func runRewardTop(ctx context.Context, e *env, args []string) error {
	fs := newFlags("reward-top")
	as := fs.String("as", "", "логин администратора")
	class := fs.String("class", "", "класс; пусто — вся школа")
	if err := fs.Parse(args); err != nil {
		return err
	}
	actor, err := actorByLogin(ctx, e, *as)
	if err != nil {
		return err
	}
	eng := ledger.New(db.NewStore(e.db), e.log.Component("ledger"))
	awards, err := eng.RewardTop(ctx, actor, roster.NormalizeClassName(*class))
	for _, a := range awards {
		fmt.Fprintf(e.out, "%d. %s +%d coins\n", a.Standing.Place, a.Standing.User.FullName, a.Coins)
	}
	for _, failed := range multierr.Errors(err) {
		fmt.Fprintln(e.out, "failed:", failed)
	}
	return err
}

func runExport(ctx context.Context, e *env, args []string) error {
	fs := newFlags("export")
	class := fs.String("class", "", "класс; пусто — вся школа")
	dir := fs.String("out", ".", "каталог для файла")
	if err := fs.Parse(args); err != nil {
		return err
	}
	className := roster.NormalizeClassName(*class)
	eng := ledger.New(db.NewStore(e.db), e.log.Component("ledger"))

	// Только чтение: исполнитель не пишется в журнал.
	viewer := models.User{Role: models.SuperAdmin}
	board, err := eng.Standings(ctx, viewer, className)
	if err != nil {
		return err
	}
	wb, err := export.Leaderboard(board)
	if err != nil {
		return err
	}
	defer func() { _ = wb.Close() }()

	path := filepath.Join(*dir, export.BuildLeaderboardFilename(className, time.Now().In(e.cfg.Location)))
	if err := wb.SaveAs(path); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%d rows -> %s\n", len(board), path)
	return nil
}

func runCreateAdmin(ctx context.Context, e *env, args []string) error {
	fs := newFlags("create-admin")
	var reg auth.Registration
	fs.StringVar(&reg.Username, "username", "", "логин")
	fs.StringVar(&reg.Password, "password", "", "пароль (не короче 6 символов)")
	fs.StringVar(&reg.FullName, "name", "", "имя для списков")
	if err := fs.Parse(args); err != nil {
		return err
	}
	svc := auth.New(db.NewStore(e.db), e.log.Component("auth"), auth.WithStartingPoints(e.cfg.StartingPoints))
	u, err := svc.CreateAdmin(ctx, reg)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "admin %s created (%s)\n", u.Username, u.ID)
	return nil
}

func actorByLogin(ctx context.Context, e *env, login string) (models.User, error) {
	login = auth.NormalizeUsername(login)
	if login == "" {
		return models.User{}, errors.New("--as is required")
	}
	u, _, err := db.GetCredentials(ctx, e.db, login)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.User{}, fmt.Errorf("profile %q not found", login)
	}
	return u, err
}
