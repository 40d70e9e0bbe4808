package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/ctxutil"
	"github.com/Spok95/classroom-league/internal/models"
)

func ListClasses(ctx context.Context, database *sql.DB) ([]models.Class, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `SELECT id, name FROM classes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []models.Class{}
	for rows.Next() {
		var c models.Class
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func GetClassByName(ctx context.Context, database *sql.DB, name string) (*models.Class, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var c models.Class
	err := database.QueryRowContext(ctx, `SELECT id, name FROM classes WHERE name = $1`, name).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func CreateClass(ctx context.Context, database *sql.DB, name string) (models.Class, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	c := models.Class{Name: name}
	err := database.QueryRowContext(ctx, `INSERT INTO classes (name) VALUES ($1) RETURNING id`, name).Scan(&c.ID)
	if isUniqueViolation(err) {
		return models.Class{}, apperr.Invalid("name", "такой класс уже есть")
	}
	return c, err
}

// DeleteClass — удаление только пустого класса.
func DeleteClass(ctx context.Context, database *sql.DB, name string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var members int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles WHERE class_name = $1`, name).Scan(&members); err != nil {
		return err
	}
	if members > 0 {
		return models.ErrClassNotEmpty
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM classes WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return tx.Commit()
}
