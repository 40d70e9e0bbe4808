package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/classroom-league/internal/ctxutil"
	"github.com/Spok95/classroom-league/internal/models"
)

// ListRules — правила начисления; activeOnly скрывает выключенные.
func ListRules(ctx context.Context, database *sql.DB, activeOnly bool) ([]models.Rule, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT id, content, points, type, is_active
		FROM rules
		WHERE is_active OR NOT $1
		ORDER BY type DESC, id
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Rule
	for rows.Next() {
		var (
			r     models.Rule
			rType string
		)
		if err := rows.Scan(&r.ID, &r.Content, &r.Points, &rType, &r.IsActive); err != nil {
			return nil, err
		}
		r.Type = models.RuleType(rType)
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertRule — правило по тексту; повторный вызов обновляет баллы и тип.
func UpsertRule(ctx context.Context, database *sql.DB, r models.Rule) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO rules (content, points, type, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (content) DO UPDATE SET points = EXCLUDED.points, type = EXCLUDED.type, is_active = EXCLUDED.is_active
		RETURNING id
	`, r.Content, r.Points, string(r.Type), r.IsActive).Scan(&id)
	return id, err
}
