package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/ctxutil"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
)

const insertLogSQL = `
	INSERT INTO point_logs (student_id, actor_id, amount, reason)
	VALUES ($1, $2, $3, $4)
`

func insertLog(ctx context.Context, tx *sql.Tx, e models.AuditEntry) error {
	_, err := tx.ExecContext(ctx, insertLogSQL, e.TargetID, e.ActorID, e.Amount, e.Reason)
	return err
}

// ApplyDelta — атомарное изменение баланса и запись журнала в одной транзакции.
// Возвращает новый баланс цели (0, если цели нет).
func ApplyDelta(ctx context.Context, database *sql.DB, e models.AuditEntry) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	balance := 0
	if e.TargetID != nil {
		err = tx.QueryRowContext(ctx, `
			UPDATE profiles SET current_points = current_points + $2
			WHERE id = $1
			RETURNING current_points
		`, *e.TargetID, e.Amount).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("профиль %s: %w", *e.TargetID, apperr.ErrNotFound)
		}
		if err != nil {
			return 0, err
		}
	}
	if err := insertLog(ctx, tx, e); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

// GrantCoins начисляет монеты и пишет информационную запись.
func GrantCoins(ctx context.Context, database *sql.DB, id uuid.UUID, coins int, note models.AuditEntry) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE profiles SET wallet_coins = wallet_coins + $2 WHERE id = $1`, id, coins)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	if err := insertLog(ctx, tx, note); err != nil {
		return err
	}
	return tx.Commit()
}

// ResetMonth возвращает всех учеников к базовому балансу, снимает группы
// и оставляет в журнале отметку об итогах. Возвращает число сброшенных профилей.
func ResetMonth(ctx context.Context, database *sql.DB, baseline int, note models.AuditEntry) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE profiles
		SET current_points = $1, group_number = 0, is_group_locked = FALSE
		WHERE role NOT IN ('TEACHER', 'SUPER_ADMIN')
	`, baseline)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := insertLog(ctx, tx, note); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// ListPointLogs — журнал ученика, новые записи первыми.
func ListPointLogs(ctx context.Context, database *sql.DB, id uuid.UUID) ([]models.AuditEntry, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT id, student_id, actor_id, amount, reason, created_at
		FROM point_logs
		WHERE student_id = $1
		ORDER BY created_at DESC, id DESC
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.AuditEntry
	for rows.Next() {
		e, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListRecentLogs — лента последних записей; className фильтрует по классу ученика,
// записи без ученика (итоги месяца) видны всем.
func ListRecentLogs(ctx context.Context, database *sql.DB, className string, limit int) ([]models.AuditEntryWithNames, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}
	rows, err := database.QueryContext(ctx, `
		SELECT l.id, l.student_id, l.actor_id, l.amount, l.reason, l.created_at,
		       COALESCE(t.full_name, ''), COALESCE(a.full_name, '')
		FROM point_logs l
		LEFT JOIN profiles t ON t.id = l.student_id
		LEFT JOIN profiles a ON a.id = l.actor_id
		WHERE $1 = '' OR l.student_id IS NULL OR t.class_name = $1
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT $2
	`, className, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.AuditEntryWithNames
	for rows.Next() {
		var (
			e             models.AuditEntryWithNames
			target, actor uuid.NullUUID
		)
		if err := rows.Scan(&e.ID, &target, &actor, &e.Amount, &e.Reason, &e.CreatedAt, &e.TargetName, &e.ActorName); err != nil {
			return nil, err
		}
		e.TargetID = uuidPtr(target)
		e.ActorID = uuidPtr(actor)
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanLog(row rowScanner) (models.AuditEntry, error) {
	var (
		e             models.AuditEntry
		target, actor uuid.NullUUID
	)
	if err := row.Scan(&e.ID, &target, &actor, &e.Amount, &e.Reason, &e.CreatedAt); err != nil {
		return models.AuditEntry{}, err
	}
	e.TargetID = uuidPtr(target)
	e.ActorID = uuidPtr(actor)
	return e, nil
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}
