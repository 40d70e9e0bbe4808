package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/ctxutil"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const profileColumns = `p.id, p.username, p.telegram_id, p.full_name, p.class_name, p.group_number,
	p.is_group_locked, p.role, p.current_points, p.wallet_coins, p.coupon_count, p.avatar_code,
	p.frame_kind, p.frame_value, p.unlocked_badges, p.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanProfile — единственное место, где NULL из profiles превращается в нулевые значения.
func scanProfile(row rowScanner) (models.User, error) {
	var (
		u         models.User
		tgID      sql.NullInt64
		className sql.NullString
		coupons   sql.NullInt64
		avatar    sql.NullString
		frameKind sql.NullString
		frameVal  sql.NullString
		role      string
		badges    pq.StringArray
	)
	err := row.Scan(&u.ID, &u.Username, &tgID, &u.FullName, &className, &u.GroupNumber,
		&u.GroupLocked, &role, &u.Points, &u.Coins, &coupons, &avatar,
		&frameKind, &frameVal, &badges, &u.CreatedAt)
	if err != nil {
		return models.User{}, err
	}
	if tgID.Valid {
		v := tgID.Int64
		u.TelegramID = &v
	}
	u.ClassName = className.String
	u.Coupons = int(coupons.Int64)
	u.AvatarCode = avatar.String
	u.Role = models.Role(role)
	if frameKind.Valid && frameKind.String != "" {
		u.Frame = models.Frame{Kind: models.FrameKind(frameKind.String), Value: frameVal.String}
	}
	u.Badges = []string(badges)
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateProfile — новый профиль; занятый логин возвращается как ошибка валидации.
func CreateProfile(ctx context.Context, database *sql.DB, u models.User, passwordHash string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		INSERT INTO profiles (id, username, password_hash, full_name, class_name, role, current_points, wallet_coins, coupon_count, unlocked_badges)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, '{}')
	`, u.ID, u.Username, passwordHash, u.FullName, nullString(u.ClassName), string(u.Role), u.Points)
	if isUniqueViolation(err) {
		return apperr.Invalid("username", "логин уже занят")
	}
	return err
}

func GetUser(ctx context.Context, database *sql.DB, id uuid.UUID) (models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	u, err := scanProfile(database.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles p WHERE p.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("профиль %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.User{}, err
	}
	frames, err := ListOwnedFrames(ctx, database, id)
	if err != nil {
		return models.User{}, err
	}
	u.OwnedFrames = frames
	return u, nil
}

func GetUserByTelegramID(ctx context.Context, database *sql.DB, telegramID int64) (models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id uuid.UUID
	err := database.QueryRowContext(ctx, `SELECT id FROM profiles WHERE telegram_id = $1`, telegramID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return GetUser(ctx, database, id)
}

// GetCredentials — профиль и хеш пароля по логину.
func GetCredentials(ctx context.Context, database *sql.DB, username string) (models.User, string, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var (
		id   uuid.UUID
		hash string
	)
	err := database.QueryRowContext(ctx, `SELECT id, password_hash FROM profiles WHERE username = $1`, username).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, "", apperr.ErrNotFound
	}
	if err != nil {
		return models.User{}, "", err
	}
	u, err := GetUser(ctx, database, id)
	return u, hash, err
}

func GetPasswordHash(ctx context.Context, database *sql.DB, id uuid.UUID) (string, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var hash string
	err := database.QueryRowContext(ctx, `SELECT password_hash FROM profiles WHERE id = $1`, id).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.ErrNotFound
	}
	return hash, err
}

func SetPasswordHash(ctx context.Context, database *sql.DB, id uuid.UUID, hash string) error {
	return execOne(ctx, database, `UPDATE profiles SET password_hash = $2 WHERE id = $1`, id, hash)
}

// BindTelegram привязывает чат к профилю; прежняя привязка этого чата снимается.
func BindTelegram(ctx context.Context, database *sql.DB, id uuid.UUID, telegramID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE profiles SET telegram_id = NULL WHERE telegram_id = $1 AND id <> $2`, telegramID, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE profiles SET telegram_id = $2 WHERE id = $1`, id, telegramID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return tx.Commit()
}

// ListUsers — профили без рамок-коллекций; порядок задаёт вызывающий.
func ListUsers(ctx context.Context, database *sql.DB, f models.UserFilter) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if f.ClassName != "" {
		args = append(args, f.ClassName)
		where = append(where, fmt.Sprintf("p.class_name = $%d", len(args)))
	}
	if f.ExcludeStaff {
		where = append(where, "p.role NOT IN ('TEACHER', 'SUPER_ADMIN')")
	}
	q := `SELECT ` + profileColumns + ` FROM profiles p`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY p.full_name, p.id"

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.User
	for rows.Next() {
		u, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func SetRole(ctx context.Context, database *sql.DB, id uuid.UUID, role models.Role) error {
	return execOne(ctx, database, `UPDATE profiles SET role = $2 WHERE id = $1`, id, string(role))
}

func SetGroup(ctx context.Context, database *sql.DB, id uuid.UUID, group int, locked bool) error {
	return execOne(ctx, database, `UPDATE profiles SET group_number = $2, is_group_locked = $3 WHERE id = $1`, id, group, locked)
}

// SetClass — "" снимает класс.
func SetClass(ctx context.Context, database *sql.DB, id uuid.UUID, className string) error {
	return execOne(ctx, database, `UPDATE profiles SET class_name = $2 WHERE id = $1`, id, nullString(className))
}

// JoinClass — только пока класс не выбран.
func JoinClass(ctx context.Context, database *sql.DB, id uuid.UUID, className string) error {
	return execOne(ctx, database, `
		UPDATE profiles SET class_name = $2
		WHERE id = $1 AND (class_name IS NULL OR class_name = '')
	`, id, className)
}

// ChooseGroup — только пока группа не закреплена; выбор закрепляет её.
func ChooseGroup(ctx context.Context, database *sql.DB, id uuid.UUID, group int) error {
	return execOne(ctx, database, `
		UPDATE profiles SET group_number = $2, is_group_locked = TRUE
		WHERE id = $1 AND NOT is_group_locked
	`, id, group)
}

// DeleteUser удаляет профиль вместе с журналом, заявками и рамками одной транзакцией.
func DeleteUser(ctx context.Context, database *sql.DB, id uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM point_logs WHERE student_id = $1 OR actor_id = $1`,
		`DELETE FROM redemptions WHERE student_id = $1`,
		`DELETE FROM owned_frames WHERE user_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return tx.Commit()
}

func SetAvatar(ctx context.Context, database *sql.DB, id uuid.UUID, code string) error {
	return execOne(ctx, database, `UPDATE profiles SET avatar_code = $2 WHERE id = $1`, id, nullString(code))
}

// EquipFrame — надеть рамку из коллекции; нулевая рамка снимает текущую.
func EquipFrame(ctx context.Context, database *sql.DB, id uuid.UUID, f models.Frame) error {
	if f.IsZero() {
		return execOne(ctx, database, `UPDATE profiles SET frame_kind = NULL, frame_value = NULL WHERE id = $1`, id)
	}
	return execOne(ctx, database, `
		UPDATE profiles SET frame_kind = $2, frame_value = $3
		WHERE id = $1
		  AND EXISTS (SELECT 1 FROM owned_frames o WHERE o.user_id = $1 AND o.kind = $2 AND o.value = $3)
	`, id, string(f.Kind), f.Value)
}

func ListOwnedFrames(ctx context.Context, database *sql.DB, id uuid.UUID) ([]models.Frame, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT kind, value FROM owned_frames WHERE user_id = $1 ORDER BY created_at, kind, value
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Frame
	for rows.Next() {
		var kind, value string
		if err := rows.Scan(&kind, &value); err != nil {
			return nil, err
		}
		out = append(out, models.Frame{Kind: models.FrameKind(kind), Value: value})
	}
	return out, rows.Err()
}

// UnlockBadges записывает полный список значков и начисляет бонус одним запросом.
func UnlockBadges(ctx context.Context, database *sql.DB, id uuid.UUID, badges []string, bonusCoins int) error {
	return execOne(ctx, database, `
		UPDATE profiles SET unlocked_badges = $2, wallet_coins = wallet_coins + $3 WHERE id = $1
	`, id, pq.Array(badges), bonusCoins)
}

// execOne — UPDATE/DELETE, который обязан затронуть ровно одну строку.
// Ноль строк означает, что запись пропала или условие уже не выполняется.
func execOne(ctx context.Context, database *sql.DB, query string, args ...any) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrConflict
	}
	return nil
}
