package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/ctxutil"
	"github.com/Spok95/classroom-league/internal/models"
)

const rewardColumns = `id, name, cost, stock, rarity, category, image_url, created_at`

func scanReward(row rowScanner) (models.RewardItem, error) {
	var (
		r                models.RewardItem
		rarity, category string
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Cost, &r.Stock, &rarity, &category, &r.ImageURL, &r.CreatedAt); err != nil {
		return models.RewardItem{}, err
	}
	r.Rarity = models.Rarity(rarity)
	r.Category = models.Category(category)
	return r, nil
}

// ListRewards — каталог, дорогие товары первыми.
func ListRewards(ctx context.Context, database *sql.DB) ([]models.RewardItem, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `SELECT `+rewardColumns+` FROM rewards ORDER BY cost DESC, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.RewardItem
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func GetReward(ctx context.Context, database *sql.DB, id int64) (models.RewardItem, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	r, err := scanReward(database.QueryRowContext(ctx, `SELECT `+rewardColumns+` FROM rewards WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.RewardItem{}, fmt.Errorf("товар #%d: %w", id, apperr.ErrNotFound)
	}
	return r, err
}

// CreateReward добавляет товар; при повторном имени обновляет карточку (для сидов).
func CreateReward(ctx context.Context, database *sql.DB, r models.RewardItem) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO rewards (name, cost, stock, rarity, category, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			cost = EXCLUDED.cost, stock = EXCLUDED.stock, rarity = EXCLUDED.rarity,
			category = EXCLUDED.category, image_url = EXCLUDED.image_url
		RETURNING id
	`, r.Name, r.Cost, r.Stock, string(r.Rarity), string(r.Category), r.ImageURL).Scan(&id)
	return id, err
}

// ExecutePurchase проводит покупку целиком или не проводит вовсе:
// списание монет, купоны, рамка, склад и заявка в одной транзакции.
func ExecutePurchase(ctx context.Context, database *sql.DB, p models.Purchase) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var coins, coupons int
	err = tx.QueryRowContext(ctx, `
		SELECT wallet_coins, COALESCE(coupon_count, 0) FROM profiles WHERE id = $1 FOR UPDATE
	`, p.BuyerID).Scan(&coins, &coupons)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if coins < p.Price {
		return 0, apperr.ErrInsufficientFunds
	}
	if coupons+p.CouponDelta < 0 {
		return 0, apperr.ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE profiles
		SET wallet_coins = wallet_coins - $2, coupon_count = COALESCE(coupon_count, 0) + $3
		WHERE id = $1 AND wallet_coins >= $2
	`, p.BuyerID, p.Price, p.CouponDelta); err != nil {
		return 0, err
	}

	if p.Frame != nil {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO owned_frames (user_id, kind, value) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, p.BuyerID, string(p.Frame.Kind), p.Frame.Value)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return 0, models.ErrFrameOwned
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE profiles SET frame_kind = $2, frame_value = $3 WHERE id = $1
		`, p.BuyerID, string(p.Frame.Kind), p.Frame.Value); err != nil {
			return 0, err
		}
	}

	// Склад от UnlimitedStock и выше не трогаем, но нулевой остаток всё равно отказ.
	res, err := tx.ExecContext(ctx, `
		UPDATE rewards
		SET stock = CASE WHEN stock >= $2 THEN stock ELSE stock - 1 END
		WHERE id = $1 AND stock > 0
	`, p.Item.ID, models.UnlimitedStock)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, models.ErrOutOfStock
	}

	var redemptionID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO redemptions (student_id, reward_id, cost_at_time, status, delivered_at)
		VALUES ($1, $2, $3, $4, CASE WHEN $4 = 'DELIVERED' THEN now() END)
		RETURNING id
	`, p.BuyerID, p.Item.ID, p.Price, string(p.Status)).Scan(&redemptionID)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return redemptionID, nil
}

func GetRedemption(ctx context.Context, database *sql.DB, id int64) (models.Redemption, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var (
		r         models.Redemption
		status    string
		delivered sql.NullTime
	)
	err := database.QueryRowContext(ctx, `
		SELECT id, student_id, reward_id, cost_at_time, status, created_at, delivered_at
		FROM redemptions WHERE id = $1
	`, id).Scan(&r.ID, &r.StudentID, &r.RewardID, &r.CostAtTime, &status, &r.CreatedAt, &delivered)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Redemption{}, fmt.Errorf("заявка #%d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Redemption{}, err
	}
	r.Status = models.RedemptionStatus(status)
	if delivered.Valid {
		t := delivered.Time
		r.DeliveredAt = &t
	}
	return r, nil
}

// MarkDelivered — PENDING → DELIVERED ровно один раз.
func MarkDelivered(ctx context.Context, database *sql.DB, id int64) error {
	return execOne(ctx, database, `
		UPDATE redemptions SET status = 'DELIVERED', delivered_at = now()
		WHERE id = $1 AND status = 'PENDING'
	`, id)
}

// ListPendingOrders — невыданные заявки; className == "" — по всей школе.
func ListPendingOrders(ctx context.Context, database *sql.DB, className string) ([]models.Order, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT r.id, r.student_id, r.reward_id, r.cost_at_time, r.status, r.created_at,
		       p.full_name, COALESCE(p.class_name, ''), w.name
		FROM redemptions r
		JOIN profiles p ON p.id = r.student_id
		JOIN rewards w ON w.id = r.reward_id
		WHERE r.status = 'PENDING' AND ($1 = '' OR p.class_name = $1)
		ORDER BY r.created_at, r.id
	`, className)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Order
	for rows.Next() {
		var (
			o      models.Order
			status string
		)
		if err := rows.Scan(&o.ID, &o.StudentID, &o.RewardID, &o.CostAtTime, &status, &o.CreatedAt,
			&o.StudentName, &o.ClassName, &o.RewardName); err != nil {
			return nil, err
		}
		o.Status = models.RedemptionStatus(status)
		out = append(out, o)
	}
	return out, rows.Err()
}
