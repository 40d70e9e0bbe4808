// Package ledger — баллы и монеты учеников: начисления, журнал, рейтинг,
// итоги месяца и значки.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/classroom-league/internal/access"
	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/metrics"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store — то, что движку нужно от хранилища.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, error)
	ApplyDelta(ctx context.Context, e models.AuditEntry) (int, error)
	GrantCoins(ctx context.Context, id uuid.UUID, coins int, note models.AuditEntry) error
	ResetMonth(ctx context.Context, baseline int, note models.AuditEntry) (int64, error)
	PointLogs(ctx context.Context, id uuid.UUID) ([]models.AuditEntry, error)
	RecentLogs(ctx context.Context, className string, limit int) ([]models.AuditEntryWithNames, error)
	Rules(ctx context.Context, activeOnly bool) ([]models.Rule, error)
	UnlockBadges(ctx context.Context, id uuid.UUID, badges []string, bonusCoins int) error
}

const (
	// MaxQuantity — сколько раз одно правило может сработать у ученика за урок.
	MaxQuantity = 100
	// MaxAward — предел одного ручного начисления или списания.
	MaxAward = 1000
)

type Engine struct {
	store    Store
	log      *zap.Logger
	baseline int
	now      func() time.Time
}

type Option func(*Engine)

// WithBaseline — баланс после ежемесячного сброса.
func WithBaseline(points int) Option {
	return func(e *Engine) { e.baseline = points }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(store Store, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		store:    store,
		log:      log.Named("ledger"),
		baseline: models.StartingPoints,
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Apply записывает одно изменение баланса вместе с записью журнала.
// amount == 0 — информационная запись, цель может отсутствовать.
func (e *Engine) Apply(ctx context.Context, target, actor *uuid.UUID, amount int, reason string) (int, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return 0, apperr.Invalid("reason", "укажите причину")
	}
	if target == nil && amount != 0 {
		return 0, apperr.Invalid("target", "не выбран ученик")
	}

	balance, err := e.store.ApplyDelta(ctx, models.AuditEntry{
		TargetID: target,
		ActorID:  actor,
		Amount:   amount,
		Reason:   reason,
	})
	if err != nil {
		return 0, fmt.Errorf("apply delta: %w", err)
	}
	metrics.ObserveDelta(amount)
	e.log.Debug("delta applied",
		idField("target", target),
		zap.Int("amount", amount),
		zap.Int("balance", balance),
	)
	return balance, nil
}

// Award — ручное начисление/списание от имени исполнителя с проверкой прав.
func (e *Engine) Award(ctx context.Context, actor models.User, targetID uuid.UUID, amount int, reason string) (int, error) {
	target, err := e.store.GetUser(ctx, targetID)
	if err != nil {
		return 0, err
	}
	if err := checkScoreEdit(actor, target); err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, apperr.Invalid("amount", "количество баллов не может быть нулём")
	}
	if amount > MaxAward || amount < -MaxAward {
		return 0, apperr.Invalid("amount", fmt.Sprintf("не больше %d баллов за раз", MaxAward))
	}
	return e.Apply(ctx, &target.ID, &actor.ID, amount, reason)
}

// Journal — лента последних записей для панели учителя.
func (e *Engine) Journal(ctx context.Context, actor models.User, limit int) ([]models.AuditEntryWithNames, error) {
	if err := access.Require(actor, access.ViewJournal); err != nil {
		return nil, err
	}
	className, all := access.ClassScope(actor)
	if !all && className == "" {
		return nil, nil
	}
	return e.store.RecentLogs(ctx, className, limit)
}

func checkScoreEdit(actor, target models.User) error {
	if !access.InScope(actor, target) {
		return fmt.Errorf("%s: %w", access.ScoreEdit, apperr.ErrForbidden)
	}
	return access.RequireEdit(actor, target, access.ScoreEdit)
}

func idField(key string, id *uuid.UUID) zap.Field {
	if id == nil {
		return zap.String(key, "-")
	}
	return zap.Stringer(key, *id)
}
