package ledger

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/metrics"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Tally — сколько раз за урок каждое правило сработало для каждого ученика.
type Tally map[uuid.UUID]map[int64]int

// Add увеличивает счётчик правила для ученика.
func (t Tally) Add(userID uuid.UUID, ruleID int64, qty int) {
	byRule, ok := t[userID]
	if !ok {
		byRule = make(map[int64]int)
		t[userID] = byRule
	}
	byRule[ruleID] += qty
}

type BatchFailure struct {
	UserID uuid.UUID
	Err    error
}

type BatchResult struct {
	Updated int
	Skipped int
	Failed  []BatchFailure
}

// ApplyBatch проводит журнал урока: одна запись на ученика с суммарным изменением.
// Ошибка по одному ученику не останавливает остальных; уже проведённые не откатываются.
// Возвращаемая ошибка объединяет все ошибки по ученикам.
func (e *Engine) ApplyBatch(ctx context.Context, actor models.User, tally Tally, day time.Time, session string) (BatchResult, error) {
	var res BatchResult

	session = strings.TrimSpace(session)
	if session == "" {
		return res, apperr.Invalid("session", "укажите урок или смену")
	}

	rules, err := e.store.Rules(ctx, true)
	if err != nil {
		return res, fmt.Errorf("load rules: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(tally))
	for id := range tally {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	prefix := fmt.Sprintf("[%s - %s] ", day.Format("2006-01-02"), session)

	var errs error
	for _, id := range ids {
		delta, parts, err := resolveTally(rules, tally[id])
		if err == nil && delta == 0 {
			res.Skipped++
			metrics.BatchUsers.WithLabelValues("skipped").Inc()
			continue
		}
		if err == nil {
			err = e.applyOne(ctx, actor, id, delta, prefix+strings.Join(parts, ", "))
		}
		if err != nil {
			res.Failed = append(res.Failed, BatchFailure{UserID: id, Err: err})
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", id, err))
			metrics.BatchUsers.WithLabelValues("failed").Inc()
			e.log.Warn("batch user failed", zap.Stringer("user", id), zap.Error(err))
			continue
		}
		res.Updated++
		metrics.BatchUsers.WithLabelValues("updated").Inc()
	}

	e.log.Info("batch applied",
		zap.String("session", session),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", len(res.Failed)),
	)
	return res, errs
}

func (e *Engine) applyOne(ctx context.Context, actor models.User, id uuid.UUID, delta int, reason string) error {
	target, err := e.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := checkScoreEdit(actor, target); err != nil {
		return err
	}
	_, err = e.Apply(ctx, &target.ID, &actor.ID, delta, reason)
	return err
}

// resolveTally сводит счётчики ученика к суммарному изменению и частям причины
// в порядке списка правил. Неизвестные правила пропускаются.
func resolveTally(rules []models.Rule, counts map[int64]int) (int, []string, error) {
	for ruleID, qty := range counts {
		if qty < 0 {
			return 0, nil, apperr.Invalid("quantity", fmt.Sprintf("отрицательное количество для правила #%d", ruleID))
		}
		if qty > MaxQuantity {
			return 0, nil, apperr.Invalid("quantity", fmt.Sprintf("правило #%d: больше %d раз за урок", ruleID, MaxQuantity))
		}
	}
	delta := 0
	var parts []string
	for _, r := range rules {
		qty := counts[r.ID]
		if qty == 0 {
			continue
		}
		delta += r.Points * qty
		parts = append(parts, fmt.Sprintf("%s (x%d)", r.Content, qty))
	}
	return delta, parts, nil
}
