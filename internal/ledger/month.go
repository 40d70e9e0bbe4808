package ledger

import (
	"context"
	"fmt"

	"github.com/Spok95/classroom-league/internal/access"
	"github.com/Spok95/classroom-league/internal/models"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// MonthMarker — причина служебной записи об итогах месяца.
const MonthMarker = SystemMarker + " ИТОГИ МЕСЯЦА " + SystemMarker

// TopBonuses — монеты за 1, 2 и 3 место.
var TopBonuses = []int{30, 20, 10}

// ResetMonth возвращает учеников к базовому балансу и снимает группы.
func (e *Engine) ResetMonth(ctx context.Context, actor models.User) (int64, error) {
	if err := access.Require(actor, access.MonthReset); err != nil {
		return 0, err
	}
	n, err := e.store.ResetMonth(ctx, e.baseline, models.AuditEntry{
		ActorID: &actor.ID,
		Amount:  0,
		Reason:  MonthMarker,
	})
	if err != nil {
		return 0, fmt.Errorf("reset month: %w", err)
	}
	e.log.Info("month reset", zap.Stringer("actor", actor.ID), zap.Int64("profiles", n), zap.Int("baseline", e.baseline))
	return n, nil
}

type TopAward struct {
	Standing Standing
	Coins    int
}

// RewardTop выдаёт монеты первой тройке рейтинга. Учитель награждает свой класс,
// администратор — указанный класс или всю школу при пустом className.
func (e *Engine) RewardTop(ctx context.Context, actor models.User, className string) ([]TopAward, error) {
	if err := access.Require(actor, access.TopReward); err != nil {
		return nil, err
	}
	if class, all := access.ClassScope(actor); !all {
		if class == "" {
			return nil, nil
		}
		className = class
	}
	users, err := e.store.ListUsers(ctx, models.UserFilter{ClassName: className, ExcludeStaff: true})
	if err != nil {
		return nil, err
	}
	board := Leaderboard(users)

	var (
		out  []TopAward
		errs error
	)
	for i, coins := range TopBonuses {
		if i >= len(board) {
			break
		}
		st := board[i]
		id := st.User.ID
		note := models.AuditEntry{
			TargetID: &id,
			ActorID:  &actor.ID,
			Amount:   0,
			Reason:   fmt.Sprintf("🎁 Награда за топ-%d (+%d монет)", st.Place, coins),
		}
		if err := e.store.GrantCoins(ctx, id, coins, note); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		out = append(out, TopAward{Standing: st, Coins: coins})
	}
	e.log.Info("top rewarded", zap.String("class", className), zap.Int("awarded", len(out)))
	return out, errs
}
