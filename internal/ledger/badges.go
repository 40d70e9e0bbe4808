package ledger

import (
	"context"
	"fmt"

	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BadgeBonus — монеты за каждый новый значок.
const BadgeBonus = 10

type Badge struct {
	ID    string
	Icon  string
	Name  string
	Desc  string
	match func(models.User) bool
}

func (b Badge) Earned(u models.User) bool { return b.match(u) }

func minPoints(n int) func(models.User) bool {
	return func(u models.User) bool { return u.Points >= n }
}

func minCoins(n int) func(models.User) bool {
	return func(u models.User) bool { return u.Coins >= n }
}

var Badges = []Badge{
	{"NEWBIE", "🐣", "Новобранец", "Впервые пришёл в класс", func(models.User) bool { return true }},
	{"FASHION", "🎩", "Модник", "Сменил аватар", func(u models.User) bool { return u.AvatarCode != "" }},
	{"GOOD_STUDENT", "📘", "Примерный ученик", "Набрал 110 баллов", minPoints(110)},
	{"HARD_WORK", "🐝", "Трудяга", "Набрал 150 баллов", minPoints(150)},
	{"SAVER", "🐷", "Копилка", "Накопил 500 монет", minCoins(500)},
	{"FRAME_USER", "🖼️", "Стиляга", "Носит рамку аватара", func(u models.User) bool { return !u.Frame.IsZero() }},
	{"ELITE", "🚀", "Элита", "Набрал 200 баллов", minPoints(200)},
	{"RICH_KID", "💎", "Богач", "Накопил 2000 монет", minCoins(2000)},
	{"LEADER", "📢", "Лидер", "Староста или командир группы", func(u models.User) bool {
		return u.Role == models.GroupLeader || u.Role == models.Monitor
	}},
	{"GENIUS", "🔮", "Гений", "Набрал 300 баллов", minPoints(300)},
	{"LEGEND", "👑", "Легенда", "Набрал 400 баллов", minPoints(400)},
	{"GOLDEN_BOSS", "🐲", "Золотой босс", "Носит золотую рамку", func(u models.User) bool {
		return u.Frame == models.PresetFrame(models.FrameGold)
	}},
}

func BadgeByID(id string) (Badge, bool) {
	for _, b := range Badges {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// NewBadges — значки, условия которых выполнены, но которые ещё не открыты.
func NewBadges(u models.User) []Badge {
	var out []Badge
	for _, b := range Badges {
		if !u.HasBadge(b.ID) && b.Earned(u) {
			out = append(out, b)
		}
	}
	return out
}

// CheckAchievements открывает новые значки и начисляет BadgeBonus монет за каждый.
func (e *Engine) CheckAchievements(ctx context.Context, userID uuid.UUID) ([]Badge, error) {
	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	fresh := NewBadges(u)
	if len(fresh) == 0 {
		return nil, nil
	}
	all := append([]string{}, u.Badges...)
	for _, b := range fresh {
		all = append(all, b.ID)
	}
	if err := e.store.UnlockBadges(ctx, u.ID, all, BadgeBonus*len(fresh)); err != nil {
		return nil, fmt.Errorf("unlock badges: %w", err)
	}
	e.log.Info("badges unlocked", zap.Stringer("user", u.ID), zap.Int("count", len(fresh)))
	return fresh, nil
}
