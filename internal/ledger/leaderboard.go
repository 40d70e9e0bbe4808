package ledger

import (
	"sort"

	"github.com/Spok95/classroom-league/internal/models"
)

type Standing struct {
	Place int
	User  models.User
	Rank  Rank
}

// Leaderboard — ученики по убыванию баллов; учителя и администраторы не участвуют.
// При равенстве сохраняется исходный порядок.
func Leaderboard(users []models.User) []Standing {
	players := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.Role.IsStaff() {
			continue
		}
		players = append(players, u)
	}
	sort.SliceStable(players, func(i, j int) bool { return players[i].Points > players[j].Points })

	out := make([]Standing, len(players))
	for i, u := range players {
		out[i] = Standing{Place: i + 1, User: u, Rank: Tier(u.Points)}
	}
	return out
}
