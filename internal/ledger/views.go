package ledger

import (
	"context"

	"github.com/Spok95/classroom-league/internal/access"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
)

// Rules — действующие правила в порядке «сначала поощрения».
func (e *Engine) Rules(ctx context.Context) ([]models.Rule, error) {
	return e.store.Rules(ctx, true)
}

// History — журнал ученика, новые записи первыми.
func (e *Engine) History(ctx context.Context, userID uuid.UUID) ([]models.AuditEntry, error) {
	return e.store.PointLogs(ctx, userID)
}

// Standings — рейтинг класса. Администратор может смотреть любой класс или всю
// школу (className == ""); остальные видят только свой класс.
func (e *Engine) Standings(ctx context.Context, viewer models.User, className string) ([]Standing, error) {
	if class, all := access.ClassScope(viewer); !all {
		if class == "" {
			return nil, nil
		}
		className = class
	}
	users, err := e.store.ListUsers(ctx, models.UserFilter{ClassName: className, ExcludeStaff: true})
	if err != nil {
		return nil, err
	}
	return Leaderboard(users), nil
}

// PlaceOf — место ученика в рейтинге; 0, если его там нет.
func PlaceOf(board []Standing, id uuid.UUID) int {
	for _, st := range board {
		if st.User.ID == id {
			return st.Place
		}
	}
	return 0
}
