// Package appstate — снимок текущего пользователя на время одного действия.
package appstate

import (
	"context"
	"sync"

	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
)

type Loader interface {
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
}

// State создаётся на каждое обновление бота или HTTP-запрос.
type State struct {
	mu     sync.RWMutex
	loader Loader
	user   models.User
}

func New(loader Loader, user models.User) *State {
	return &State{loader: loader, user: user}
}

// Load читает профиль и возвращает готовое состояние.
func Load(ctx context.Context, loader Loader, id uuid.UUID) (*State, error) {
	u, err := loader.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return New(loader, u), nil
}

func (s *State) Snapshot() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Refresh перечитывает профиль после записи; при ошибке прежний снимок сохраняется.
func (s *State) Refresh(ctx context.Context) (models.User, error) {
	id := s.Snapshot().ID
	u, err := s.loader.GetUser(ctx, id)
	if err != nil {
		return s.Snapshot(), err
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	return u, nil
}
