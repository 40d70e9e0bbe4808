package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Spok95/classroom-league/internal/appstate"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type userLoader func(ctx context.Context, id uuid.UUID) (models.User, error)

func (f userLoader) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) { return f(ctx, id) }

func TestCoinsAfter(t *testing.T) {
	h := New(nil, Services{}, nil, time.UTC)
	buyer := models.User{ID: uuid.New(), Coins: 80}
	ctx := context.Background()

	fresh := appstate.New(userLoader(func(_ context.Context, id uuid.UUID) (models.User, error) {
		return models.User{ID: id, Coins: 45}, nil
	}), buyer)
	require.Equal(t, 45, h.coinsAfter(ctx, fresh, 30))

	down := appstate.New(userLoader(func(context.Context, uuid.UUID) (models.User, error) {
		return models.User{}, errors.New("db down")
	}), buyer)
	require.Equal(t, 50, h.coinsAfter(ctx, down, 30), "без перечитывания остаток считается от снимка")
}
