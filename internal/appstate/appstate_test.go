package appstate

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type loaderFunc func(ctx context.Context, id uuid.UUID) (models.User, error)

func (f loaderFunc) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) { return f(ctx, id) }

func TestRefresh(t *testing.T) {
	id := uuid.New()
	points := 100
	var fail error
	loader := loaderFunc(func(_ context.Context, got uuid.UUID) (models.User, error) {
		if fail != nil {
			return models.User{}, fail
		}
		return models.User{ID: got, Points: points}, nil
	})
	ctx := context.Background()

	st, err := Load(ctx, loader, id)
	require.NoError(t, err)
	require.Equal(t, 100, st.Snapshot().Points)

	points = 115
	require.Equal(t, 100, st.Snapshot().Points, "снимок не меняется сам")
	u, err := st.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, 115, u.Points)
	require.Equal(t, id, st.Snapshot().ID)

	fail = errors.New("db down")
	points = 200
	u, err = st.Refresh(ctx)
	require.Error(t, err)
	require.Equal(t, 115, u.Points)
	require.Equal(t, 115, st.Snapshot().Points)
}
