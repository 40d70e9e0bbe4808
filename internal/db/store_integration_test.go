//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/db"
	"github.com/Spok95/classroom-league/internal/ledger"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/Spok95/classroom-league/internal/shop"
	"github.com/Spok95/classroom-league/internal/testutil/testdb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func startDB(t *testing.T) *db.Store {
	t.Helper()
	h, err := testdb.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return db.NewStore(h.DB)
}

func mustProfile(t *testing.T, s *db.Store, username string, role models.Role, class string) models.User {
	t.Helper()
	ctx := context.Background()
	u := models.User{ID: uuid.New(), Username: username, FullName: username, ClassName: class, Role: role, Points: 100}
	if class != "" {
		if c, err := s.ClassByName(ctx, class); err == nil && c == nil {
			_, err := s.CreateClass(ctx, class)
			require.NoError(t, err)
		}
	}
	require.NoError(t, s.CreateProfile(ctx, u, "hash"))
	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	return got
}

func TestApplyDelta_ParallelIncrements(t *testing.T) {
	s := startDB(t)
	ctx := context.Background()
	st := mustProfile(t, s, "student1", models.Student, "6A1")

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := st.ID
			_, err := s.ApplyDelta(ctx, models.AuditEntry{TargetID: &id, Amount: 1, Reason: "параллельно"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.GetUser(ctx, st.ID)
	require.NoError(t, err)
	require.Equal(t, 100+n, got.Points)

	logs, err := s.PointLogs(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, logs, n)
}

func TestApplyDelta_MissingProfile(t *testing.T) {
	s := startDB(t)
	id := uuid.New()
	_, err := s.ApplyDelta(context.Background(), models.AuditEntry{TargetID: &id, Amount: 5, Reason: "x"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPurchase_LastItemGoesToOneBuyer(t *testing.T) {
	s := startDB(t)
	ctx := context.Background()
	a := mustProfile(t, s, "buyer_a", models.Student, "6A1")
	b := mustProfile(t, s, "buyer_b", models.Student, "6A1")
	for _, u := range []models.User{a, b} {
		require.NoError(t, s.GrantCoins(ctx, u.ID, 50, models.AuditEntry{Reason: "тест"}))
	}
	itemID, err := s.CreateReward(ctx, models.RewardItem{
		Name: "Ручка", Cost: 30, Stock: 1, Rarity: models.Common, Category: models.CategoryItem,
	})
	require.NoError(t, err)

	svc := shop.New(s, nil)
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, u := range []models.User{a, b} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, results[i] = svc.Buy(ctx, id, itemID)
		}(i, u.ID)
	}
	wg.Wait()

	var ok, soldOut int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, models.ErrOutOfStock):
			soldOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, soldOut)

	item, err := s.Reward(ctx, itemID)
	require.NoError(t, err)
	require.Equal(t, 0, item.Stock)

	total := 0
	for _, u := range []models.User{a, b} {
		got, err := s.GetUser(ctx, u.ID)
		require.NoError(t, err)
		total += got.Coins
	}
	require.Equal(t, 100-30, total)
}

func TestPurchase_UnlimitedStockNotDecremented(t *testing.T) {
	s := startDB(t)
	ctx := context.Background()
	u := mustProfile(t, s, "rich", models.Student, "6A1")
	require.NoError(t, s.GrantCoins(ctx, u.ID, 100, models.AuditEntry{Reason: "тест"}))
	itemID, err := s.CreateReward(ctx, models.RewardItem{
		Name: "Купон", Cost: 20, Stock: models.UnlimitedStock, Rarity: models.Common, Category: models.CategoryCoupon,
	})
	require.NoError(t, err)

	_, err = shop.New(s, nil).Buy(ctx, u.ID, itemID)
	require.NoError(t, err)

	item, err := s.Reward(ctx, itemID)
	require.NoError(t, err)
	require.Equal(t, models.UnlimitedStock, item.Stock)
	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 80, got.Coins)
	require.Equal(t, 1, got.Coupons)
}

func TestResetMonth_SkipsStaff(t *testing.T) {
	s := startDB(t)
	ctx := context.Background()
	admin := mustProfile(t, s, "admin", models.SuperAdmin, "")
	teacher := mustProfile(t, s, "teacher", models.Teacher, "6A1")
	st := mustProfile(t, s, "pupil", models.Student, "6A1")

	eng := ledger.New(s, nil)
	_, err := eng.Award(ctx, teacher, st.ID, 40, "Олимпиада")
	require.NoError(t, err)
	require.NoError(t, s.ChooseGroup(ctx, st.ID, 2))
	_, err = s.ApplyDelta(ctx, models.AuditEntry{TargetID: &teacher.ID, Amount: 7, Reason: "служебно"})
	require.NoError(t, err)

	n, err := eng.ResetMonth(ctx, admin)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := s.GetUser(ctx, st.ID)
	require.NoError(t, err)
	require.Equal(t, 100, got.Points)
	require.Equal(t, 0, got.GroupNumber)
	require.False(t, got.GroupLocked)

	tch, err := s.GetUser(ctx, teacher.ID)
	require.NoError(t, err)
	require.Equal(t, 107, tch.Points)
}

func TestDeleteUser_CascadesHistory(t *testing.T) {
	s := startDB(t)
	ctx := context.Background()
	st := mustProfile(t, s, "leaver", models.Student, "6A1")
	id := st.ID
	_, err := s.ApplyDelta(ctx, models.AuditEntry{TargetID: &id, Amount: 3, Reason: "x"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, st.ID))
	_, err = s.GetUser(ctx, st.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	logs, err := s.PointLogs(ctx, st.ID)
	require.NoError(t, err)
	require.Empty(t, logs)
}
