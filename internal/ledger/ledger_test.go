package ledger

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func student(name string, points int) models.User {
	return models.User{ID: uuid.New(), FullName: name, ClassName: "6A1", Role: models.Student, Points: points}
}

func teacher() models.User {
	return models.User{ID: uuid.New(), FullName: "Учитель", ClassName: "6A1", Role: models.Teacher}
}

func TestApply_BalanceEqualsBaselinePlusSum(t *testing.T) {
	st := student("Аня", models.StartingPoints)
	store := newFakeStore(st)
	eng := New(store, nil)

	rnd := rand.New(rand.NewSource(1))
	sum := 0
	for i := 0; i < 40; i++ {
		d := rnd.Intn(21) - 10
		if d == 0 {
			d = 1
		}
		sum += d
		_, err := eng.Apply(context.Background(), &st.ID, nil, d, "ручная правка")
		require.NoError(t, err)
	}

	require.Equal(t, models.StartingPoints+sum, store.user(st.ID).Points)
	require.Len(t, store.logsFor(st.ID), 40)
}

func TestApply_Validation(t *testing.T) {
	st := student("Аня", 100)
	store := newFakeStore(st)
	eng := New(store, nil)

	_, err := eng.Apply(context.Background(), &st.ID, nil, 5, "   ")
	require.True(t, apperr.IsValidation(err))

	_, err = eng.Apply(context.Background(), nil, nil, 5, "без цели")
	require.True(t, apperr.IsValidation(err))

	require.Empty(t, store.logs, "при ошибке ввода ничего не пишется")
	require.Equal(t, 100, store.user(st.ID).Points)

	_, err = eng.Apply(context.Background(), nil, nil, 0, "объявление")
	require.NoError(t, err)
	require.Len(t, store.logs, 1)
}

func TestAward_RespectsGate(t *testing.T) {
	leader := student("Командир", 100)
	leader.Role = models.GroupLeader
	leader.GroupNumber = 2
	same := student("Свой", 100)
	same.GroupNumber = 2
	other := student("Чужой", 100)
	other.GroupNumber = 3
	store := newFakeStore(leader, same, other)
	eng := New(store, nil)
	ctx := context.Background()

	bal, err := eng.Award(ctx, leader, same.ID, 5, "помог")
	require.NoError(t, err)
	require.Equal(t, 105, bal)

	_, err = eng.Award(ctx, leader, other.ID, 5, "помог")
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = eng.Award(ctx, leader, leader.ID, 5, "себе")
	require.ErrorIs(t, err, apperr.ErrForbidden)

	foreign := student("Из другого класса", 100)
	foreign.ClassName = "7A1"
	store.add(foreign)
	_, err = eng.Award(ctx, teacher(), foreign.ID, 5, "чужой класс")
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestApplyBatch_OnlyNonZeroUsersWritten(t *testing.T) {
	a := student("A", 100)
	b := student("B", 100)
	store := newFakeStore(a, b)
	store.rules = []models.Rule{{ID: 7, Content: "Ответ у доски", Points: 5, Type: models.RuleReward, IsActive: true}}
	eng := New(store, nil)

	tally := Tally{a.ID: {7: 2}, b.ID: {}}
	day := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	res, err := eng.ApplyBatch(context.Background(), teacher(), tally, day, "Утро")
	require.NoError(t, err)

	require.Equal(t, 1, res.Updated)
	require.Equal(t, 110, store.user(a.ID).Points)
	require.Equal(t, 100, store.user(b.ID).Points)

	logs := store.logsFor(a.ID)
	require.Len(t, logs, 1)
	require.Equal(t, 10, logs[0].Amount)
	require.Equal(t, "[2024-05-01 - Утро] Ответ у доски (x2)", logs[0].Reason)
	require.Empty(t, store.logsFor(b.ID))
}

func TestApplyBatch_NetDeltaAndRuleOrder(t *testing.T) {
	a := student("A", 100)
	store := newFakeStore(a)
	store.rules = []models.Rule{
		{ID: 1, Content: "Ответ", Points: 5, Type: models.RuleReward, IsActive: true},
		{ID: 2, Content: "Опоздание", Points: -2, Type: models.RulePenalty, IsActive: true},
		{ID: 3, Content: "Выключено", Points: 50, Type: models.RuleReward, IsActive: false},
	}
	eng := New(store, nil)

	tally := Tally{}
	tally.Add(a.ID, 2, 1)
	tally.Add(a.ID, 1, 3)
	tally.Add(a.ID, 3, 1)  // неактивное правило игнорируется
	tally.Add(a.ID, 99, 4) // неизвестное тоже

	res, err := eng.ApplyBatch(context.Background(), teacher(), tally, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), "День")
	require.NoError(t, err)
	require.Equal(t, 1, res.Updated)
	require.Equal(t, 113, store.user(a.ID).Points)
	require.Equal(t, "[2024-05-02 - День] Ответ (x3), Опоздание (x1)", store.logsFor(a.ID)[0].Reason)
}

func TestApplyBatch_RejectsHugeQuantity(t *testing.T) {
	a := student("A", 100)
	store := newFakeStore(a)
	store.rules = []models.Rule{{ID: 1, Content: "Ответ", Points: 5, IsActive: true}}
	eng := New(store, nil)

	tally := Tally{a.ID: {1: 3_000_000_000}}
	res, err := eng.ApplyBatch(context.Background(), teacher(), tally, time.Now(), "Утро")
	require.Error(t, err)
	require.Len(t, res.Failed, 1)
	require.True(t, apperr.IsValidation(res.Failed[0].Err))
	require.Equal(t, 100, store.user(a.ID).Points)
	require.Empty(t, store.logsFor(a.ID))
}

func TestAward_RejectsHugeAmount(t *testing.T) {
	a := student("A", 100)
	store := newFakeStore(a)
	eng := New(store, nil)

	_, err := eng.Award(context.Background(), teacher(), a.ID, MaxAward+1, "слишком много")
	require.True(t, apperr.IsValidation(err))
	_, err = eng.Award(context.Background(), teacher(), a.ID, -MaxAward-1, "слишком много")
	require.True(t, apperr.IsValidation(err))

	balance, err := eng.Award(context.Background(), teacher(), a.ID, MaxAward, "олимпиада")
	require.NoError(t, err)
	require.Equal(t, 100+MaxAward, balance)
}

func TestApplyBatch_FailureDoesNotStopOthers(t *testing.T) {
	a := student("A", 100)
	b := student("B", 100)
	c := student("C", 100)
	store := newFakeStore(a, b, c)
	store.rules = []models.Rule{{ID: 1, Content: "Ответ", Points: 5, IsActive: true}}
	boom := errors.New("backend down")
	store.failFor[b.ID] = boom
	eng := New(store, nil)

	tally := Tally{a.ID: {1: 1}, b.ID: {1: 1}, c.ID: {1: 1}}
	res, err := eng.ApplyBatch(context.Background(), teacher(), tally, time.Now(), "Утро")
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.Len(t, multierr.Errors(err), 1)

	require.Equal(t, 2, res.Updated)
	require.Len(t, res.Failed, 1)
	require.Equal(t, b.ID, res.Failed[0].UserID)
	require.Equal(t, 105, store.user(a.ID).Points)
	require.Equal(t, 100, store.user(b.ID).Points)
	require.Equal(t, 105, store.user(c.ID).Points)
}

func TestApplyBatch_RequiresSession(t *testing.T) {
	eng := New(newFakeStore(), nil)
	_, err := eng.ApplyBatch(context.Background(), teacher(), Tally{}, time.Now(), " ")
	require.True(t, apperr.IsValidation(err))
}

func TestTier_Monotonic(t *testing.T) {
	require.Equal(t, RankNewbie, Tier(-20))
	require.Equal(t, RankNewbie, Tier(49))
	require.Equal(t, RankBee, Tier(50))
	require.Equal(t, RankStar, Tier(100))
	require.Equal(t, RankScholar, Tier(200))
	require.Equal(t, RankProdigy, Tier(300))
	require.Equal(t, RankLegend, Tier(400))
	require.Equal(t, RankLegend, Tier(10000))

	prev := Tier(-100)
	for b := -99; b <= 600; b++ {
		cur := Tier(b)
		require.GreaterOrEqual(t, cur, prev, "balance %d", b)
		prev = cur
	}
}

func TestLeaderboard_ExcludesStaffAndIsStable(t *testing.T) {
	s1 := student("A", 120)
	s2 := student("B", 80)
	tch := teacher()
	tch.Points = 999

	board := Leaderboard([]models.User{s1, tch, s2})
	require.Len(t, board, 2)
	require.Equal(t, 120, board[0].User.Points)
	require.Equal(t, 80, board[1].User.Points)
	require.Equal(t, 1, board[0].Place)

	x := student("X", 50)
	y := student("Y", 50)
	z := student("Z", 70)
	board = Leaderboard([]models.User{x, y, z})
	require.Equal(t, []uuid.UUID{z.ID, x.ID, y.ID}, []uuid.UUID{board[0].User.ID, board[1].User.ID, board[2].User.ID})
}

func TestResetMonthAndRewardTop(t *testing.T) {
	a := student("A", 300)
	a.GroupNumber, a.GroupLocked = 3, true
	b := student("B", 250)
	c := student("C", 90)
	d := student("D", 20)
	tch := teacher()
	tch.Points = 999
	store := newFakeStore(a, b, c, d, tch)
	eng := New(store, nil)
	ctx := context.Background()

	_, err := eng.ResetMonth(ctx, a)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	awards, err := eng.RewardTop(ctx, tch, "")
	require.NoError(t, err)
	require.Len(t, awards, 3)
	require.Equal(t, 30, store.user(a.ID).Coins)
	require.Equal(t, 20, store.user(b.ID).Coins)
	require.Equal(t, 10, store.user(c.ID).Coins)
	require.Zero(t, store.user(d.ID).Coins)
	require.Zero(t, store.logsFor(a.ID)[0].Amount)

	n, err := eng.ResetMonth(ctx, tch)
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
	ua := store.user(a.ID)
	require.Equal(t, models.StartingPoints, ua.Points)
	require.Zero(t, ua.GroupNumber)
	require.False(t, ua.GroupLocked)
	require.Equal(t, 999, store.user(tch.ID).Points)

	last := store.logs[len(store.logs)-1]
	require.Nil(t, last.TargetID)
	require.Equal(t, MonthMarker, last.Reason)
	require.True(t, IsSystemReason(last.Reason))
}

func TestJournal_TeacherSeesOwnClass(t *testing.T) {
	a := student("A", 100)
	foreign := student("F", 100)
	foreign.ClassName = "7A1"
	store := newFakeStore(a, foreign)
	eng := New(store, nil)
	ctx := context.Background()

	_, err := eng.Apply(ctx, &a.ID, nil, 3, "свой")
	require.NoError(t, err)
	_, err = eng.Apply(ctx, &foreign.ID, nil, 4, "чужой")
	require.NoError(t, err)

	rows, err := eng.Journal(ctx, teacher(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "свой", rows[0].Reason)

	_, err = eng.Journal(ctx, a, 10)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	homeless := teacher()
	homeless.ClassName = ""
	rows, err = eng.Journal(ctx, homeless, 10)
	require.NoError(t, err)
	require.Empty(t, rows, "учитель без класса не видит чужие записи")
}

func TestStandings_ScopedToViewerClass(t *testing.T) {
	a := student("A", 120)
	b := student("B", 90)
	b.ClassName = "7A1"
	admin := models.User{ID: uuid.New(), Role: models.SuperAdmin}
	store := newFakeStore(a, b, admin)
	eng := New(store, nil)
	ctx := context.Background()

	own, err := eng.Standings(ctx, a, "7A1")
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, a.ID, own[0].User.ID)

	all, err := eng.Standings(ctx, admin, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, 2, PlaceOf(all, b.ID))
	require.Equal(t, 0, PlaceOf(all, admin.ID))

	none, err := eng.Standings(ctx, models.User{Role: models.Student}, "")
	require.NoError(t, err)
	require.Empty(t, none)
}
