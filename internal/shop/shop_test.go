package shop

import (
	"context"
	"sync"
	"testing"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// memStore повторяет транзакционную семантику ExecutePurchase в памяти.
type memStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*models.User
	rewards     map[int64]*models.RewardItem
	redemptions map[int64]*models.Redemption
	purchases   int
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[uuid.UUID]*models.User{},
		rewards:     map[int64]*models.RewardItem{},
		redemptions: map[int64]*models.Redemption{},
	}
}

func (m *memStore) GetUser(_ context.Context, id uuid.UUID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, apperr.ErrNotFound
	}
	cp := *u
	cp.OwnedFrames = append([]models.Frame{}, u.OwnedFrames...)
	return cp, nil
}

func (m *memStore) Rewards(context.Context) ([]models.RewardItem, error) {
	var out []models.RewardItem
	for _, r := range m.rewards {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memStore) Reward(_ context.Context, id int64) (models.RewardItem, error) {
	r, ok := m.rewards[id]
	if !ok {
		return models.RewardItem{}, apperr.ErrNotFound
	}
	return *r, nil
}

func (m *memStore) CreateReward(_ context.Context, r models.RewardItem) (int64, error) {
	r.ID = int64(len(m.rewards) + 1)
	m.rewards[r.ID] = &r
	return r.ID, nil
}

func (m *memStore) ExecutePurchase(_ context.Context, p models.Purchase) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[p.BuyerID]
	item := m.rewards[p.Item.ID]
	if u.Coins < p.Price {
		return 0, apperr.ErrInsufficientFunds
	}
	if u.Coupons+p.CouponDelta < 0 {
		return 0, apperr.ErrConflict
	}
	if p.Frame != nil && u.OwnsFrame(*p.Frame) {
		return 0, models.ErrFrameOwned
	}
	if item.Stock <= 0 {
		return 0, models.ErrOutOfStock
	}
	u.Coins -= p.Price
	u.Coupons += p.CouponDelta
	if p.Frame != nil {
		u.OwnedFrames = append(u.OwnedFrames, *p.Frame)
		u.Frame = *p.Frame
	}
	if item.Stock < models.UnlimitedStock {
		item.Stock--
	}
	m.purchases++
	id := int64(len(m.redemptions) + 1)
	m.redemptions[id] = &models.Redemption{ID: id, StudentID: p.BuyerID, RewardID: item.ID, CostAtTime: p.Price, Status: p.Status}
	return id, nil
}

func (m *memStore) Redemption(_ context.Context, id int64) (models.Redemption, error) {
	r, ok := m.redemptions[id]
	if !ok {
		return models.Redemption{}, apperr.ErrNotFound
	}
	return *r, nil
}

func (m *memStore) MarkDelivered(_ context.Context, id int64) error {
	r := m.redemptions[id]
	if r.Status != models.Pending {
		return apperr.ErrConflict
	}
	r.Status = models.Delivered
	return nil
}

func (m *memStore) PendingOrders(_ context.Context, className string) ([]models.Order, error) {
	var out []models.Order
	for _, r := range m.redemptions {
		u := m.users[r.StudentID]
		if r.Status != models.Pending || (className != "" && u.ClassName != className) {
			continue
		}
		out = append(out, models.Order{Redemption: *r, StudentName: u.FullName, ClassName: u.ClassName})
	}
	return out, nil
}

func (m *memStore) EquipFrame(_ context.Context, id uuid.UUID, f models.Frame) error {
	m.users[id].Frame = f
	return nil
}

func (m *memStore) SetAvatar(_ context.Context, id uuid.UUID, code string) error {
	m.users[id].AvatarCode = code
	return nil
}

func (m *memStore) addUser(u models.User) models.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.ClassName == "" {
		u.ClassName = "6A1"
	}
	m.users[u.ID] = &u
	return u
}

func (m *memStore) addReward(r models.RewardItem) models.RewardItem {
	r.ID = int64(len(m.rewards) + 1)
	m.rewards[r.ID] = &r
	return r
}

func TestFinalPrice(t *testing.T) {
	require.Equal(t, 95, FinalPrice(100, models.CategoryItem, 1))
	require.Equal(t, 100, FinalPrice(100, models.CategoryItem, 0))
	require.Equal(t, 100, FinalPrice(100, models.CategoryCoupon, 3))
	require.Equal(t, 28, FinalPrice(30, models.CategoryFrameGold, 2), "округление вниз")
}

func TestBuy_ItemWithCoupon(t *testing.T) {
	m := newMemStore()
	buyer := m.addUser(models.User{Role: models.Student, Coins: 200, Coupons: 1})
	item := m.addReward(models.RewardItem{Name: "Наклейка", Cost: 100, Stock: 5, Category: models.CategoryItem})
	svc := New(m, nil)

	q, err := svc.Buy(context.Background(), buyer.ID, item.ID)
	require.NoError(t, err)
	require.Equal(t, Applied, q.State)
	require.Equal(t, 95, q.Price)
	require.True(t, q.UsesCoupon)

	u := m.users[buyer.ID]
	require.Equal(t, 105, u.Coins)
	require.Zero(t, u.Coupons)
	require.Equal(t, 4, m.rewards[item.ID].Stock)
	require.Equal(t, models.Pending, m.redemptions[q.RedemptionID].Status)
}

func TestBuy_CouponIsNeverDiscountedAndIncrements(t *testing.T) {
	m := newMemStore()
	buyer := m.addUser(models.User{Role: models.Student, Coins: 100, Coupons: 2})
	item := m.addReward(models.RewardItem{Cost: 100, Stock: 999, Category: models.CategoryCoupon})
	svc := New(m, nil)

	q, err := svc.Buy(context.Background(), buyer.ID, item.ID)
	require.NoError(t, err)
	require.Equal(t, 100, q.Price)
	require.False(t, q.UsesCoupon)
	require.Equal(t, 3, m.users[buyer.ID].Coupons)
	require.Equal(t, 999, m.rewards[item.ID].Stock, "безлимитный склад не уменьшается")
	require.Equal(t, models.Delivered, m.redemptions[q.RedemptionID].Status)
}

func TestBuy_FrameGrantedAndEquipped(t *testing.T) {
	m := newMemStore()
	buyer := m.addUser(models.User{Role: models.Student, Coins: 600})
	gold := m.addReward(models.RewardItem{Cost: 500, Stock: 999, Category: models.CategoryFrameGold})
	custom := m.addReward(models.RewardItem{Cost: 50, Stock: 3, Category: models.CategoryFrameCustom, ImageURL: "https://img.example/dragon.png"})
	svc := New(m, nil)
	ctx := context.Background()

	_, err := svc.Buy(ctx, buyer.ID, gold.ID)
	require.NoError(t, err)
	u := m.users[buyer.ID]
	require.Equal(t, models.PresetFrame(models.FrameGold), u.Frame)

	_, err = svc.Buy(ctx, buyer.ID, custom.ID)
	require.NoError(t, err)
	require.Equal(t, models.CustomFrame("https://img.example/dragon.png"), u.Frame)
	require.Len(t, u.OwnedFrames, 2)
	require.Equal(t, 2, m.rewards[custom.ID].Stock)
}

func TestQuote_OwnedFrameRejectedBeforeAnyWrite(t *testing.T) {
	m := newMemStore()
	buyer := m.addUser(models.User{
		Role: models.Student, Coins: 1000,
		OwnedFrames: []models.Frame{models.PresetFrame(models.FrameSilver)},
	})
	item := m.addReward(models.RewardItem{Cost: 300, Stock: 999, Category: models.CategoryFrameSilver})
	svc := New(m, nil)

	_, err := svc.Buy(context.Background(), buyer.ID, item.ID)
	require.ErrorIs(t, err, models.ErrFrameOwned)
	require.Equal(t, 1000, m.users[buyer.ID].Coins)
	require.Len(t, m.users[buyer.ID].OwnedFrames, 1)
	require.Zero(t, m.purchases)
}

func TestConfirm_InsufficientFundsAborts(t *testing.T) {
	m := newMemStore()
	buyer := m.addUser(models.User{Role: models.Student, Coins: 94, Coupons: 1})
	item := m.addReward(models.RewardItem{Cost: 100, Stock: 1, Category: models.CategoryItem})
	svc := New(m, nil)

	q, err := svc.Quote(*m.users[buyer.ID], *m.rewards[item.ID])
	require.NoError(t, err)
	require.Equal(t, 95, q.Price)

	err = svc.Confirm(q, *m.users[buyer.ID])
	require.ErrorIs(t, err, apperr.ErrInsufficientFunds)
	require.Equal(t, Aborted, q.State)
	require.ErrorIs(t, svc.Apply(context.Background(), q), ErrNotConfirmed)
	require.Equal(t, 94, m.users[buyer.ID].Coins)
	require.Equal(t, 1, m.rewards[item.ID].Stock)
}

func TestQuote_OutOfStock(t *testing.T) {
	svc := New(newMemStore(), nil)
	_, err := svc.Quote(models.User{Coins: 100}, models.RewardItem{Cost: 10, Stock: 0})
	require.ErrorIs(t, err, models.ErrOutOfStock)
}

func TestDeliver_Once(t *testing.T) {
	m := newMemStore()
	buyer := m.addUser(models.User{Role: models.Student, Coins: 50})
	item := m.addReward(models.RewardItem{Cost: 30, Stock: 2, Category: models.CategoryItem})
	teacher := m.addUser(models.User{Role: models.Teacher})
	monitor := m.addUser(models.User{Role: models.Monitor})
	svc := New(m, nil)
	ctx := context.Background()

	q, err := svc.Buy(ctx, buyer.ID, item.ID)
	require.NoError(t, err)

	orders, err := svc.PendingOrders(ctx, teacher)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	require.ErrorIs(t, svc.Deliver(ctx, monitor, q.RedemptionID), apperr.ErrForbidden)
	require.NoError(t, svc.Deliver(ctx, teacher, q.RedemptionID))
	require.ErrorIs(t, svc.Deliver(ctx, teacher, q.RedemptionID), apperr.ErrConflict)

	orders, err = svc.PendingOrders(ctx, teacher)
	require.NoError(t, err)
	require.Empty(t, orders)

	_, err = svc.PendingOrders(ctx, monitor)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCreateReward(t *testing.T) {
	m := newMemStore()
	admin := models.User{ID: uuid.New(), Role: models.SuperAdmin}
	svc := New(m, nil)
	ctx := context.Background()

	_, err := svc.CreateReward(ctx, models.User{Role: models.Teacher}, NewReward{Name: "x", Cost: 1, Stock: 1})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.CreateReward(ctx, admin, NewReward{Name: "", Cost: -1})
	require.True(t, apperr.IsValidation(err))

	_, err = svc.CreateReward(ctx, admin, NewReward{Name: "Рамка", Cost: 10, Stock: 999, Category: models.CategoryFrameCustom})
	require.True(t, apperr.IsValidation(err))

	item, err := svc.CreateReward(ctx, admin, NewReward{Name: "  Ручка   с гелем ", Cost: 40, Stock: 10})
	require.NoError(t, err)
	require.Equal(t, "Ручка с гелем", item.Name)
	require.Equal(t, models.DefaultRewardImage, item.ImageURL)
	require.Equal(t, models.CategoryItem, item.Category)
	require.Equal(t, models.Common, item.Rarity)
}

func TestCosmetics(t *testing.T) {
	m := newMemStore()
	u := m.addUser(models.User{Role: models.Student, OwnedFrames: []models.Frame{models.PresetFrame(models.FrameBronze)}})
	svc := New(m, nil)
	ctx := context.Background()

	require.True(t, apperr.IsValidation(svc.SetAvatar(ctx, u.ID, "dragon99")))
	require.NoError(t, svc.SetAvatar(ctx, u.ID, "cat03"))
	require.Equal(t, "cat03", m.users[u.ID].AvatarCode)
	require.Contains(t, AvatarURL("cat03"), "set=set4")

	require.True(t, apperr.IsValidation(svc.EquipFrame(ctx, u.ID, models.PresetFrame(models.FrameGold))))
	require.NoError(t, svc.EquipFrame(ctx, u.ID, models.PresetFrame(models.FrameBronze)))
	require.Equal(t, models.PresetFrame(models.FrameBronze), m.users[u.ID].Frame)
	require.NoError(t, svc.EquipFrame(ctx, u.ID, models.Frame{}))
	require.True(t, m.users[u.ID].Frame.IsZero())
}
