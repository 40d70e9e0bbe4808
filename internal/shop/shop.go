// Package shop — обмен монет на призы, рамки и купоны.
//
// Покупка проходит состояния Quoted → Confirmed → Applied либо Quoted → Aborted.
// Запись в хранилище выполняется один раз, на шаге Apply, одной транзакцией.
package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/classroom-league/internal/access"
	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/metrics"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	Rewards(ctx context.Context) ([]models.RewardItem, error)
	Reward(ctx context.Context, id int64) (models.RewardItem, error)
	CreateReward(ctx context.Context, r models.RewardItem) (int64, error)
	ExecutePurchase(ctx context.Context, p models.Purchase) (int64, error)
	Redemption(ctx context.Context, id int64) (models.Redemption, error)
	MarkDelivered(ctx context.Context, id int64) error
	PendingOrders(ctx context.Context, className string) ([]models.Order, error)
	EquipFrame(ctx context.Context, id uuid.UUID, f models.Frame) error
	SetAvatar(ctx context.Context, id uuid.UUID, code string) error
}

// CouponDiscountPercent — скидка по купону.
const CouponDiscountPercent = 5

var ErrNotConfirmed = errors.New("покупка не подтверждена")

type Service struct {
	store Store
	log   *zap.Logger
}

func New(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log.Named("shop")}
}

type State int

const (
	Quoted State = iota
	Confirmed
	Applied
	Aborted
)

func (s State) String() string {
	switch s {
	case Quoted:
		return "quoted"
	case Confirmed:
		return "confirmed"
	case Applied:
		return "applied"
	}
	return "aborted"
}

// Quote — одна попытка покупки.
type Quote struct {
	BuyerID      uuid.UUID
	Item         models.RewardItem
	Price        int
	UsesCoupon   bool
	Frame        *models.Frame
	State        State
	RedemptionID int64
}

// FinalPrice — цена с учётом купона; купоны сами по себе скидку не получают.
func FinalPrice(cost int, category models.Category, coupons int) int {
	if category.IsCoupon() || coupons <= 0 {
		return cost
	}
	return cost * (100 - CouponDiscountPercent) / 100
}

// Quote считает цену и отсеивает заведомо невозможные покупки до подтверждения.
func (s *Service) Quote(buyer models.User, item models.RewardItem) (*Quote, error) {
	if item.Stock <= 0 {
		metrics.PurchaseAborts.WithLabelValues("out_of_stock").Inc()
		return nil, models.ErrOutOfStock
	}
	q := &Quote{
		BuyerID: buyer.ID,
		Item:    item,
		Price:   FinalPrice(item.Cost, item.Category, buyer.Coupons),
		State:   Quoted,
	}
	q.UsesCoupon = buyer.Coupons > 0 && !item.Category.IsCoupon()
	if f, ok := item.GrantedFrame(); ok {
		if buyer.OwnsFrame(f) {
			metrics.PurchaseAborts.WithLabelValues("frame_owned").Inc()
			return nil, models.ErrFrameOwned
		}
		q.Frame = &f
	}
	return q, nil
}

// Confirm — явное согласие покупателя; денег должно хватать на итоговую цену.
func (s *Service) Confirm(q *Quote, buyer models.User) error {
	if q.State != Quoted {
		return fmt.Errorf("confirm in state %s: %w", q.State, apperr.ErrConflict)
	}
	if buyer.ID != q.BuyerID {
		q.State = Aborted
		return apperr.ErrForbidden
	}
	if buyer.Coins < q.Price {
		q.State = Aborted
		metrics.PurchaseAborts.WithLabelValues("insufficient_funds").Inc()
		return apperr.ErrInsufficientFunds
	}
	q.State = Confirmed
	return nil
}

// Apply проводит подтверждённую покупку. При любой ошибке ничего не меняется.
func (s *Service) Apply(ctx context.Context, q *Quote) error {
	if q.State != Confirmed {
		return ErrNotConfirmed
	}
	p := models.Purchase{
		BuyerID: q.BuyerID,
		Item:    q.Item,
		Price:   q.Price,
		Frame:   q.Frame,
		Status:  models.Pending,
	}
	switch {
	case q.Item.Category.IsCoupon():
		p.CouponDelta = 1
	case q.UsesCoupon:
		p.CouponDelta = -1
	}
	if q.Item.Category.IsCosmetic() {
		p.Status = models.Delivered
	}

	id, err := s.store.ExecutePurchase(ctx, p)
	if err != nil {
		q.State = Aborted
		metrics.PurchaseAborts.WithLabelValues(abortReason(err)).Inc()
		s.log.Warn("purchase aborted", zap.Stringer("buyer", q.BuyerID), zap.Int64("item", q.Item.ID), zap.Error(err))
		return err
	}
	q.State = Applied
	q.RedemptionID = id
	metrics.Purchases.WithLabelValues(string(q.Item.Category)).Inc()
	s.log.Info("purchase applied",
		zap.Stringer("buyer", q.BuyerID),
		zap.Int64("item", q.Item.ID),
		zap.Int("price", q.Price),
		zap.Bool("coupon", q.UsesCoupon),
	)
	return nil
}

// Buy — Quote, Confirm и Apply подряд для уже полученного согласия.
func (s *Service) Buy(ctx context.Context, buyerID uuid.UUID, itemID int64) (*Quote, error) {
	buyer, err := s.store.GetUser(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	item, err := s.store.Reward(ctx, itemID)
	if err != nil {
		return nil, err
	}
	q, err := s.Quote(buyer, item)
	if err != nil {
		return nil, err
	}
	if err := s.Confirm(q, buyer); err != nil {
		return q, err
	}
	return q, s.Apply(ctx, q)
}

// QuoteByID — предварительный расчёт для экрана подтверждения.
func (s *Service) QuoteByID(ctx context.Context, buyerID uuid.UUID, itemID int64) (*Quote, error) {
	buyer, err := s.store.GetUser(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	item, err := s.store.Reward(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.Quote(buyer, item)
}

func abortReason(err error) string {
	switch {
	case errors.Is(err, apperr.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, models.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, models.ErrFrameOwned):
		return "frame_owned"
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	}
	return "store"
}

// Deliver отмечает заявку выданной; повторная выдача невозможна.
func (s *Service) Deliver(ctx context.Context, actor models.User, redemptionID int64) error {
	r, err := s.store.Redemption(ctx, redemptionID)
	if err != nil {
		return err
	}
	buyer, err := s.store.GetUser(ctx, r.StudentID)
	if err != nil {
		return err
	}
	if !access.InScope(actor, buyer) {
		return fmt.Errorf("%s: %w", access.FulfillRedemption, apperr.ErrForbidden)
	}
	if err := access.RequireEdit(actor, buyer, access.FulfillRedemption); err != nil {
		return err
	}
	if r.Status == models.Delivered {
		return fmt.Errorf("заявка #%d уже выдана: %w", r.ID, apperr.ErrConflict)
	}
	if err := s.store.MarkDelivered(ctx, redemptionID); err != nil {
		return err
	}
	s.log.Info("redemption delivered", zap.Int64("id", redemptionID), zap.Stringer("actor", actor.ID))
	return nil
}

// PendingOrders — невыданные призы, видимые исполнителю.
func (s *Service) PendingOrders(ctx context.Context, actor models.User) ([]models.Order, error) {
	if err := access.Require(actor, access.FulfillRedemption); err != nil {
		return nil, err
	}
	class, all := access.ClassScope(actor)
	if !all && class == "" {
		return nil, nil
	}
	return s.store.PendingOrders(ctx, class)
}

func (s *Service) ListRewards(ctx context.Context) ([]models.RewardItem, error) {
	return s.store.Rewards(ctx)
}

func normalizeName(s string) string { return strings.Join(strings.Fields(s), " ") }
