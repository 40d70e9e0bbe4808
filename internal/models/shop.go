package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnlimitedStock — склад от этого значения и выше не уменьшается.
const UnlimitedStock = 900

// DefaultRewardImage — картинка товара, если ссылка не задана.
const DefaultRewardImage = "https://cdn-icons-png.flaticon.com/512/4508/4508640.png"

var (
	ErrOutOfStock = errors.New("товар закончился")
	ErrFrameOwned = errors.New("эта рамка уже есть в коллекции")
)

type Rarity string

const (
	Common    Rarity = "COMMON"
	Rare      Rarity = "RARE"
	Epic      Rarity = "EPIC"
	Legendary Rarity = "LEGENDARY"
)

type Category string

const (
	CategoryItem        Category = "ITEM"
	CategoryFrameGold   Category = "FRAME_GOLD"
	CategoryFrameSilver Category = "FRAME_SILVER"
	CategoryFrameBronze Category = "FRAME_BRONZE"
	CategoryFrameCustom Category = "FRAME_CUSTOM"
	CategoryCoupon      Category = "COUPON_VIP"
)

func (c Category) IsFrame() bool { return strings.HasPrefix(string(c), "FRAME_") }

func (c Category) IsCoupon() bool { return c == CategoryCoupon }

// IsCosmetic — рамки и купоны выдаются сразу, без участия учителя.
func (c Category) IsCosmetic() bool { return c.IsFrame() || c.IsCoupon() }

type RewardItem struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Cost      int       `db:"cost"`
	Stock     int       `db:"stock"`
	Rarity    Rarity    `db:"rarity"`
	Category  Category  `db:"category"`
	ImageURL  string    `db:"image_url"`
	CreatedAt time.Time `db:"created_at"`
}

func (r RewardItem) Unlimited() bool { return r.Stock >= UnlimitedStock }

// GrantedFrame — рамка, которую получает покупатель; ok=false для прочих товаров.
func (r RewardItem) GrantedFrame() (Frame, bool) {
	switch r.Category {
	case CategoryFrameGold:
		return PresetFrame(FrameGold), true
	case CategoryFrameSilver:
		return PresetFrame(FrameSilver), true
	case CategoryFrameBronze:
		return PresetFrame(FrameBronze), true
	case CategoryFrameCustom:
		return CustomFrame(r.ImageURL), true
	}
	return Frame{}, false
}

type RedemptionStatus string

const (
	Pending   RedemptionStatus = "PENDING"
	Delivered RedemptionStatus = "DELIVERED"
)

type Redemption struct {
	ID          int64            `db:"id"`
	StudentID   uuid.UUID        `db:"student_id"`
	RewardID    int64            `db:"reward_id"`
	CostAtTime  int              `db:"cost_at_time"`
	Status      RedemptionStatus `db:"status"`
	CreatedAt   time.Time        `db:"created_at"`
	DeliveredAt *time.Time       `db:"delivered_at"`
}

// Order — заявка на выдачу с именами для списка учителя.
type Order struct {
	Redemption
	StudentName string `db:"student_name"`
	ClassName   string `db:"class_name"`
	RewardName  string `db:"reward_name"`
}

// Purchase — всё, что нужно записать одной транзакцией при покупке.
type Purchase struct {
	BuyerID     uuid.UUID
	Item        RewardItem
	Price       int
	CouponDelta int
	Frame       *Frame
	Status      RedemptionStatus
}
