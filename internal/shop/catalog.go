package shop

import (
	"context"

	"github.com/Spok95/classroom-league/internal/access"
	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/Spok95/classroom-league/internal/validate"
	"go.uber.org/zap"
)

type NewReward struct {
	Name     string          `validate:"required,max=120" label:"название"`
	Cost     int             `validate:"gte=0" label:"цена"`
	Stock    int             `validate:"gte=0" label:"количество"`
	Rarity   models.Rarity   `validate:"omitempty,oneof=COMMON RARE EPIC LEGENDARY" label:"редкость"`
	Category models.Category `validate:"omitempty,oneof=ITEM FRAME_GOLD FRAME_SILVER FRAME_BRONZE FRAME_CUSTOM COUPON_VIP" label:"категория"`
	ImageURL string          `validate:"omitempty,url" label:"картинка"`
}

// CreateReward добавляет товар в каталог (только администратор).
func (s *Service) CreateReward(ctx context.Context, actor models.User, in NewReward) (models.RewardItem, error) {
	if err := access.Require(actor, access.CatalogManage); err != nil {
		return models.RewardItem{}, err
	}
	in.Name = normalizeName(in.Name)
	if err := validate.Struct(in); err != nil {
		return models.RewardItem{}, err
	}
	if in.Category == models.CategoryFrameCustom && in.ImageURL == "" {
		return models.RewardItem{}, apperr.Invalid("image_url", "для своей рамки нужна ссылка на картинку")
	}

	item := models.RewardItem{
		Name:     in.Name,
		Cost:     in.Cost,
		Stock:    in.Stock,
		Rarity:   in.Rarity,
		Category: in.Category,
		ImageURL: in.ImageURL,
	}
	if item.Rarity == "" {
		item.Rarity = models.Common
	}
	if item.Category == "" {
		item.Category = models.CategoryItem
	}
	if item.ImageURL == "" {
		item.ImageURL = models.DefaultRewardImage
	}
	id, err := s.store.CreateReward(ctx, item)
	if err != nil {
		return models.RewardItem{}, err
	}
	item.ID = id
	s.log.Info("reward created", zap.Int64("id", id), zap.String("name", item.Name), zap.String("category", string(item.Category)))
	return item, nil
}
