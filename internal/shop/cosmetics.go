package shop

import (
	"context"
	"fmt"
	"strings"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
)

// Avatars — доступные коды аватаров.
var Avatars = []string{
	"robot01", "robot02", "robot03", "robot04",
	"monster01", "monster02", "monster03", "monster04",
	"cat01", "cat02", "cat03", "cat04",
}

// AvatarURL — картинка аватара по коду.
func AvatarURL(code string) string {
	set := "set1"
	switch {
	case strings.HasPrefix(code, "monster"):
		set = "set2"
	case strings.HasPrefix(code, "cat"):
		set = "set4"
	}
	return fmt.Sprintf("https://robohash.org/%s.png?set=%s&size=150x150", code, set)
}

func IsAvatar(code string) bool {
	for _, a := range Avatars {
		if a == code {
			return true
		}
	}
	return false
}

func (s *Service) SetAvatar(ctx context.Context, userID uuid.UUID, code string) error {
	if !IsAvatar(code) {
		return apperr.Invalid("avatar", "такого аватара нет")
	}
	return s.store.SetAvatar(ctx, userID, code)
}

// EquipFrame надевает рамку из коллекции; нулевая рамка снимает текущую.
func (s *Service) EquipFrame(ctx context.Context, userID uuid.UUID, f models.Frame) error {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !f.IsZero() && !u.OwnsFrame(f) {
		return apperr.Invalid("frame", "этой рамки нет в коллекции")
	}
	return s.store.EquipFrame(ctx, userID, f)
}
