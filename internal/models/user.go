package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	Student     Role = "STUDENT"
	GroupLeader Role = "GROUP_LEADER"
	Monitor     Role = "MONITOR"
	Teacher     Role = "TEACHER"
	SuperAdmin  Role = "SUPER_ADMIN"
)

// AllRoles — в порядке «старшинства» для списков ростера.
var AllRoles = []Role{SuperAdmin, Teacher, Monitor, GroupLeader, Student}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllRoles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("неизвестная роль %q", s)
}

// Priority: меньше — выше в списке.
func (r Role) Priority() int {
	for i, known := range AllRoles {
		if r == known {
			return i
		}
	}
	return len(AllRoles)
}

// IsStaff — учителя и администраторы не участвуют в рейтинге.
func (r Role) IsStaff() bool { return r == Teacher || r == SuperAdmin }

const (
	// StartingPoints — баланс при регистрации и после ежемесячного сброса.
	StartingPoints = 100
	MaxGroupNumber = 8
)

type User struct {
	ID          uuid.UUID `db:"id"`
	Username    string    `db:"username"`
	TelegramID  *int64    `db:"telegram_id"`
	FullName    string    `db:"full_name"`
	ClassName   string    `db:"class_name"`   // "" — класс ещё не выбран
	GroupNumber int       `db:"group_number"` // 0 — без группы
	GroupLocked bool      `db:"is_group_locked"`
	Role        Role      `db:"role"`
	Points      int       `db:"current_points"`
	Coins       int       `db:"wallet_coins"`
	Coupons     int       `db:"coupon_count"`
	AvatarCode  string    `db:"avatar_code"`
	Frame       Frame     // надетая рамка
	OwnedFrames []Frame
	Badges      []string  `db:"unlocked_badges"`
	CreatedAt   time.Time `db:"created_at"`
}

func (u User) OwnsFrame(f Frame) bool {
	for _, o := range u.OwnedFrames {
		if o == f {
			return true
		}
	}
	return false
}

func (u User) HasBadge(id string) bool {
	for _, b := range u.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// UserFilter — выборка профилей; пустые поля не фильтруют.
type UserFilter struct {
	ClassName    string
	ExcludeStaff bool
}

// FrameKind различает встроенные рамки и рамки-картинки.
type FrameKind string

const (
	FramePreset FrameKind = "PRESET"
	FrameCustom FrameKind = "CUSTOM"
)

const (
	FrameGold   = "GOLD"
	FrameSilver = "SILVER"
	FrameBronze = "BRONZE"
)

// Frame — владение/экипировка рамки аватара. Нулевое значение — «без рамки».
type Frame struct {
	Kind  FrameKind
	Value string
}

func PresetFrame(code string) Frame { return Frame{Kind: FramePreset, Value: code} }

func CustomFrame(url string) Frame { return Frame{Kind: FrameCustom, Value: url} }

func (f Frame) IsZero() bool { return f.Kind == "" }

func (f Frame) String() string {
	if f.IsZero() {
		return "NONE"
	}
	return string(f.Kind) + ":" + f.Value
}

// ParseFrame разбирает "NONE", "GOLD", "PRESET:GOLD" или "CUSTOM:https://...".
func ParseFrame(s string) (Frame, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "NONE") {
		return Frame{}, nil
	}
	kind, value, ok := strings.Cut(s, ":")
	if ok && strings.EqualFold(kind, string(FrameCustom)) {
		if value == "" {
			return Frame{}, fmt.Errorf("пустая ссылка рамки")
		}
		return CustomFrame(value), nil
	}
	if ok && strings.EqualFold(kind, string(FramePreset)) {
		s = value
	}
	code := strings.ToUpper(s)
	switch code {
	case FrameGold, FrameSilver, FrameBronze:
		return PresetFrame(code), nil
	}
	return Frame{}, fmt.Errorf("неизвестная рамка %q", s)
}
