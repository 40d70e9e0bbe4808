// Package auth — учётные записи: регистрация, вход по логину и паролю, привязка Telegram-чата.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/Spok95/classroom-league/internal/validate"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials — неверный логин или пароль; какой из двух, не сообщаем.
var ErrBadCredentials = errors.New("неверный логин или пароль")

type Store interface {
	CreateProfile(ctx context.Context, u models.User, passwordHash string) error
	Credentials(ctx context.Context, username string) (models.User, string, error)
	PasswordHash(ctx context.Context, id uuid.UUID) (string, error)
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UserByTelegram(ctx context.Context, telegramID int64) (models.User, error)
	BindTelegram(ctx context.Context, id uuid.UUID, telegramID int64) error
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
}

type Registration struct {
	Username string `validate:"required,min=3,max=32" label:"логин"`
	Password string `validate:"required,min=6,max=72" label:"пароль"`
	FullName string `validate:"required,max=120" label:"имя"`
}

type Service struct {
	store    Store
	log      *zap.Logger
	starting int
	cost     int
}

type Option func(*Service)

// WithStartingPoints — баланс нового профиля.
func WithStartingPoints(n int) Option {
	return func(s *Service) { s.starting = n }
}

// WithHashCost — стоимость bcrypt; в тестах берут bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func New(store Store, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{store: store, log: log.Named("auth"), starting: models.StartingPoints, cost: bcrypt.DefaultCost}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NormalizeUsername: " Ivan Petrov " → "ivanpetrov".
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// Register создаёт профиль ученика без класса и группы.
func (s *Service) Register(ctx context.Context, r Registration) (models.User, error) {
	return s.create(ctx, r, models.Student)
}

// CreateAdmin — первичная учётная запись администратора, только из консоли оператора.
func (s *Service) CreateAdmin(ctx context.Context, r Registration) (models.User, error) {
	return s.create(ctx, r, models.SuperAdmin)
}

func (s *Service) create(ctx context.Context, r Registration, role models.Role) (models.User, error) {
	r.Username = NormalizeUsername(r.Username)
	r.FullName = strings.Join(strings.Fields(r.FullName), " ")
	if err := validate.Struct(r); err != nil {
		return models.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if err != nil {
		return models.User{}, err
	}
	u := models.User{
		ID:       uuid.New(),
		Username: r.Username,
		FullName: r.FullName,
		Role:     role,
		Points:   s.starting,
		Badges:   []string{},
	}
	if err := s.store.CreateProfile(ctx, u, string(hash)); err != nil {
		return models.User{}, err
	}
	s.log.Info("profile registered", zap.Stringer("id", u.ID), zap.String("username", u.Username), zap.String("role", string(role)))
	return u, nil
}

// Login проверяет пароль и возвращает профиль.
func (s *Service) Login(ctx context.Context, username, password string) (models.User, error) {
	u, hash, err := s.store.Credentials(ctx, NormalizeUsername(username))
	if errors.Is(err, apperr.ErrNotFound) {
		return models.User{}, ErrBadCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return models.User{}, ErrBadCredentials
	}
	return u, nil
}

// ChangePassword требует текущий пароль.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	hash, err := s.store.PasswordHash(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(current)) != nil {
		return ErrBadCredentials
	}
	if len(next) < 6 {
		return apperr.Invalid("password", "пароль не короче 6 символов")
	}
	fresh, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return err
	}
	return s.store.SetPasswordHash(ctx, id, string(fresh))
}

// BindTelegram — вход из чата: проверка пароля и привязка чата к профилю.
func (s *Service) BindTelegram(ctx context.Context, telegramID int64, username, password string) (models.User, error) {
	u, err := s.Login(ctx, username, password)
	if err != nil {
		return models.User{}, err
	}
	if err := s.store.BindTelegram(ctx, u.ID, telegramID); err != nil {
		return models.User{}, err
	}
	u.TelegramID = &telegramID
	s.log.Info("telegram bound", zap.Stringer("id", u.ID), zap.Int64("chat", telegramID))
	return u, nil
}

// ByTelegram — профиль, привязанный к чату, или apperr.ErrNotFound.
func (s *Service) ByTelegram(ctx context.Context, telegramID int64) (models.User, error) {
	return s.store.UserByTelegram(ctx, telegramID)
}
