package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
)

// Store — методный фасад над функциями пакета для сервисов,
// которые принимают хранилище через интерфейс.
type Store struct {
	DB *sql.DB
}

func NewStore(database *sql.DB) *Store { return &Store{DB: database} }

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	return GetUser(ctx, s.DB, id)
}

func (s *Store) ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	return ListUsers(ctx, s.DB, f)
}

func (s *Store) CreateProfile(ctx context.Context, u models.User, passwordHash string) error {
	return CreateProfile(ctx, s.DB, u, passwordHash)
}

func (s *Store) Credentials(ctx context.Context, username string) (models.User, string, error) {
	return GetCredentials(ctx, s.DB, username)
}

func (s *Store) PasswordHash(ctx context.Context, id uuid.UUID) (string, error) {
	return GetPasswordHash(ctx, s.DB, id)
}

func (s *Store) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return SetPasswordHash(ctx, s.DB, id, hash)
}

func (s *Store) UserByTelegram(ctx context.Context, telegramID int64) (models.User, error) {
	return GetUserByTelegramID(ctx, s.DB, telegramID)
}

func (s *Store) BindTelegram(ctx context.Context, id uuid.UUID, telegramID int64) error {
	return BindTelegram(ctx, s.DB, id, telegramID)
}

func (s *Store) SetRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	return SetRole(ctx, s.DB, id, role)
}

func (s *Store) SetGroup(ctx context.Context, id uuid.UUID, group int, locked bool) error {
	return SetGroup(ctx, s.DB, id, group, locked)
}

func (s *Store) SetClass(ctx context.Context, id uuid.UUID, className string) error {
	return SetClass(ctx, s.DB, id, className)
}

func (s *Store) JoinClass(ctx context.Context, id uuid.UUID, className string) error {
	return JoinClass(ctx, s.DB, id, className)
}

func (s *Store) ChooseGroup(ctx context.Context, id uuid.UUID, group int) error {
	return ChooseGroup(ctx, s.DB, id, group)
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return DeleteUser(ctx, s.DB, id)
}

func (s *Store) SetAvatar(ctx context.Context, id uuid.UUID, code string) error {
	return SetAvatar(ctx, s.DB, id, code)
}

func (s *Store) EquipFrame(ctx context.Context, id uuid.UUID, f models.Frame) error {
	return EquipFrame(ctx, s.DB, id, f)
}

func (s *Store) UnlockBadges(ctx context.Context, id uuid.UUID, badges []string, bonusCoins int) error {
	return UnlockBadges(ctx, s.DB, id, badges, bonusCoins)
}

func (s *Store) ApplyDelta(ctx context.Context, e models.AuditEntry) (int, error) {
	return ApplyDelta(ctx, s.DB, e)
}

func (s *Store) GrantCoins(ctx context.Context, id uuid.UUID, coins int, note models.AuditEntry) error {
	return GrantCoins(ctx, s.DB, id, coins, note)
}

func (s *Store) ResetMonth(ctx context.Context, baseline int, note models.AuditEntry) (int64, error) {
	return ResetMonth(ctx, s.DB, baseline, note)
}

func (s *Store) PointLogs(ctx context.Context, id uuid.UUID) ([]models.AuditEntry, error) {
	return ListPointLogs(ctx, s.DB, id)
}

func (s *Store) RecentLogs(ctx context.Context, className string, limit int) ([]models.AuditEntryWithNames, error) {
	return ListRecentLogs(ctx, s.DB, className, limit)
}

func (s *Store) Rules(ctx context.Context, activeOnly bool) ([]models.Rule, error) {
	return ListRules(ctx, s.DB, activeOnly)
}

func (s *Store) Rewards(ctx context.Context) ([]models.RewardItem, error) {
	return ListRewards(ctx, s.DB)
}

func (s *Store) Reward(ctx context.Context, id int64) (models.RewardItem, error) {
	return GetReward(ctx, s.DB, id)
}

func (s *Store) CreateReward(ctx context.Context, r models.RewardItem) (int64, error) {
	return CreateReward(ctx, s.DB, r)
}

func (s *Store) ExecutePurchase(ctx context.Context, p models.Purchase) (int64, error) {
	return ExecutePurchase(ctx, s.DB, p)
}

func (s *Store) Redemption(ctx context.Context, id int64) (models.Redemption, error) {
	return GetRedemption(ctx, s.DB, id)
}

func (s *Store) MarkDelivered(ctx context.Context, id int64) error {
	return MarkDelivered(ctx, s.DB, id)
}

func (s *Store) PendingOrders(ctx context.Context, className string) ([]models.Order, error) {
	return ListPendingOrders(ctx, s.DB, className)
}

func (s *Store) Classes(ctx context.Context) ([]models.Class, error) {
	return ListClasses(ctx, s.DB)
}

func (s *Store) ClassByName(ctx context.Context, name string) (*models.Class, error) {
	return GetClassByName(ctx, s.DB, name)
}

func (s *Store) CreateClass(ctx context.Context, name string) (models.Class, error) {
	return CreateClass(ctx, s.DB, name)
}

func (s *Store) DeleteClass(ctx context.Context, name string) error {
	return DeleteClass(ctx, s.DB, name)
}
