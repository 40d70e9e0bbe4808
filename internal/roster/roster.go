// Package roster — состав классов: роли, группы, классы и удаление профилей.
package roster

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Spok95/classroom-league/internal/access"
	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, error)
	SetRole(ctx context.Context, id uuid.UUID, role models.Role) error
	SetGroup(ctx context.Context, id uuid.UUID, group int, locked bool) error
	SetClass(ctx context.Context, id uuid.UUID, className string) error
	JoinClass(ctx context.Context, id uuid.UUID, className string) error
	ChooseGroup(ctx context.Context, id uuid.UUID, group int) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	Classes(ctx context.Context) ([]models.Class, error)
	ClassByName(ctx context.Context, name string) (*models.Class, error)
	CreateClass(ctx context.Context, name string) (models.Class, error)
	DeleteClass(ctx context.Context, name string) error
}

// GroupLabel — подпись группы в списках и поиске.
const GroupLabel = "группа"

type Service struct {
	store Store
	log   *zap.Logger
	lang  language.Tag
}

type Option func(*Service)

// WithCollation — язык сортировки имён.
func WithCollation(tag language.Tag) Option {
	return func(s *Service) { s.lang = tag }
}

func New(store Store, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{store: store, log: log.Named("roster"), lang: language.Vietnamese}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List — видимый исполнителю состав, по старшинству ролей, затем по имени.
func (s *Service) List(ctx context.Context, actor models.User, search string) ([]models.User, error) {
	filter := models.UserFilter{}
	if class, all := access.ClassScope(actor); !all {
		if class == "" {
			return nil, nil
		}
		filter.ClassName = class
	}
	users, err := s.store.ListUsers(ctx, filter)
	if err != nil {
		return nil, err
	}
	users = access.VisibleRoster(actor, users)

	out := users[:0]
	for _, u := range users {
		if Matches(u, search) {
			out = append(out, u)
		}
	}
	s.Sort(out)
	return out, nil
}

// Sort упорядочивает по приоритету роли и имени с учётом языка.
func (s *Service) Sort(users []models.User) {
	col := collate.New(s.lang)
	sort.SliceStable(users, func(i, j int) bool {
		pi, pj := users[i].Role.Priority(), users[j].Role.Priority()
		if pi != pj {
			return pi < pj
		}
		return col.CompareString(users[i].FullName, users[j].FullName) < 0
	})
}

// Matches: подстрока имени, класса или "группа N", либо точный номер группы.
func Matches(u models.User, search string) bool {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return true
	}
	group := fmt.Sprintf("%s %d", GroupLabel, u.GroupNumber)
	return strings.Contains(strings.ToLower(u.FullName), term) ||
		strings.Contains(strings.ToLower(u.ClassName), term) ||
		strings.Contains(group, term) ||
		strconv.Itoa(u.GroupNumber) == term
}

// JoinClass — ученик сам выбирает класс, пока он не выбран.
func (s *Service) JoinClass(ctx context.Context, self models.User, className string) error {
	name := NormalizeClassName(className)
	if self.ClassName != "" {
		return apperr.Invalid("class", "класс уже выбран, обратитесь к администратору")
	}
	c, err := s.store.ClassByName(ctx, name)
	if err != nil {
		return err
	}
	if c == nil {
		return apperr.Invalid("class", fmt.Sprintf("класса %q нет", name))
	}
	return s.store.JoinClass(ctx, self.ID, c.Name)
}

// ChooseGroup — ученик сам выбирает группу; выбор закрепляется до сброса месяца.
func (s *Service) ChooseGroup(ctx context.Context, self models.User, group int) error {
	if group < 1 || group > models.MaxGroupNumber {
		return apperr.Invalid("group", fmt.Sprintf("номер группы от 1 до %d", models.MaxGroupNumber))
	}
	if self.ClassName == "" {
		return apperr.Invalid("class", "сначала выберите класс")
	}
	if self.GroupLocked {
		return apperr.Invalid("group", "группа уже закреплена")
	}
	return s.store.ChooseGroup(ctx, self.ID, group)
}

// SetRole — смена роли (только администратор). Роль администратора не меняется,
// и назначить администратора отсюда нельзя.
func (s *Service) SetRole(ctx context.Context, actor models.User, targetID uuid.UUID, role models.Role) error {
	if err := access.Require(actor, access.RoleChange); err != nil {
		return err
	}
	target, err := s.store.GetUser(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Role == models.SuperAdmin || role == models.SuperAdmin {
		return fmt.Errorf("%s: %w", access.RoleChange, apperr.ErrForbidden)
	}
	if err := s.store.SetRole(ctx, targetID, role); err != nil {
		return err
	}
	s.log.Info("role changed", zap.Stringer("target", targetID), zap.String("role", string(role)))
	return nil
}

// SetGroup — учитель или администратор меняет группу; 0 снимает группу.
func (s *Service) SetGroup(ctx context.Context, actor models.User, targetID uuid.UUID, group int) error {
	if group < 0 || group > models.MaxGroupNumber {
		return apperr.Invalid("group", fmt.Sprintf("номер группы от 0 до %d", models.MaxGroupNumber))
	}
	target, err := s.editable(ctx, actor, targetID, access.RosterEdit)
	if err != nil {
		return err
	}
	return s.store.SetGroup(ctx, target.ID, group, group != 0)
}

// SetClass — перевод в другой класс (только администратор); "" снимает класс.
func (s *Service) SetClass(ctx context.Context, actor models.User, targetID uuid.UUID, className string) error {
	if err := access.Require(actor, access.ClassReassign); err != nil {
		return err
	}
	name := NormalizeClassName(className)
	if name != "" {
		c, err := s.store.ClassByName(ctx, name)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.Invalid("class", fmt.Sprintf("класса %q нет", name))
		}
	}
	if _, err := s.store.GetUser(ctx, targetID); err != nil {
		return err
	}
	return s.store.SetClass(ctx, targetID, name)
}

// DeleteUser удаляет профиль вместе с журналом, заявками и рамками.
func (s *Service) DeleteUser(ctx context.Context, actor models.User, targetID uuid.UUID) error {
	if actor.ID == targetID {
		return apperr.Invalid("user", "нельзя удалить самого себя")
	}
	target, err := s.editable(ctx, actor, targetID, access.RosterEdit)
	if err != nil {
		return err
	}
	if target.Role.IsStaff() && actor.Role != models.SuperAdmin {
		return fmt.Errorf("%s: %w", access.RosterEdit, apperr.ErrForbidden)
	}
	if err := s.store.DeleteUser(ctx, targetID); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.Stringer("target", targetID), zap.Stringer("actor", actor.ID))
	return nil
}

func (s *Service) Classes(ctx context.Context) ([]models.Class, error) {
	return s.store.Classes(ctx)
}

func (s *Service) CreateClass(ctx context.Context, actor models.User, name string) (models.Class, error) {
	if err := access.Require(actor, access.ClassManage); err != nil {
		return models.Class{}, err
	}
	name = NormalizeClassName(name)
	if name == "" || len([]rune(name)) > 20 {
		return models.Class{}, apperr.Invalid("name", "название класса от 1 до 20 символов")
	}
	return s.store.CreateClass(ctx, name)
}

// DeleteClass — только пустой класс.
func (s *Service) DeleteClass(ctx context.Context, actor models.User, name string) error {
	if err := access.Require(actor, access.ClassManage); err != nil {
		return err
	}
	return s.store.DeleteClass(ctx, NormalizeClassName(name))
}

// NormalizeClassName: " 6a1 " → "6A1".
func NormalizeClassName(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

func (s *Service) editable(ctx context.Context, actor models.User, targetID uuid.UUID, action access.Action) (models.User, error) {
	target, err := s.store.GetUser(ctx, targetID)
	if err != nil {
		return models.User{}, err
	}
	if !access.InScope(actor, target) {
		return models.User{}, fmt.Errorf("%s: %w", action, apperr.ErrForbidden)
	}
	if err := access.RequireEdit(actor, target, action); err != nil {
		return models.User{}, err
	}
	return target, nil
}
