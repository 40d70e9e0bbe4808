package ledger

import (
	"context"
	"sync"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
)

type fakeStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*models.User
	order   []uuid.UUID
	logs    []models.AuditEntry
	rules   []models.Rule
	failFor map[uuid.UUID]error
}

func newFakeStore(users ...models.User) *fakeStore {
	s := &fakeStore{users: make(map[uuid.UUID]*models.User), failFor: make(map[uuid.UUID]error)}
	for _, u := range users {
		s.add(u)
	}
	return s
}

func (s *fakeStore) add(u models.User) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users[u.ID] = &u
	s.order = append(s.order, u.ID)
}

func (s *fakeStore) user(id uuid.UUID) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func (s *fakeStore) GetUser(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, apperr.ErrNotFound
	}
	return *u, nil
}

func (s *fakeStore) ListUsers(_ context.Context, f models.UserFilter) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, id := range s.order {
		u := s.users[id]
		if f.ClassName != "" && u.ClassName != f.ClassName {
			continue
		}
		if f.ExcludeStaff && u.Role.IsStaff() {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (s *fakeStore) ApplyDelta(_ context.Context, e models.AuditEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance := 0
	if e.TargetID != nil {
		if err := s.failFor[*e.TargetID]; err != nil {
			return 0, err
		}
		u, ok := s.users[*e.TargetID]
		if !ok {
			return 0, apperr.ErrNotFound
		}
		u.Points += e.Amount
		balance = u.Points
	}
	e.ID = int64(len(s.logs) + 1)
	s.logs = append(s.logs, e)
	return balance, nil
}

func (s *fakeStore) GrantCoins(_ context.Context, id uuid.UUID, coins int, note models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	u.Coins += coins
	s.logs = append(s.logs, note)
	return nil
}

func (s *fakeStore) ResetMonth(_ context.Context, baseline int, note models.AuditEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if u.Role.IsStaff() {
			continue
		}
		u.Points = baseline
		u.GroupNumber = 0
		u.GroupLocked = false
		n++
	}
	s.logs = append(s.logs, note)
	return n, nil
}

func (s *fakeStore) PointLogs(_ context.Context, id uuid.UUID) ([]models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditEntry
	for i := len(s.logs) - 1; i >= 0; i-- {
		if l := s.logs[i]; l.TargetID != nil && *l.TargetID == id {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeStore) RecentLogs(_ context.Context, className string, limit int) ([]models.AuditEntryWithNames, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditEntryWithNames
	for i := len(s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		l := s.logs[i]
		row := models.AuditEntryWithNames{AuditEntry: l}
		if l.TargetID != nil {
			t := s.users[*l.TargetID]
			if className != "" && t.ClassName != className {
				continue
			}
			row.TargetName = t.FullName
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *fakeStore) Rules(_ context.Context, activeOnly bool) ([]models.Rule, error) {
	var out []models.Rule
	for _, r := range s.rules {
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeStore) UnlockBadges(_ context.Context, id uuid.UUID, badges []string, bonusCoins int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.Badges = append([]string{}, badges...)
	u.Coins += bonusCoins
	return nil
}

func (s *fakeStore) logsFor(id uuid.UUID) []models.AuditEntry {
	out, _ := s.PointLogs(context.Background(), id)
	return out
}
