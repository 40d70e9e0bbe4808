// Package access решает, может ли пользователь выполнить изменяющее действие
// над другим пользователем. Все проверки ролей сведены сюда, чтобы обработчики
// не сравнивали роли сами.
package access

import (
	"fmt"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/models"
)

type Action int

const (
	ScoreEdit Action = iota
	RosterEdit
	FulfillRedemption
	RoleChange
	ClassReassign
	ClassManage
	CatalogManage
	MonthReset
	TopReward
	ViewJournal
	ViewReport
)

func (a Action) String() string {
	switch a {
	case ScoreEdit:
		return "score_edit"
	case RosterEdit:
		return "roster_edit"
	case FulfillRedemption:
		return "fulfill_redemption"
	case RoleChange:
		return "role_change"
	case ClassReassign:
		return "class_reassign"
	case ClassManage:
		return "class_manage"
	case CatalogManage:
		return "catalog_manage"
	case MonthReset:
		return "month_reset"
	case TopReward:
		return "top_reward"
	case ViewJournal:
		return "view_journal"
	case ViewReport:
		return "view_report"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// CanEdit — таблица решений, первое совпадение по роли исполнителя.
//
// Ограничение учителя своим классом здесь не проверяется: список целей
// должен быть заранее отфильтрован через VisibleRoster.
func CanEdit(actor, target models.User, action Action) bool {
	switch actor.Role {
	case models.SuperAdmin:
		return true
	case models.Teacher:
		switch action {
		case ScoreEdit, RosterEdit, FulfillRedemption:
			return true
		}
		return false
	case models.Monitor:
		return action == ScoreEdit
	case models.GroupLeader:
		if action != ScoreEdit {
			return false
		}
		// группа 0 — «не выбрана», такие ученики друг другу не подчинены
		return actor.GroupNumber != 0 &&
			actor.GroupNumber == target.GroupNumber &&
			actor.ID != target.ID
	}
	return false
}

// Can — действия без конкретной цели (панель учителя, каталог, классы).
// ScoreEdit и FulfillRedemption здесь означают «есть хотя бы одна цель»:
// конкретного ученика всё равно проверяет CanEdit.
func Can(actor models.User, action Action) bool {
	switch actor.Role {
	case models.SuperAdmin:
		return true
	case models.Teacher:
		switch action {
		case MonthReset, TopReward, ViewJournal, ViewReport, ScoreEdit, FulfillRedemption:
			return true
		}
		return false
	case models.Monitor, models.GroupLeader:
		return action == ViewReport || action == ScoreEdit
	}
	return false
}

// ClassScope — какой класс видит исполнитель. all == true только у администратора,
// тогда className пуст и фильтр по классу не нужен. Пустой className при
// all == false значит, что видеть нечего.
func ClassScope(actor models.User) (className string, all bool) {
	if actor.Role == models.SuperAdmin {
		return "", true
	}
	return actor.ClassName, false
}

// Require / RequireEdit — то же, но ошибкой apperr.ErrForbidden.
func Require(actor models.User, action Action) error {
	if !Can(actor, action) {
		return fmt.Errorf("%s: %w", action, apperr.ErrForbidden)
	}
	return nil
}

func RequireEdit(actor, target models.User, action Action) error {
	if !CanEdit(actor, target, action) {
		return fmt.Errorf("%s: %w", action, apperr.ErrForbidden)
	}
	return nil
}

// InScope — цель попадает в видимый исполнителю класс.
func InScope(actor, target models.User) bool {
	class, all := ClassScope(actor)
	return all || (class != "" && class == target.ClassName)
}

// VisibleRoster — предварительный фильтр по классу, который обязаны применять
// все списки целей перед тем, как предлагать действие.
func VisibleRoster(actor models.User, users []models.User) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if InScope(actor, u) {
			out = append(out, u)
		}
	}
	return out
}

// EditableTargets = VisibleRoster ∩ CanEdit.
func EditableTargets(actor models.User, users []models.User, action Action) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range VisibleRoster(actor, users) {
		if CanEdit(actor, u, action) {
			out = append(out, u)
		}
	}
	return out
}
