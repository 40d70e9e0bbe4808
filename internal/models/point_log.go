package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AuditEntry — неизменяемая запись журнала баллов.
// TargetID == nil — служебная запись «для всех» (например, итоги месяца).
type AuditEntry struct {
	ID        int64      `db:"id"`
	TargetID  *uuid.UUID `db:"student_id"`
	ActorID   *uuid.UUID `db:"actor_id"`
	Amount    int        `db:"amount"`
	Reason    string     `db:"reason"`
	CreatedAt time.Time  `db:"created_at"`
}

// AuditEntryWithNames — запись журнала для ленты учителя.
type AuditEntryWithNames struct {
	AuditEntry
	TargetName string `db:"student_name"`
	ActorName  string `db:"actor_name"`
}

type RuleType string

const (
	RuleReward  RuleType = "REWARD"
	RulePenalty RuleType = "PENALTY"
)

type Rule struct {
	ID       int64    `db:"id"`
	Content  string   `db:"content"`
	Points   int      `db:"points"`
	Type     RuleType `db:"type"`
	IsActive bool     `db:"is_active"`
}

var ErrClassNotEmpty = errors.New("в классе есть ученики")

type Class struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}
