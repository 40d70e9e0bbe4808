package ledger

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/Spok95/classroom-league/internal/models"
	"github.com/google/uuid"
)

// SystemMarker отличает служебные записи (итоги месяца) от обычных.
const SystemMarker = "---"

var (
	qtyAnnotation = regexp.MustCompile(`\s*\(x\d+\)`)
	ruleWithQty   = regexp.MustCompile(`^(.+?)\s*\(x(\d+)\)$`)
)

// ReasonGroup — одна строка отчёта: сколько раз и на сколько сработало правило.
type ReasonGroup struct {
	Reason   string
	Count    int
	Total    int
	Positive bool
}

type HistorySummary struct {
	Groups        []ReasonGroup
	PositiveCount int
	NegativeCount int
	PositiveTotal int
	NegativeTotal int
}

func (s HistorySummary) Achievements() []ReasonGroup { return s.filter(true) }

func (s HistorySummary) Violations() []ReasonGroup { return s.filter(false) }

func (s HistorySummary) filter(positive bool) []ReasonGroup {
	var out []ReasonGroup
	for _, g := range s.Groups {
		if g.Positive == positive {
			out = append(out, g)
		}
	}
	return out
}

// SummarizeHistory — отчёт об учёбе по журналу ученика. Записи урока с несколькими
// правилами раскладываются по правилам, включая уже выключенные.
func (e *Engine) SummarizeHistory(ctx context.Context, userID uuid.UUID) (HistorySummary, error) {
	entries, err := e.store.PointLogs(ctx, userID)
	if err != nil {
		return HistorySummary{}, err
	}
	rules, err := e.store.Rules(ctx, false)
	if err != nil {
		return HistorySummary{}, err
	}
	return SummarizeWithRules(entries, rules), nil
}

// Summarize — отчёт без справочника правил: каждая запись целиком одна группа.
func Summarize(entries []models.AuditEntry) HistorySummary {
	return SummarizeWithRules(entries, nil)
}

// SummarizeWithRules группирует записи по причине без даты, урока и количества.
// Вид группы задаёт знак её первой записи; счётчики полярности считаются по каждой части.
// Причина "A (x3), B (x1)" делится по правилам, если все части найдены в справочнике
// и их сумма совпадает с записью; иначе запись считается одной группой.
func SummarizeWithRules(entries []models.AuditEntry, rules []models.Rule) HistorySummary {
	points := make(map[string]int, len(rules))
	for _, r := range rules {
		points[r.Content] = r.Points
	}

	var s HistorySummary
	index := make(map[string]int)
	add := func(key string, amount int) {
		i, ok := index[key]
		if !ok {
			i = len(s.Groups)
			index[key] = i
			s.Groups = append(s.Groups, ReasonGroup{Reason: key, Positive: amount > 0})
		}
		s.Groups[i].Count++
		s.Groups[i].Total += amount

		if amount > 0 {
			s.PositiveCount++
			s.PositiveTotal += amount
		} else {
			s.NegativeCount++
			s.NegativeTotal += amount
		}
	}

	for _, en := range entries {
		if en.Amount == 0 || IsSystemReason(en.Reason) {
			continue
		}
		if parts, ok := splitByRules(en, points); ok {
			for _, p := range parts {
				if p.amount != 0 {
					add(p.rule, p.amount)
				}
			}
			continue
		}
		add(NormalizeReason(en.Reason), en.Amount)
	}
	return s
}

type rulePart struct {
	rule   string
	amount int
}

func splitByRules(en models.AuditEntry, points map[string]int) ([]rulePart, bool) {
	if len(points) == 0 {
		return nil, false
	}
	reason := stripSessionTag(en.Reason)
	chunks := strings.Split(reason, ", ")
	if len(chunks) < 2 {
		return nil, false
	}
	parts := make([]rulePart, 0, len(chunks))
	sum := 0
	for _, c := range chunks {
		m := ruleWithQty.FindStringSubmatch(strings.TrimSpace(c))
		if m == nil {
			return nil, false
		}
		pts, ok := points[m[1]]
		if !ok {
			return nil, false
		}
		qty, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, false
		}
		parts = append(parts, rulePart{rule: m[1], amount: pts * qty})
		sum += pts * qty
	}
	if sum != en.Amount {
		return nil, false
	}
	return parts, true
}

func IsSystemReason(reason string) bool { return strings.Contains(reason, SystemMarker) }

// NormalizeReason: "[2024-05-01 - Утро] Ответ у доски (x2)" → "Ответ у доски".
func NormalizeReason(reason string) string {
	reason = qtyAnnotation.ReplaceAllString(stripSessionTag(reason), "")
	return strings.TrimSpace(reason)
}

func stripSessionTag(reason string) string {
	if strings.HasPrefix(reason, "[") {
		if _, rest, ok := strings.Cut(reason, "] "); ok {
			return rest
		}
	}
	return reason
}
