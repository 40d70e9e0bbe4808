package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/ledger"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/Spok95/classroom-league/internal/shop"
)

// AddArgs — "/add <логин> <±баллы> <причина>".
type AddArgs struct {
	Username string
	Amount   int
	Reason   string
}

func parseAdd(args string) (AddArgs, error) {
	f := strings.Fields(args)
	if len(f) < 3 {
		return AddArgs{}, apperr.Invalid("args", "формат: /add логин ±баллы причина")
	}
	n, err := strconv.Atoi(f[1])
	if err != nil {
		return AddArgs{}, apperr.Invalid("amount", fmt.Sprintf("%q — не число", f[1]))
	}
	if n > ledger.MaxAward || n < -ledger.MaxAward {
		return AddArgs{}, apperr.Invalid("amount", fmt.Sprintf("не больше %d баллов за раз", ledger.MaxAward))
	}
	return AddArgs{Username: f[0], Amount: n, Reason: strings.Join(f[2:], " ")}, nil
}

// TallyLine — строка журнала урока: ученик и сработавшие правила.
type TallyLine struct {
	Username string
	Counts   map[int64]int
}

// TallySheet — разобранное сообщение /tally.
type TallySheet struct {
	Day     time.Time
	Session string
	Lines   []TallyLine
}

// parseTally разбирает
//
//	/tally [ГГГГ-ММ-ДД] Урок
//	логин 1x2 3
//	логин2 2
//
// Правило без множителя считается один раз; повтор правила в строке складывается.
func parseTally(text string, today time.Time) (TallySheet, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	head := strings.Fields(lines[0])
	if len(head) > 0 && strings.HasPrefix(head[0], "/") {
		head = head[1:]
	}
	sheet := TallySheet{Day: today}
	if len(head) > 0 {
		if d, err := time.ParseInLocation("2006-01-02", head[0], today.Location()); err == nil {
			sheet.Day = d
			head = head[1:]
		}
	}
	sheet.Session = strings.Join(head, " ")
	if sheet.Session == "" {
		return TallySheet{}, apperr.Invalid("session", "укажите урок: /tally Математика")
	}

	for i, raw := range lines[1:] {
		f := strings.Fields(raw)
		if len(f) == 0 {
			continue
		}
		if len(f) < 2 {
			return TallySheet{}, apperr.Invalid("line", fmt.Sprintf("строка %d: нет правил", i+2))
		}
		line := TallyLine{Username: f[0], Counts: make(map[int64]int)}
		for _, tok := range f[1:] {
			id, qty, err := parseRuleToken(tok)
			if err != nil {
				return TallySheet{}, apperr.Invalid("line", fmt.Sprintf("строка %d: %v", i+2, err))
			}
			line.Counts[id] += qty
			if line.Counts[id] > ledger.MaxQuantity {
				return TallySheet{}, apperr.Invalid("line", fmt.Sprintf("строка %d: правило %d больше %d раз", i+2, id, ledger.MaxQuantity))
			}
		}
		sheet.Lines = append(sheet.Lines, line)
	}
	if len(sheet.Lines) == 0 {
		return TallySheet{}, apperr.Invalid("lines", "нет ни одной строки с учениками")
	}
	return sheet, nil
}

// parseRuleToken: "3" → (3, 1), "3x2" → (3, 2). Допускается и кириллическая «х».
func parseRuleToken(tok string) (int64, int, error) {
	tok = strings.ToLower(strings.TrimRight(tok, ",;"))
	tok = strings.ReplaceAll(tok, "х", "x")
	idPart, qtyPart, hasQty := strings.Cut(tok, "x")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, 0, fmt.Errorf("%q — не номер правила", tok)
	}
	qty := 1
	if hasQty {
		qty, err = strconv.Atoi(qtyPart)
		if err != nil || qty <= 0 || qty > ledger.MaxQuantity {
			return 0, 0, fmt.Errorf("%q — количество от 1 до %d", tok, ledger.MaxQuantity)
		}
	}
	return id, qty, nil
}

// parseNewReward — "/additem название; цена; количество[; редкость; категория; ссылка]".
func parseNewReward(args string) (shop.NewReward, error) {
	parts := strings.Split(args, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 {
		return shop.NewReward{}, apperr.Invalid("args", "формат: /additem название; цена; количество; редкость; категория; ссылка")
	}
	cost, err := strconv.Atoi(parts[1])
	if err != nil {
		return shop.NewReward{}, apperr.Invalid("cost", "цена должна быть числом")
	}
	stock, err := strconv.Atoi(parts[2])
	if err != nil {
		return shop.NewReward{}, apperr.Invalid("stock", "количество должно быть числом")
	}
	in := shop.NewReward{Name: parts[0], Cost: cost, Stock: stock}
	if len(parts) > 3 {
		in.Rarity = models.Rarity(strings.ToUpper(parts[3]))
	}
	if len(parts) > 4 {
		in.Category = models.Category(strings.ToUpper(parts[4]))
	}
	if len(parts) > 5 {
		in.ImageURL = parts[5]
	}
	return in, nil
}

// splitArgs — первое слово и остаток.
func splitArgs(args string) (string, string) {
	args = strings.TrimSpace(args)
	first, rest, _ := strings.Cut(args, " ")
	return first, strings.TrimSpace(rest)
}
