package ledger

// Rank — звание по балансу баллов; значения упорядочены по возрастанию.
type Rank int

const (
	RankNewbie Rank = iota
	RankBee
	RankStar
	RankScholar
	RankProdigy
	RankLegend
)

var rankThresholds = []struct {
	min  int
	rank Rank
}{
	{400, RankLegend},
	{300, RankProdigy},
	{200, RankScholar},
	{100, RankStar},
	{50, RankBee},
}

// Tier — звание для баланса. Больший баланс никогда не даёт меньшего звания.
func Tier(balance int) Rank {
	for _, t := range rankThresholds {
		if balance >= t.min {
			return t.rank
		}
	}
	return RankNewbie
}

func (r Rank) Title() string {
	switch r {
	case RankLegend:
		return "Легенда"
	case RankProdigy:
		return "Вундеркинд"
	case RankScholar:
		return "Отличник"
	case RankStar:
		return "Звёздочка"
	case RankBee:
		return "Трудолюбивая пчёлка"
	}
	return "Новичок"
}

func (r Rank) Icon() string {
	switch r {
	case RankLegend:
		return "👑"
	case RankProdigy:
		return "🔮"
	case RankScholar:
		return "🧠"
	case RankStar:
		return "🌟"
	case RankBee:
		return "🐝"
	}
	return "🌱"
}

func (r Rank) String() string { return r.Icon() + " " + r.Title() }
