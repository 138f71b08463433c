package beggar

import (
	"errors"
	"sort"
)

// Family 牌型族
type Family uint8

const (
	FamilyNone    Family = iota
	FamilySingle         // 单张
	FamilyPair           // 对子
	FamilyGroup3         // 三同张
	FamilyGroup4         // 四同张
	FamilyRun            // 同花连张（2-13 张，点数严格递增且花色相同）
	FamilyDetails        // Details 单出，压过一切
)

// 牌型校验错误
var (
	ErrEmptyPlay       = errors.New("play is empty")
	ErrTooManyCards    = errors.New("play exceeds 13 cards")
	ErrDuplicateCard   = errors.New("play contains duplicate cards")
	ErrUnboundJoker    = errors.New("joker played without rank/suit assignment")
	ErrDetailsNotAlone = errors.New("details card plays only alone")
	ErrNoSuchPattern   = errors.New("cards do not form a known pattern")
	ErrFamilyMismatch  = errors.New("play does not match the round family")
	ErrRunLength       = errors.New("run length differs from the round's run")
	ErrTooWeak         = errors.New("play does not beat the previous play")
	ErrAfterDetails    = errors.New("no play may follow a details play")
)

// Pattern 一手合法的牌及其可比较的强度
type Pattern struct {
	Family   Family `json:"family"`
	Cards    Cards  `json:"cards"`
	Strength uint8  `json:"strength"` // 单张/对子/同张取共同点数，连张取最小点数
	Length   int    `json:"length"`
}

// Classify 识别一手牌的牌型
// 不考虑牌堆和轮次约束，仅判断这手牌自身是否成型。
// 王必须已绑定，Details 只能单出。
func Classify(cards Cards) (*Pattern, error) {
	n := len(cards)
	if n == 0 {
		return nil, ErrEmptyPlay
	}
	if n > 13 {
		return nil, ErrTooManyCards
	}
	if cards.HasDuplicate() {
		return nil, ErrDuplicateCard
	}

	for _, c := range cards {
		if c.Kind == KindJoker && !c.Bound() {
			return nil, ErrUnboundJoker
		}
		if c.Kind == KindDetails && n > 1 {
			return nil, ErrDetailsNotAlone
		}
	}

	p := &Pattern{Cards: cards, Length: n}

	if cards[0].Kind == KindDetails {
		p.Family = FamilyDetails
		p.Strength = weightDetails
		return p, nil
	}

	// 同点数牌型：单张、对子、三同张、四同张
	sameRank := true
	rank := cards[0].EffectiveRank()
	for _, c := range cards[1:] {
		if c.EffectiveRank() != rank {
			sameRank = false
			break
		}
	}
	if sameRank && n <= 4 {
		switch n {
		case 1:
			p.Family = FamilySingle
		case 2:
			p.Family = FamilyPair
		case 3:
			p.Family = FamilyGroup3
		case 4:
			p.Family = FamilyGroup4
		}
		p.Strength = rank.Weight()
		return p, nil
	}

	// 连张：2-13 张，花色一致，点数严格逐一递增（A→2 合法）
	if n >= 2 && isRun(cards) {
		p.Family = FamilyRun
		p.Strength = runStrength(cards)
		return p, nil
	}

	return nil, ErrNoSuchPattern
}

func isRun(cards Cards) bool {
	suit := cards[0].EffectiveSuit()
	weights := make([]int, len(cards))
	for i, c := range cards {
		if c.EffectiveSuit() != suit {
			return false
		}
		weights[i] = int(c.EffectiveRank().Weight())
	}
	sort.Ints(weights)
	for i := 1; i < len(weights); i++ {
		if weights[i] != weights[i-1]+1 {
			return false
		}
	}
	return true
}

func runStrength(cards Cards) uint8 {
	min := cards[0].EffectiveRank().Weight()
	for _, c := range cards[1:] {
		if w := c.EffectiveRank().Weight(); w < min {
			min = w
		}
	}
	return min
}

// Beats 判断 p 是否压过 prev：同族且强度严格更大
// Details 压过任何牌型；任何牌都压不过 Details。
func (p *Pattern) Beats(prev *Pattern) bool {
	if prev == nil {
		return true
	}
	if prev.Family == FamilyDetails {
		return false
	}
	if p.Family == FamilyDetails {
		return true
	}
	if p.Family != prev.Family || p.Length != prev.Length {
		return false
	}
	return p.Strength > prev.Strength
}

// Validate 校验一手出牌是否合法
// prev 为牌堆最近一手（可为 nil），family/runLength 为本轮已确立的牌型族
// 和连张长度（开轮前为 FamilyNone/0）。合法时返回识别出的牌型。
// 校验失败不产生任何副作用。
func Validate(play Cards, prev *Pattern, family Family, runLength int) (*Pattern, error) {
	p, err := Classify(play)
	if err != nil {
		return nil, err
	}

	if prev != nil && prev.Family == FamilyDetails {
		return nil, ErrAfterDetails
	}

	// Details 无视轮次牌型，直接压过
	if p.Family == FamilyDetails {
		return p, nil
	}

	if family != FamilyNone {
		if p.Family != family {
			return nil, ErrFamilyMismatch
		}
		if family == FamilyRun && p.Length != runLength {
			return nil, ErrRunLength
		}
	}

	if prev != nil && !p.Beats(prev) {
		return nil, ErrTooWeak
	}

	return p, nil
}
