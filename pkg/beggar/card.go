package beggar

import "math/rand/v2"

// Suit 牌的花色
type Suit uint8

const (
	SuitNone    Suit = iota
	SuitSpade        // 黑桃
	SuitHeart        // 红桃
	SuitClub         // 梅花
	SuitDiamond      // 方块
)

// Rank 牌的点数，按大小升序排列（3 最小，2 最大）
type Rank uint8

const (
	RankNone Rank = iota
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	Rank9
	Rank10
	RankJ
	RankQ
	RankK
	RankA
	Rank2 // 2 为最大的普通点数
)

// Weight 返回点数的权重，点数枚举本身即为升序
func (r Rank) Weight() uint8 {
	return uint8(r)
}

// CardKind 牌的种类
type CardKind uint8

const (
	KindNormal  CardKind = iota // 普通牌
	KindJoker                   // 王（万能牌，出牌时必须绑定点数和花色）
	KindDetails                 // Details 牌，全场唯一，大过一切，只能单出
)

// JokerID 区分两张王
type JokerID uint8

const (
	JokerNone JokerID = iota
	JokerBlack
	JokerRed
)

// weightDetails Details 牌的强度，高于任何点数
const weightDetails uint8 = 200

// DeckSize 整副牌的张数：52 张普通牌 + 2 张王 + 1 张 Details
const DeckSize = 55

// Card 代表一张牌
// 王为两阶段值：手牌中未绑定（AsRank/AsSuit 为零值），出牌提交时绑定
// 点数和花色，入牌堆后不可更改。绑定只影响比较，不影响牌的身份。
type Card struct {
	Kind   CardKind `json:"kind"`
	Rank   Rank     `json:"rank,omitempty"`    // 普通牌的点数
	Suit   Suit     `json:"suit,omitempty"`    // 普通牌的花色
	Joker  JokerID  `json:"joker,omitempty"`   // 王的编号
	AsRank Rank     `json:"as_rank,omitempty"` // 王绑定的点数
	AsSuit Suit     `json:"as_suit,omitempty"` // 王绑定的花色
}

// NewCard 创建一张普通牌
func NewCard(rank Rank, suit Suit) Card {
	return Card{Kind: KindNormal, Rank: rank, Suit: suit}
}

// NewJoker 创建一张未绑定的王
func NewJoker(id JokerID) Card {
	return Card{Kind: KindJoker, Joker: id}
}

// NewDetails 创建 Details 牌
func NewDetails() Card {
	return Card{Kind: KindDetails}
}

// Identity 返回牌的身份（剥离王的绑定），用于手牌比对和去重
func (c Card) Identity() Card {
	c.AsRank = RankNone
	c.AsSuit = SuitNone
	return c
}

// Equal 按身份比较两张牌是否为同一张
func (c Card) Equal(other Card) bool {
	return c.Identity() == other.Identity()
}

// Bound 王是否已绑定
func (c Card) Bound() bool {
	return c.Kind == KindJoker && c.AsRank != RankNone && c.AsSuit != SuitNone
}

// Bind 返回绑定了点数和花色的王
func (c Card) Bind(rank Rank, suit Suit) Card {
	c.AsRank = rank
	c.AsSuit = suit
	return c
}

// EffectiveRank 牌的有效点数：王取绑定点数，普通牌取面值
// Details 牌没有点数，返回 RankNone
func (c Card) EffectiveRank() Rank {
	if c.Kind == KindJoker {
		return c.AsRank
	}
	return c.Rank
}

// EffectiveSuit 牌的有效花色
func (c Card) EffectiveSuit() Suit {
	if c.Kind == KindJoker {
		return c.AsSuit
	}
	return c.Suit
}

type Cards []Card

// NewDeck 生成一整副牌：4 花色 × 13 点数 + 两张王 + Details
func NewDeck() Cards {
	cards := make(Cards, 0, DeckSize)

	suits := []Suit{SuitSpade, SuitHeart, SuitClub, SuitDiamond}
	for _, suit := range suits {
		for r := Rank3; r <= Rank2; r++ {
			cards = append(cards, NewCard(r, suit))
		}
	}
	cards = append(cards, NewJoker(JokerBlack))
	cards = append(cards, NewJoker(JokerRed))
	cards = append(cards, NewDetails())

	return cards
}

// Shuffle 洗牌，rng 为 nil 时使用全局随机源
func (cs Cards) Shuffle(rng *rand.Rand) {
	if rng != nil {
		rng.Shuffle(len(cs), func(i, j int) { cs[i], cs[j] = cs[j], cs[i] })
		return
	}
	rand.Shuffle(len(cs), func(i, j int) { cs[i], cs[j] = cs[j], cs[i] })
}

// Deal 发牌：先平均分配，余牌随机发给部分玩家（每人最多多一张）
func (cs Cards) Deal(players int, rng *rand.Rand) []Cards {
	if players <= 0 || len(cs) == 0 {
		return nil
	}

	shuffled := make(Cards, len(cs))
	copy(shuffled, cs)
	shuffled.Shuffle(rng)

	base := len(shuffled) / players
	extra := len(shuffled) % players

	// 随机挑选 extra 个座位各多拿一张
	lucky := make([]int, players)
	for i := range lucky {
		lucky[i] = i
	}
	if rng != nil {
		rng.Shuffle(players, func(i, j int) { lucky[i], lucky[j] = lucky[j], lucky[i] })
	} else {
		rand.Shuffle(players, func(i, j int) { lucky[i], lucky[j] = lucky[j], lucky[i] })
	}
	bonus := make(map[int]bool, extra)
	for _, seat := range lucky[:extra] {
		bonus[seat] = true
	}

	hands := make([]Cards, players)
	idx := 0
	for i := range players {
		n := base
		if bonus[i] {
			n++
		}
		hands[i] = make(Cards, n)
		copy(hands[i], shuffled[idx:idx+n])
		idx += n
	}

	return hands
}

// Contains 手牌中是否包含指定身份的牌
func (cs Cards) Contains(card Card) bool {
	for _, c := range cs {
		if c.Equal(card) {
			return true
		}
	}
	return false
}

// Remove 从牌组中移除指定的牌（按身份逐张匹配）
// 返回移除后的新牌组；如果有牌不在组中，返回 (nil, false)
func (cs Cards) Remove(toRemove Cards) (Cards, bool) {
	out := make(Cards, len(cs))
	copy(out, cs)

	for _, rc := range toRemove {
		found := false
		for i, c := range out {
			if c.Equal(rc) {
				out = append(out[:i], out[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return out, true
}

// SameIdentities 判断两组牌的身份多重集是否一致（顺序无关）
func (cs Cards) SameIdentities(other Cards) bool {
	if len(cs) != len(other) {
		return false
	}
	rest, ok := cs.Remove(other)
	return ok && len(rest) == 0
}

// HasDuplicate 是否含有重复身份的牌
func (cs Cards) HasDuplicate() bool {
	seen := make(map[Card]bool, len(cs))
	for _, c := range cs {
		id := c.Identity()
		if seen[id] {
			return true
		}
		seen[id] = true
	}
	return false
}
