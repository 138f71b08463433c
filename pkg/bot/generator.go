package bot

import (
	"sort"

	"github.com/play/beggar/pkg/beggar"
)

// LegalPlays 枚举一手牌在当前轮次约束下的所有合法出法
// 王会按能成型的方式尝试各种绑定；同一组牌只保留一种绑定。
// 结果按 少用王优先、强度升序 排序，便于上层挑选最省的出法。
func LegalPlays(hand beggar.Cards, top *beggar.Pattern, family beggar.Family, runLength int) []beggar.Cards {
	candidates := candidatePlays(hand)

	var legal []beggar.Cards
	for _, c := range candidates {
		if _, err := beggar.Validate(c, top, family, runLength); err == nil {
			legal = append(legal, c)
		}
	}

	sort.SliceStable(legal, func(i, j int) bool {
		ji, jj := jokerCount(legal[i]), jokerCount(legal[j])
		if ji != jj {
			return ji < jj
		}
		pi, _ := beggar.Classify(legal[i])
		pj, _ := beggar.Classify(legal[j])
		return pi.Strength < pj.Strength
	})
	return legal
}

// candidatePlays 生成所有可能成型的出法，不做轮次校验
func candidatePlays(hand beggar.Cards) []beggar.Cards {
	var normals beggar.Cards
	var jokers beggar.Cards
	hasDetails := false
	for _, c := range hand {
		switch c.Kind {
		case beggar.KindNormal:
			normals = append(normals, c)
		case beggar.KindJoker:
			jokers = append(jokers, c)
		case beggar.KindDetails:
			hasDetails = true
		}
	}

	var out []beggar.Cards
	out = append(out, groupPlays(normals, jokers)...)
	out = append(out, runPlays(normals, jokers)...)
	if hasDetails {
		out = append(out, beggar.Cards{beggar.NewDetails()})
	}
	return out
}

// groupPlays 同点数牌型：单张、对子、三同张、四同张，王可补任意张
func groupPlays(normals, jokers beggar.Cards) []beggar.Cards {
	byRank := make(map[beggar.Rank]beggar.Cards)
	for _, c := range normals {
		byRank[c.Rank] = append(byRank[c.Rank], c)
	}

	var out []beggar.Cards
	for r := beggar.Rank3; r <= beggar.Rank2; r++ {
		own := byRank[r]
		for size := 1; size <= 4; size++ {
			maxJokers := min(len(jokers), size)
			for nj := 0; nj <= maxJokers; nj++ {
				natural := size - nj
				if natural < 0 || natural > len(own) {
					continue
				}
				play := make(beggar.Cards, 0, size)
				play = append(play, own[:natural]...)
				for k := 0; k < nj; k++ {
					play = append(play, jokers[k].Bind(r, freeSuit(own[:natural], jokers[:k], r)))
				}
				out = append(out, play)
			}
		}
	}
	return out
}

// freeSuit 为补组的王挑一个该点数下未被占用的花色
func freeSuit(natural, boundJokers beggar.Cards, rank beggar.Rank) beggar.Suit {
	used := make(map[beggar.Suit]bool, 4)
	for _, c := range natural {
		used[c.Suit] = true
	}
	for _, j := range boundJokers {
		if j.AsRank == rank {
			used[j.AsSuit] = true
		}
	}
	for _, s := range []beggar.Suit{beggar.SuitSpade, beggar.SuitHeart, beggar.SuitClub, beggar.SuitDiamond} {
		if !used[s] {
			return s
		}
	}
	return beggar.SuitSpade
}

// runPlays 同花连张，王可补缺口中的任意点数
func runPlays(normals, jokers beggar.Cards) []beggar.Cards {
	bySuit := make(map[beggar.Suit]map[beggar.Rank]beggar.Card)
	for _, c := range normals {
		if bySuit[c.Suit] == nil {
			bySuit[c.Suit] = make(map[beggar.Rank]beggar.Card)
		}
		bySuit[c.Suit][c.Rank] = c
	}

	var out []beggar.Cards
	for suit, ranks := range bySuit {
		for lo := beggar.Rank3; lo <= beggar.Rank2; lo++ {
			for hi := lo + 1; hi <= beggar.Rank2; hi++ {
				length := int(hi-lo) + 1
				missing := 0
				for r := lo; r <= hi; r++ {
					if _, ok := ranks[r]; !ok {
						missing++
					}
				}
				if missing > len(jokers) {
					continue
				}
				// 没有真牌参与的纯王连张不生成
				if missing == length {
					continue
				}
				play := make(beggar.Cards, 0, length)
				ji := 0
				for r := lo; r <= hi; r++ {
					if c, ok := ranks[r]; ok {
						play = append(play, c)
					} else {
						play = append(play, jokers[ji].Bind(r, suit))
						ji++
					}
				}
				out = append(out, play)
			}
		}
	}
	return out
}

func jokerCount(cards beggar.Cards) int {
	n := 0
	for _, c := range cards {
		if c.Kind == beggar.KindJoker {
			n++
		}
	}
	return n
}
