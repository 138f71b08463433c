package beggar

import "time"

// assignTitles 按出完顺序授予头衔
// 第一个出完的是国王，第二个是智者，其余出完的都是平民；当只剩一名
// 玩家握牌时，该玩家立即成为乞丐。全员有头衔后游戏进入结束状态。
func (g *Game) assignTitles() []TitleAward {
	var awards []TitleAward

	emptied := 0
	for _, p := range g.Players {
		if p.Title == TitleKing || p.Title == TitleWise || p.Title == TitleCivilian {
			emptied++
		}
	}

	for _, p := range g.Players {
		if p.Titled() || p.Active() {
			continue
		}
		switch emptied {
		case 0:
			p.Title = TitleKing
		case 1:
			p.Title = TitleWise
		default:
			p.Title = TitleCivilian
		}
		emptied++
		awards = append(awards, TitleAward{PlayerID: p.ID, Title: p.Title})
	}

	// 只剩最后一名握牌玩家时直接封为乞丐，不再等他出牌
	if holder := g.loneCardHolder(); holder != nil && !holder.Titled() {
		holder.Title = TitleBeggar
		awards = append(awards, TitleAward{PlayerID: holder.ID, Title: TitleBeggar})
	}

	if g.allTitled() {
		g.Status = StatusFinished
		g.FinishedAt = time.Now().UnixMilli()
	}
	return awards
}

// loneCardHolder 唯一仍握牌的玩家，不唯一时返回 nil
func (g *Game) loneCardHolder() *Player {
	var holder *Player
	for _, p := range g.Players {
		if !p.Active() {
			continue
		}
		if holder != nil {
			return nil
		}
		holder = p
	}
	return holder
}

func (g *Game) allTitled() bool {
	for _, p := range g.Players {
		if !p.Titled() {
			return false
		}
	}
	return true
}
