package beggar

// PlayerView 对外可见的玩家信息
type PlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Hand      Cards  `json:"hand"`
	HandCount int    `json:"hand_count"`
	Title     string `json:"title"`
	IsBot     bool   `json:"is_bot"`
}

// Snapshot 游戏状态的完整投影，命令成功后广播给所有客户端
type Snapshot struct {
	GameID     string       `json:"game_id"`
	Status     Status       `json:"status"`
	Players    []PlayerView `json:"players"`
	Pile       []*Pattern   `json:"pile"`
	Turn       int          `json:"turn"`
	Family     Family       `json:"family"`
	RunLength  int          `json:"run_length,omitempty"`
	LastPlayer int          `json:"last_player"`
	Passed     []string     `json:"passed,omitempty"`
	Epoch      uint64       `json:"epoch"`
	StartedAt  int64        `json:"started_at,omitempty"`
	FinishedAt int64        `json:"finished_at,omitempty"`
}

// Snapshot 生成当前状态的投影
func (g *Game) Snapshot() *Snapshot {
	players := make([]PlayerView, len(g.Players))
	for i, p := range g.Players {
		players[i] = PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Hand:      p.Hand,
			HandCount: len(p.Hand),
			Title:     p.Title.String(),
			IsBot:     p.IsBot,
		}
	}

	passed := make([]string, 0, len(g.Passed))
	for _, p := range g.Players {
		if g.Passed[p.ID] {
			passed = append(passed, p.ID)
		}
	}

	return &Snapshot{
		GameID:     g.ID,
		Status:     g.Status,
		Players:    players,
		Pile:       g.Pile,
		Turn:       g.Turn,
		Family:     g.Family,
		RunLength:  g.RunLength,
		LastPlayer: g.LastPlayer,
		Passed:     passed,
		Epoch:      g.Epoch,
		StartedAt:  g.StartedAt,
		FinishedAt: g.FinishedAt,
	}
}

// Standing 结算条目
type Standing struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Title    string `json:"title"`
}

// Standings 按座位顺序生成结算列表
func (g *Game) Standings() []Standing {
	out := make([]Standing, len(g.Players))
	for i, p := range g.Players {
		out[i] = Standing{PlayerID: p.ID, Name: p.Name, Title: p.Title.String()}
	}
	return out
}
