package beggar

import (
	"errors"
	"math/rand/v2"
	"time"
)

// Status 游戏状态
type Status int8

const (
	StatusWaiting  Status = iota // 等待玩家加入
	StatusPlaying                // 游戏中
	StatusFinished               // 已结束（可重开）
)

// 座位数限制
const (
	MinPlayers = 3
	MaxPlayers = 6
)

// 状态机错误
var (
	ErrNotWaiting    = errors.New("game not waiting for players")
	ErrNotPlaying    = errors.New("game not playing")
	ErrNotFinished   = errors.New("game not finished")
	ErrGameFull      = errors.New("game is full")
	ErrTooFewPlayers = errors.New("not enough players to start")
	ErrNotSeated     = errors.New("player not seated in this game")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrCardsNotOwned = errors.New("played cards are not all in hand")
	ErrHandMismatch  = errors.New("resulting hand does not match hand minus played cards")
	ErrMustLead      = errors.New("round starter may not pass")
	ErrNoWise        = errors.New("no wise title holder to lead the restart")
)

// TitleAward 一次头衔授予
type TitleAward struct {
	PlayerID string `json:"player_id"`
	Title    Title  `json:"title"`
}

// Game 单局游戏聚合，是唯一的权威状态
// 方法自身不加锁，由持有方（注册表）保证同一局的命令串行执行。
// 任何校验失败都不产生部分修改。
type Game struct {
	ID           string
	Players      []*Player // 座位顺序即出牌顺序，开局后固定
	Pile         []*Pattern
	Turn         int // 当前出牌玩家索引，结束后为 -1
	Family       Family
	RunLength    int
	Passed       map[string]bool // 本轮已过牌的玩家
	LastPlayer   int             // 最近出实牌的玩家索引，-1 表示本轮无人出牌
	Status       Status
	TestMode     bool // 测试模式：跳过出牌权校验，不挂定时器
	SinglePlayer bool
	StartedAt    int64 // Unix 毫秒
	FinishedAt   int64
	// Epoch 回合纪元，出牌权每次变更时递增
	// 定时器回调携带挂载时的纪元，触发时不一致则静默丢弃。
	Epoch uint64

	rng *rand.Rand
}

// NewGame 创建一局新游戏，rng 为 nil 时使用全局随机源
func NewGame(id string, testMode, singlePlayer bool, rng *rand.Rand) *Game {
	return &Game{
		ID:           id,
		Status:       StatusWaiting,
		Turn:         -1,
		LastPlayer:   -1,
		Passed:       make(map[string]bool),
		TestMode:     testMode,
		SinglePlayer: singlePlayer,
		rng:          rng,
	}
}

// Join 加入一名玩家，仅在等待阶段且未满座时允许
func (g *Game) Join(playerID, name string, isBot bool) (*Player, error) {
	if g.Status != StatusWaiting {
		return nil, ErrNotWaiting
	}
	if len(g.Players) >= MaxPlayers {
		return nil, ErrGameFull
	}
	p := NewPlayer(playerID, name, isBot)
	g.Players = append(g.Players, p)
	return p, nil
}

// PlayerByID 按 ID 查找玩家，返回玩家和座位索引
func (g *Game) PlayerByID(id string) (*Player, int) {
	for i, p := range g.Players {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

// PlayerByName 按名字查找玩家
func (g *Game) PlayerByName(name string) *Player {
	for _, p := range g.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Full 是否已满座
func (g *Game) Full() bool {
	return len(g.Players) >= MaxPlayers
}

// Start 开始游戏：洗牌、发牌并确定首个出牌玩家
func (g *Game) Start(callerID string) error {
	if g.Status != StatusWaiting {
		return ErrNotWaiting
	}
	if _, idx := g.PlayerByID(callerID); idx < 0 {
		return ErrNotSeated
	}
	if len(g.Players) < MinPlayers {
		return ErrTooFewPlayers
	}

	g.deal()
	g.Status = StatusPlaying
	g.StartedAt = time.Now().UnixMilli()
	g.Turn = g.firstCardHolder()
	g.Epoch++
	return nil
}

// deal 重新生成整副牌并发给所有座位
func (g *Game) deal() {
	deck := NewDeck()
	hands := deck.Deal(len(g.Players), g.rng)
	for i, p := range g.Players {
		p.Hand = hands[i]
	}
}

// firstCardHolder 首个握牌玩家的座位索引
func (g *Game) firstCardHolder() int {
	for i, p := range g.Players {
		if p.Active() {
			return i
		}
	}
	return -1
}

// nextCardHolder 从 from 之后循环找到下一个握牌玩家
func (g *Game) nextCardHolder(from int) int {
	n := len(g.Players)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if g.Players[idx].Active() {
			return idx
		}
	}
	return -1
}

// TopPattern 牌堆最近的一手，空堆返回 nil
func (g *Game) TopPattern() *Pattern {
	if len(g.Pile) == 0 {
		return nil
	}
	return g.Pile[len(g.Pile)-1]
}

// CurrentPlayer 当前出牌玩家，游戏未进行时返回 nil
func (g *Game) CurrentPlayer() *Player {
	if g.Status != StatusPlaying || g.Turn < 0 || g.Turn >= len(g.Players) {
		return nil
	}
	return g.Players[g.Turn]
}

// Play 玩家出牌
// cards 为打出的牌（王必须已绑定），resulting 为出牌后的手牌（客户端
// 自行排序后原样提交），必须恰好等于原手牌去掉 cards。
// 成功时返回识别出的牌型和本次触发的头衔授予。
func (g *Game) Play(callerID string, cards, resulting Cards) (*Pattern, []TitleAward, error) {
	if g.Status != StatusPlaying {
		return nil, nil, ErrNotPlaying
	}
	player, idx := g.PlayerByID(callerID)
	if player == nil {
		return nil, nil, ErrNotSeated
	}
	if !g.TestMode && idx != g.Turn {
		return nil, nil, ErrNotYourTurn
	}

	remaining, ok := player.Hand.Remove(cards)
	if !ok {
		return nil, nil, ErrCardsNotOwned
	}
	if !remaining.SameIdentities(resulting) {
		return nil, nil, ErrHandMismatch
	}

	pattern, err := Validate(cards, g.TopPattern(), g.Family, g.RunLength)
	if err != nil {
		return nil, nil, err
	}

	// 校验全部通过，开始应用
	player.Hand = resulting
	g.Pile = append(g.Pile, pattern)
	g.Passed = make(map[string]bool)
	if g.Family == FamilyNone {
		// 本轮首手确立牌型族，连张同时固定长度
		g.Family = pattern.Family
		if pattern.Family == FamilyRun {
			g.RunLength = pattern.Length
		}
	}
	g.LastPlayer = idx

	var awards []TitleAward
	if !player.Active() {
		awards = g.assignTitles()
	}

	if g.Status == StatusPlaying {
		g.Turn = g.nextCardHolder(idx)
	} else {
		g.Turn = -1
	}
	g.Epoch++
	return pattern, awards, nil
}

// Pass 玩家过牌
// 新开轮（空牌堆且无人过牌）时握牌的出牌人不得过牌。
// 返回本轮是否因此收束（牌堆清空，出牌权回到最后出牌者）。
func (g *Game) Pass(callerID string) (bool, error) {
	if g.Status != StatusPlaying {
		return false, ErrNotPlaying
	}
	player, idx := g.PlayerByID(callerID)
	if player == nil {
		return false, ErrNotSeated
	}
	if !g.TestMode && idx != g.Turn {
		return false, ErrNotYourTurn
	}
	if len(g.Pile) == 0 && len(g.Passed) == 0 && player.Active() {
		return false, ErrMustLead
	}

	// 同一玩家同轮重复过牌只计一次
	g.Passed[player.ID] = true

	if g.LastPlayer >= 0 && g.roundClosed() {
		g.closeRound()
		g.Epoch++
		return true, nil
	}

	g.Turn = g.nextCardHolder(idx)
	g.Epoch++
	return false, nil
}

// roundClosed 判断本轮是否收束：除最后出牌者外所有握牌玩家都已过牌
func (g *Game) roundClosed() bool {
	for i, p := range g.Players {
		if !p.Active() || i == g.LastPlayer {
			continue
		}
		if !g.Passed[p.ID] {
			return false
		}
	}
	return true
}

// closeRound 收束本轮：清空牌堆，重置牌型族，出牌权交还最后出牌者
// 最后出牌者若已出完，出牌权顺延给下一个握牌玩家。
func (g *Game) closeRound() {
	g.Pile = nil
	g.Family = FamilyNone
	g.RunLength = 0
	g.Passed = make(map[string]bool)

	last := g.LastPlayer
	g.LastPlayer = -1
	if g.Players[last].Active() {
		g.Turn = last
		return
	}
	g.Turn = g.nextCardHolder(last)
}

// RemovePlayer 从已结束的游戏中移除一个座位（结算界面离开）
// 未结束时离开不是让座，是整局解散，由持有方处理。
// 返回移除后剩余的座位数。
func (g *Game) RemovePlayer(playerID string) (int, error) {
	if g.Status != StatusFinished {
		return 0, ErrNotFinished
	}
	_, idx := g.PlayerByID(playerID)
	if idx < 0 {
		return 0, ErrNotSeated
	}
	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)
	return len(g.Players), nil
}

// Restart 从结束状态重开一局：清空手牌和头衔，重新发牌，智者先出
func (g *Game) Restart(callerID string) error {
	if g.Status != StatusFinished {
		return ErrNotFinished
	}
	if _, idx := g.PlayerByID(callerID); idx < 0 {
		return ErrNotSeated
	}

	wise := -1
	for i, p := range g.Players {
		if p.Title == TitleWise {
			wise = i
			break
		}
	}
	if wise < 0 {
		return ErrNoWise
	}

	for _, p := range g.Players {
		p.reset()
	}
	g.deal()
	g.Pile = nil
	g.Family = FamilyNone
	g.RunLength = 0
	g.Passed = make(map[string]bool)
	g.LastPlayer = -1
	g.Status = StatusPlaying
	g.StartedAt = time.Now().UnixMilli()
	g.FinishedAt = 0
	g.Turn = wise
	g.Epoch++
	return nil
}
