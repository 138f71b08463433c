package arena

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/play/beggar/pkg/beggar"
	"github.com/play/beggar/pkg/broadcast"
)

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.TurnTimeout = time.Hour
	cfg.BotDelay = time.Hour
	cfg.IdleTTL = time.Hour
	cfg.MaxGames = 100
	return cfg
}

func newTestService(t *testing.T, cfg Config) (*Service, *broadcast.MemoryPublisher) {
	t.Helper()
	pub := broadcast.NewMemoryPublisher()
	s := NewService(cfg, pub)
	t.Cleanup(s.Close)
	return s, pub
}

// setHands 直接改写各座位的手牌，驱动确定的测试牌局
func setHands(t *testing.T, s *Service, gameID string, hands map[string]beggar.Cards) {
	t.Helper()
	err := s.registry.With(gameID, func(g *beggar.Game) error {
		for id, h := range hands {
			p, _ := g.PlayerByID(id)
			require.NotNil(t, p)
			p.Hand = h
		}
		g.Turn = 0
		for i, p := range g.Players {
			if len(p.Hand) > 0 {
				g.Turn = i
				break
			}
		}
		return nil
	})
	require.NoError(t, err)
}

// playCards 通过服务出牌，剩余手牌自动计算
func playCards(t *testing.T, s *Service, gameID, playerID string, cards ...beggar.Card) *beggar.Snapshot {
	t.Helper()
	var resulting beggar.Cards
	err := s.registry.With(gameID, func(g *beggar.Game) error {
		p, _ := g.PlayerByID(playerID)
		require.NotNil(t, p)
		rest, ok := p.Hand.Remove(cards)
		require.True(t, ok)
		resulting = rest
		return nil
	})
	require.NoError(t, err)

	snap, err := s.Play(context.Background(), gameID, playerID, cards, resulting)
	require.NoError(t, err)
	return snap
}

// TestCreateOrJoinIdempotent 测试同名玩家重复加入幂等
func TestCreateOrJoinIdempotent(t *testing.T) {
	s, _ := newTestService(t, quietConfig())
	ctx := context.Background()

	snap, err := s.CreateOrJoin(ctx, "g1", "alice", JoinOptions{TestMode: true})
	require.NoError(t, err)
	require.Len(t, snap.Players, 1)

	snap, err = s.CreateOrJoin(ctx, "g1", "alice", JoinOptions{TestMode: true})
	require.NoError(t, err)
	assert.Len(t, snap.Players, 1, "rejoin must not add a seat")

	snap, err = s.CreateOrJoin(ctx, "g1", "bob", JoinOptions{TestMode: true})
	require.NoError(t, err)
	assert.Len(t, snap.Players, 2)
}

// TestCreateOrJoinGeneratedID 测试空 gameID 时自动生成
func TestCreateOrJoinGeneratedID(t *testing.T) {
	s, _ := newTestService(t, quietConfig())

	snap, err := s.CreateOrJoin(context.Background(), "", "alice", JoinOptions{TestMode: true})
	require.NoError(t, err)
	assert.NotEmpty(t, snap.GameID)
}

// TestAutoStartAtCapacity 测试满座自动开局
func TestAutoStartAtCapacity(t *testing.T) {
	s, _ := newTestService(t, quietConfig())
	ctx := context.Background()

	names := []string{"p1", "p2", "p3", "p4", "p5", "p6"}
	var snap *beggar.Snapshot
	var err error
	for _, n := range names {
		snap, err = s.CreateOrJoin(ctx, "g1", n, JoinOptions{TestMode: true})
		require.NoError(t, err)
	}
	assert.Equal(t, beggar.StatusPlaying, snap.Status)

	// 满座后再加入被拒
	_, err = s.CreateOrJoin(ctx, "g1", "p7", JoinOptions{TestMode: true})
	assert.ErrorIs(t, err, beggar.ErrNotWaiting)
}

// TestStartManually 测试手动开局
func TestStartManually(t *testing.T) {
	s, _ := newTestService(t, quietConfig())
	ctx := context.Background()

	for _, n := range []string{"alice", "bob", "carol"} {
		_, err := s.CreateOrJoin(ctx, "g1", n, JoinOptions{TestMode: true})
		require.NoError(t, err)
	}

	snap, err := s.Start(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.Equal(t, beggar.StatusPlaying, snap.Status)

	total := 0
	for _, p := range snap.Players {
		total += p.HandCount
	}
	assert.Equal(t, beggar.DeckSize, total)
}

// TestSinglePlayerSeedsBots 测试单人模式自动补机器人并开局
func TestSinglePlayerSeedsBots(t *testing.T) {
	s, _ := newTestService(t, quietConfig())

	snap, err := s.CreateOrJoin(context.Background(), "g1", "alice", JoinOptions{TestMode: true, SinglePlayer: true})
	require.NoError(t, err)

	require.Len(t, snap.Players, 3)
	assert.Equal(t, beggar.StatusPlaying, snap.Status)
	bots := 0
	for _, p := range snap.Players {
		if p.IsBot {
			bots++
		}
	}
	assert.Equal(t, 2, bots)
	assert.False(t, snap.Players[0].IsBot, "human takes the first seat")
}

// TestEventOrder 测试终局时的事件顺序
func TestEventOrder(t *testing.T) {
	s, pub := newTestService(t, quietConfig())
	ctx := context.Background()

	for _, n := range []string{"alice", "bob", "carol"} {
		_, err := s.CreateOrJoin(ctx, "g1", n, JoinOptions{TestMode: true})
		require.NoError(t, err)
	}
	_, err := s.Start(ctx, "g1", "alice")
	require.NoError(t, err)

	setHands(t, s, "g1", map[string]beggar.Cards{
		"alice": {beggar.NewCard(beggar.RankK, beggar.SuitClub)},
		"bob":   {beggar.NewCard(beggar.RankA, beggar.SuitClub)},
		"carol": {beggar.NewCard(beggar.Rank3, beggar.SuitSpade), beggar.NewCard(beggar.Rank4, beggar.SuitHeart)},
	})

	playCards(t, s, "g1", "alice", beggar.NewCard(beggar.RankK, beggar.SuitClub))

	pub.Drop("g1")
	snap := playCards(t, s, "g1", "bob", beggar.NewCard(beggar.RankA, beggar.SuitClub))
	assert.Equal(t, beggar.StatusFinished, snap.Status)

	events := pub.Events("g1")
	require.Len(t, events, 4)
	assert.Equal(t, broadcast.EventTitleAwarded, events[0].Type) // bob 智者
	assert.Equal(t, broadcast.EventTitleAwarded, events[1].Type) // carol 乞丐
	assert.Equal(t, broadcast.EventGameOver, events[2].Type)
	assert.Equal(t, broadcast.EventState, events[3].Type)

	over := events[2].Payload.(GameOverPayload)
	require.Len(t, over.Standings, 3)
	assert.Equal(t, "king", over.Standings[0].Title)
	assert.Equal(t, "wise", over.Standings[1].Title)
	assert.Equal(t, "beggar", over.Standings[2].Title)
}

// TestRestartService 测试结算后重开
func TestRestartService(t *testing.T) {
	s, _ := newTestService(t, quietConfig())
	ctx := context.Background()

	for _, n := range []string{"alice", "bob", "carol"} {
		_, err := s.CreateOrJoin(ctx, "g1", n, JoinOptions{TestMode: true})
		require.NoError(t, err)
	}
	_, err := s.Start(ctx, "g1", "alice")
	require.NoError(t, err)

	// 重开要求已结束
	_, err = s.Restart(ctx, "g1", "alice")
	assert.ErrorIs(t, err, beggar.ErrNotFinished)

	setHands(t, s, "g1", map[string]beggar.Cards{
		"alice": {beggar.NewCard(beggar.RankK, beggar.SuitClub)},
		"bob":   {beggar.NewCard(beggar.RankA, beggar.SuitClub)},
		"carol": {beggar.NewCard(beggar.Rank3, beggar.SuitSpade)},
	})
	playCards(t, s, "g1", "alice", beggar.NewCard(beggar.RankK, beggar.SuitClub))
	playCards(t, s, "g1", "bob", beggar.NewCard(beggar.RankA, beggar.SuitClub))

	snap, err := s.Restart(ctx, "g1", "carol")
	require.NoError(t, err)
	assert.Equal(t, beggar.StatusPlaying, snap.Status)
	// 智者（bob，座位 1）先出
	assert.Equal(t, 1, snap.Turn)
	for _, p := range snap.Players {
		assert.Positive(t, p.HandCount)
		assert.Equal(t, "none", p.Title)
	}
}

// TestLeaveWaiting 测试开局前离开直接解散整局
func TestLeaveWaiting(t *testing.T) {
	s, _ := newTestService(t, quietConfig())
	ctx := context.Background()

	for _, n := range []string{"alice", "bob"} {
		_, err := s.CreateOrJoin(ctx, "g1", n, JoinOptions{TestMode: true})
		require.NoError(t, err)
	}

	_, err := s.Leave(ctx, "g1", "alice")
	require.NoError(t, err)
	_, err = s.Snapshot(ctx, "g1")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

// TestLeaveRunningAbandons 测试进行中退出导致整局解散
func TestLeaveRunningAbandons(t *testing.T) {
	s, pub := newTestService(t, quietConfig())
	ctx := context.Background()

	for _, n := range []string{"alice", "bob", "carol"} {
		_, err := s.CreateOrJoin(ctx, "g1", n, JoinOptions{TestMode: true})
		require.NoError(t, err)
	}
	_, err := s.Start(ctx, "g1", "alice")
	require.NoError(t, err)

	_, err = s.Leave(ctx, "g1", "nobody")
	assert.ErrorIs(t, err, beggar.ErrNotSeated)

	_, err = s.Leave(ctx, "g1", "bob")
	require.NoError(t, err)

	_, err = s.Snapshot(ctx, "g1")
	assert.ErrorIs(t, err, ErrGameNotFound)

	events := pub.Events("g1")
	var left *broadcast.Event
	for _, e := range events {
		if e.Type == broadcast.EventPlayerLeft {
			left = e
		}
	}
	require.NotNil(t, left)
	assert.True(t, left.Payload.(PlayerLeftPayload).Abandoned)
}

// TestLeaveFinished 测试结算后逐个离开
func TestLeaveFinished(t *testing.T) {
	s, _ := newTestService(t, quietConfig())
	ctx := context.Background()

	for _, n := range []string{"alice", "bob", "carol"} {
		_, err := s.CreateOrJoin(ctx, "g1", n, JoinOptions{TestMode: true})
		require.NoError(t, err)
	}
	_, err := s.Start(ctx, "g1", "alice")
	require.NoError(t, err)

	setHands(t, s, "g1", map[string]beggar.Cards{
		"alice": {beggar.NewCard(beggar.RankK, beggar.SuitClub)},
		"bob":   {beggar.NewCard(beggar.RankA, beggar.SuitClub)},
		"carol": {beggar.NewCard(beggar.Rank3, beggar.SuitSpade)},
	})
	playCards(t, s, "g1", "alice", beggar.NewCard(beggar.RankK, beggar.SuitClub))
	snap := playCards(t, s, "g1", "bob", beggar.NewCard(beggar.RankA, beggar.SuitClub))
	require.Equal(t, beggar.StatusFinished, snap.Status)

	snap, err = s.Leave(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.Len(t, snap.Players, 2)

	snap, err = s.Leave(ctx, "g1", "bob")
	require.NoError(t, err)
	assert.Len(t, snap.Players, 1)

	_, err = s.Leave(ctx, "g1", "carol")
	require.NoError(t, err)
	_, err = s.Snapshot(ctx, "g1")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

// TestStaleTimerDropped 测试过期定时器回调被丢弃
func TestStaleTimerDropped(t *testing.T) {
	s, _ := newTestService(t, quietConfig())
	ctx := context.Background()

	for _, n := range []string{"alice", "bob", "carol"} {
		_, err := s.CreateOrJoin(ctx, "g1", n, JoinOptions{})
		require.NoError(t, err)
	}
	snap, err := s.Start(ctx, "g1", "alice")
	require.NoError(t, err)

	current := snap.Players[snap.Turn].ID

	// 纪元不符的回调不得改变任何状态
	s.autoPlay("g1", current, snap.Epoch+5)
	after, err := s.Snapshot(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, snap.Epoch, after.Epoch)

	// 出牌人不符同样被丢弃
	other := snap.Players[(snap.Turn+1)%len(snap.Players)].ID
	s.autoPlay("g1", other, snap.Epoch)
	after, err = s.Snapshot(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, snap.Epoch, after.Epoch)
}

// TestAutoPlayOnTimeout 测试倒计时到期的代打
func TestAutoPlayOnTimeout(t *testing.T) {
	s, _ := newTestService(t, quietConfig())
	ctx := context.Background()

	for _, n := range []string{"alice", "bob", "carol"} {
		_, err := s.CreateOrJoin(ctx, "g1", n, JoinOptions{})
		require.NoError(t, err)
	}
	snap, err := s.Start(ctx, "g1", "alice")
	require.NoError(t, err)

	// 领出时超时：代打最省的一手
	leader := snap.Players[snap.Turn].ID
	s.autoPlay("g1", leader, snap.Epoch)
	after, err := s.Snapshot(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, after.Pile, 1)
	assert.Greater(t, after.Epoch, snap.Epoch)

	// 跟牌时超时：自动过牌
	follower := after.Players[after.Turn].ID
	s.autoPlay("g1", follower, after.Epoch)
	passed, err := s.Snapshot(ctx, "g1")
	require.NoError(t, err)
	assert.Contains(t, passed.Passed, follower)
}

// TestSinglePlayerGameCompletes 测试单人模式整局自动打完
func TestSinglePlayerGameCompletes(t *testing.T) {
	cfg := quietConfig()
	cfg.TurnTimeout = 5 * time.Millisecond
	cfg.BotDelay = time.Millisecond
	s, pub := newTestService(t, cfg)

	snap, err := s.CreateOrJoin(context.Background(), "g1", "alice", JoinOptions{SinglePlayer: true})
	require.NoError(t, err)
	require.Equal(t, beggar.StatusPlaying, snap.Status)

	assert.Eventually(t, func() bool {
		for _, e := range pub.Events("g1") {
			if e.Type == broadcast.EventGameOver {
				return true
			}
		}
		return false
	}, 15*time.Second, 20*time.Millisecond, "timers and bots should drive the game to completion")
}
