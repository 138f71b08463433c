// Package arena 承载多局游戏：分片注册表保证同局命令串行，
// 调度器驱动出牌倒计时和机器人出手，事件经 broadcast 推给下游。
package arena

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/play/beggar/pkg/beggar"
	"github.com/play/beggar/pkg/bot"
	"github.com/play/beggar/pkg/broadcast"
)

// 单人模式陪打的机器人数量
const singlePlayerBots = 2

// JoinOptions 创建/加入时的可选项，只在建局时生效
type JoinOptions struct {
	TestMode     bool
	SinglePlayer bool
}

// Service 对外的命令入口，六个动词对应客户端的六种请求
type Service struct {
	cfg       Config
	registry  *Registry
	scheduler *Scheduler
	publisher broadcast.Publisher
	bots      *bot.Engine
	limiter   *CommandLimiter
}

// NewService 创建服务
func NewService(cfg Config, publisher broadcast.Publisher) *Service {
	s := &Service{
		cfg:       cfg,
		scheduler: NewScheduler(),
		publisher: publisher,
		bots:      bot.New(cfg.Bot, nil),
		limiter:   NewCommandLimiter(cfg.CommandRate, time.Second),
	}
	s.registry = NewRegistry(cfg.MaxGames, cfg.IdleTTL, s.scheduler.Cancel)
	return s
}

// Close 停掉所有定时器
func (s *Service) Close() {
	s.scheduler.Close()
}

// CreateOrJoin 创建或加入一局游戏
// gameID 为空时新建一局；同名玩家重复请求幂等返回当前状态。
// 单人模式建局时自动补足机器人并立即开局；满座自动开局。
func (s *Service) CreateOrJoin(ctx context.Context, gameID, playerName string, opts JoinOptions) (*beggar.Snapshot, error) {
	if !s.limiter.Allow(playerName) {
		return nil, ErrRateLimited
	}
	if gameID == "" {
		gameID = uuid.NewString()
	}

	var snap *beggar.Snapshot
	err := s.registry.WithCreate(gameID, func() *beggar.Game {
		return beggar.NewGame(gameID, opts.TestMode, opts.SinglePlayer, nil)
	}, func(g *beggar.Game) error {
		if existing := g.PlayerByName(playerName); existing != nil {
			// 重入：返回当前状态，不改变任何东西
			snap = g.Snapshot()
			return nil
		}

		if _, err := g.Join(playerName, playerName, false); err != nil {
			log.Warn().Str("game_id", gameID).Str("player", playerName).Err(err).Msg("join rejected")
			return err
		}

		if g.SinglePlayer && len(g.Players) == 1 {
			for i := 1; i <= singlePlayerBots; i++ {
				if _, err := g.Join(uuid.NewString(), fmt.Sprintf("bot-%d", i), true); err != nil {
					return err
				}
			}
			if err := g.Start(playerName); err != nil {
				return err
			}
		} else if g.Full() {
			if err := g.Start(playerName); err != nil {
				return err
			}
		}

		s.afterCommand(ctx, g, nil)
		snap = g.Snapshot()
		return nil
	})
	return snap, err
}

// Start 手动开局（人数达到下限即可，不必满座）
func (s *Service) Start(ctx context.Context, gameID, playerID string) (*beggar.Snapshot, error) {
	return s.command(ctx, gameID, playerID, func(g *beggar.Game) ([]beggar.TitleAward, error) {
		return nil, g.Start(playerID)
	})
}

// Play 出牌
func (s *Service) Play(ctx context.Context, gameID, playerID string, cards, resulting beggar.Cards) (*beggar.Snapshot, error) {
	return s.command(ctx, gameID, playerID, func(g *beggar.Game) ([]beggar.TitleAward, error) {
		_, awards, err := g.Play(playerID, cards, resulting)
		return awards, err
	})
}

// Pass 过牌
func (s *Service) Pass(ctx context.Context, gameID, playerID string) (*beggar.Snapshot, error) {
	return s.command(ctx, gameID, playerID, func(g *beggar.Game) ([]beggar.TitleAward, error) {
		_, err := g.Pass(playerID)
		return nil, err
	})
}

// Restart 结算后重开一局
func (s *Service) Restart(ctx context.Context, gameID, playerID string) (*beggar.Snapshot, error) {
	return s.command(ctx, gameID, playerID, func(g *beggar.Game) ([]beggar.TitleAward, error) {
		return nil, g.Restart(playerID)
	})
}

// Leave 离开游戏
// 未结束（等待或进行中）时退出导致整局解散；结算阶段只让出座位，
// 最后一个真人离开后整局回收。
func (s *Service) Leave(ctx context.Context, gameID, playerID string) (*beggar.Snapshot, error) {
	if !s.limiter.Allow(playerID) {
		return nil, ErrRateLimited
	}
	var snap *beggar.Snapshot
	var removeGame bool
	err := s.registry.With(gameID, func(g *beggar.Game) error {
		if g.Status != beggar.StatusFinished {
			if _, idx := g.PlayerByID(playerID); idx < 0 {
				return beggar.ErrNotSeated
			}
			log.Warn().Str("game_id", gameID).Str("player_id", playerID).Msg("player left an unfinished game")
			s.emit(ctx, broadcast.EventPlayerLeft, gameID, PlayerLeftPayload{PlayerID: playerID, Abandoned: true})
			removeGame = true
			return nil
		}

		left, err := g.RemovePlayer(playerID)
		if err != nil {
			return err
		}
		s.emit(ctx, broadcast.EventPlayerLeft, gameID, PlayerLeftPayload{PlayerID: playerID})

		humans := 0
		for _, p := range g.Players {
			if !p.IsBot {
				humans++
			}
		}
		if left == 0 || humans == 0 {
			removeGame = true
			return nil
		}
		snap = g.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if removeGame {
		s.registry.Remove(gameID)
	}
	return snap, nil
}

// Snapshot 读取一局游戏的当前状态，不产生任何变更
func (s *Service) Snapshot(_ context.Context, gameID string) (*beggar.Snapshot, error) {
	var snap *beggar.Snapshot
	err := s.registry.With(gameID, func(g *beggar.Game) error {
		snap = g.Snapshot()
		return nil
	})
	return snap, err
}

// command 在游戏锁内执行一次状态变更，成功后统一发事件、挂定时器
// 限流按发起命令的玩家计，机器人和定时器代打不经过这里。
func (s *Service) command(ctx context.Context, gameID, playerID string, fn func(g *beggar.Game) ([]beggar.TitleAward, error)) (*beggar.Snapshot, error) {
	if !s.limiter.Allow(playerID) {
		return nil, ErrRateLimited
	}
	var snap *beggar.Snapshot
	err := s.registry.With(gameID, func(g *beggar.Game) error {
		awards, err := fn(g)
		if err != nil {
			log.Warn().Str("game_id", gameID).Err(err).Msg("command rejected")
			return err
		}
		s.afterCommand(ctx, g, awards)
		snap = g.Snapshot()
		return nil
	})
	return snap, err
}

// afterCommand 命令成功后的统一收尾
// 事件顺序固定：头衔授予 → 终局 → 状态投影 → 新倒计时。
func (s *Service) afterCommand(ctx context.Context, g *beggar.Game, awards []beggar.TitleAward) {
	for _, a := range awards {
		s.emit(ctx, broadcast.EventTitleAwarded, g.ID, TitleAwardedPayload{PlayerID: a.PlayerID, Title: a.Title.String()})
	}
	if g.Status == beggar.StatusFinished {
		s.emit(ctx, broadcast.EventGameOver, g.ID, GameOverPayload{Standings: g.Standings()})
		s.scheduler.Cancel(g.ID)
	}

	s.emit(ctx, broadcast.EventState, g.ID, g.Snapshot())

	if g.Status == beggar.StatusPlaying && !g.TestMode {
		s.armTurn(ctx, g)
	}
}

// armTurn 为当前出牌玩家挂定时器
// 回调携带此刻的回合纪元；真人挂超时代打，机器人挂出手停顿。
func (s *Service) armTurn(ctx context.Context, g *beggar.Game) {
	current := g.CurrentPlayer()
	if current == nil {
		return
	}
	gameID, playerID, epoch := g.ID, current.ID, g.Epoch

	if current.IsBot {
		s.scheduler.Arm(gameID, s.cfg.BotDelay, func() {
			s.botMove(gameID, playerID, epoch)
		})
		return
	}

	s.scheduler.Arm(gameID, s.cfg.TurnTimeout, func() {
		s.autoPlay(gameID, playerID, epoch)
	})
	s.emit(ctx, broadcast.EventTurnTimer, gameID, TurnTimerPayload{
		PlayerID:   playerID,
		DurationMs: s.cfg.TurnTimeout.Milliseconds(),
		DeadlineAt: time.Now().Add(s.cfg.TurnTimeout).UnixMilli(),
	})
}

// autoPlay 出牌倒计时到期的代打：能过则过，必须领出时打最省的一手
func (s *Service) autoPlay(gameID, playerID string, epoch uint64) {
	ctx := context.Background()
	err := s.registry.With(gameID, func(g *beggar.Game) error {
		if g.Epoch != epoch || g.Status != beggar.StatusPlaying {
			log.Debug().Str("game_id", gameID).Uint64("epoch", epoch).Msg("stale turn timer dropped")
			return nil
		}
		current := g.CurrentPlayer()
		if current == nil || current.ID != playerID {
			return nil
		}

		if _, err := g.Pass(playerID); err != nil {
			if !errors.Is(err, beggar.ErrMustLead) {
				return err
			}
			plays := bot.LegalPlays(current.Hand, g.TopPattern(), g.Family, g.RunLength)
			if len(plays) == 0 {
				return beggar.ErrNoSuchPattern
			}
			resulting, _ := current.Hand.Remove(plays[0])
			_, awards, err := g.Play(playerID, plays[0], resulting)
			if err != nil {
				return err
			}
			log.Warn().Str("game_id", gameID).Str("player_id", playerID).Msg("turn timed out, lowest play forced")
			s.afterCommand(ctx, g, awards)
			return nil
		}

		log.Warn().Str("game_id", gameID).Str("player_id", playerID).Msg("turn timed out, auto passed")
		s.afterCommand(ctx, g, nil)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("game_id", gameID).Str("player_id", playerID).Msg("auto play failed")
	}
}

// botMove 机器人出手
func (s *Service) botMove(gameID, botID string, epoch uint64) {
	ctx := context.Background()
	err := s.registry.With(gameID, func(g *beggar.Game) error {
		if g.Epoch != epoch || g.Status != beggar.StatusPlaying {
			log.Debug().Str("game_id", gameID).Uint64("epoch", epoch).Msg("stale bot timer dropped")
			return nil
		}
		current := g.CurrentPlayer()
		if current == nil || current.ID != botID || !current.IsBot {
			return nil
		}

		top := g.TopPattern()
		botCtx := bot.Context{
			HandSize:   len(current.Hand),
			RoundStart: top == nil,
		}
		if top != nil {
			botCtx.TopStrength = top.Strength
		}
		for _, p := range g.Players {
			if p.ID != botID && p.Active() {
				botCtx.Opponents = append(botCtx.Opponents, len(p.Hand))
			}
		}

		move := s.bots.Decide(current.Hand, top, g.Family, g.RunLength, botCtx)
		log.Trace().Str("game_id", gameID).Str("bot_id", botID).Str("reason", move.Reason).Float64("score", move.Score).Msg("bot decided")
		if move.Pass {
			if _, err := g.Pass(botID); err != nil {
				return err
			}
			s.afterCommand(ctx, g, nil)
			return nil
		}

		resulting, _ := current.Hand.Remove(move.Cards)
		_, awards, err := g.Play(botID, move.Cards, resulting)
		if err != nil {
			return err
		}
		s.afterCommand(ctx, g, awards)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("game_id", gameID).Str("bot_id", botID).Msg("bot move failed")
	}
}
