package arena

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/play/beggar/pkg/beggar"
	"github.com/play/beggar/pkg/broadcast"
)

// TitleAwardedPayload title_awarded 事件内容
type TitleAwardedPayload struct {
	PlayerID string `json:"player_id"`
	Title    string `json:"title"`
}

// GameOverPayload game_over 事件内容
type GameOverPayload struct {
	Standings []beggar.Standing `json:"standings"`
}

// TurnTimerPayload turn_timer 事件内容
type TurnTimerPayload struct {
	PlayerID   string `json:"player_id"`
	DurationMs int64  `json:"duration_ms"`
	DeadlineAt int64  `json:"deadline_at"` // Unix 毫秒
}

// PlayerLeftPayload player_left 事件内容
type PlayerLeftPayload struct {
	PlayerID  string `json:"player_id"`
	Abandoned bool   `json:"abandoned"` // 进行中退出导致整局解散
}

// emit 发布一条事件，失败只记日志，不影响已提交的游戏状态
func (s *Service) emit(ctx context.Context, eventType, gameID string, payload any) {
	event := &broadcast.Event{
		Type:    eventType,
		GameID:  gameID,
		Payload: payload,
		At:      time.Now().UnixMilli(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("game_id", gameID).Str("type", eventType).Msg("failed to publish event")
	}
}
