package broadcast

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var ErrQueueFull = errors.New("event queue is full")

const (
	redisKeyPrefix   = "beggar:events:"
	defaultQueueSize = 1000 // 每局事件队列的默认长度上限
)

// RedisOption RedisPublisher 的配置选项函数
type RedisOption func(*RedisPublisher)

// WithQueueSize 设置 Publish 时检查的 Redis List 最大长度
// qs <= 0 表示不检查。
func WithQueueSize(qs int) RedisOption {
	return func(p *RedisPublisher) {
		p.queueSize = qs
	}
}

// RedisPublisher 把事件按局推入 Redis List，由网关 BLPOP 消费
type RedisPublisher struct {
	redisClient redis.Cmdable
	queueSize   int
}

// NewRedisPublisher 创建 Redis 事件发布器
func NewRedisPublisher(redisClient redis.Cmdable, opts ...RedisOption) *RedisPublisher {
	p := &RedisPublisher{
		redisClient: redisClient,
		queueSize:   defaultQueueSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func formatEventKey(gameID string) string {
	return redisKeyPrefix + gameID
}

// Publish 把事件推入该局的队列
// 队列超限时返回 ErrQueueFull，事件被丢弃，游戏状态不受影响。
func (p *RedisPublisher) Publish(ctx context.Context, event *Event) error {
	redisKey := formatEventKey(event.GameID)

	if p.queueSize > 0 {
		length, err := p.redisClient.LLen(ctx, redisKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Error().Err(err).Str("game_id", event.GameID).Msg("failed to get list length for queue size check")
			return fmt.Errorf("redis LLen failed: %w", err)
		}
		if length >= int64(p.queueSize) {
			log.Warn().Str("game_id", event.GameID).Str("type", event.Type).Int64("current_length", length).Int("queue_size_limit", p.queueSize).Msg("event dropped, queue size limit reached")
			return ErrQueueFull
		}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("game_id", event.GameID).Str("type", event.Type).Msg("failed to marshal event")
		return fmt.Errorf("json marshal failed: %w", err)
	}

	if err := p.redisClient.RPush(ctx, redisKey, payload).Err(); err != nil {
		log.Error().Err(err).Str("game_id", event.GameID).Str("type", event.Type).Msg("failed to publish event to redis")
		return fmt.Errorf("redis RPush failed: %w", err)
	}

	log.Trace().Str("game_id", event.GameID).Str("type", event.Type).Msg("event published")
	return nil
}
