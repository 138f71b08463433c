// Package broadcast 把游戏事件推送给下游消费者（网关、回放等）
// 命令处理只依赖 Publisher 接口，Redis 实现和内存实现可互换。
package broadcast

import "context"

// 事件类型
const (
	EventState        = "state"         // 命令成功后的完整状态投影
	EventTitleAwarded = "title_awarded" // 头衔授予，一次命令可能有多条
	EventGameOver     = "game_over"     // 全员定衔，附结算列表
	EventTurnTimer    = "turn_timer"    // 新的出牌倒计时已挂起
	EventPlayerLeft   = "player_left"   // 有玩家离开（结算后或中途退出）
)

// Event 一条对外广播的事件
type Event struct {
	Type    string `json:"type"`
	GameID  string `json:"game_id"`
	Payload any    `json:"payload,omitempty"`
	At      int64  `json:"at"` // Unix 毫秒
}

// Publisher 事件发布端口
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}
