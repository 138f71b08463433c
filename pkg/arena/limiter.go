package arena

import (
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var ErrRateLimited = errors.New("too many commands")

// rateLimit 单个玩家的命令限流器，线程安全
// 配额随时间匀速恢复，每条命令消耗一个单位。
type rateLimit struct {
	mu sync.Mutex

	rate, allowance, max, unit uint64
	lastCheck                  int64
}

func newRateLimit(rate int, per time.Duration) *rateLimit {
	nano := uint64(per)
	if nano < 1 {
		nano = uint64(time.Second)
	}
	if rate < 1 {
		rate = 1
	}
	return &rateLimit{
		rate:      uint64(rate),
		allowance: uint64(rate) * nano,
		max:       uint64(rate) * nano,
		unit:      nano,
		lastCheck: time.Now().UnixNano(),
	}
}

// limit 超过限流时返回 true
func (rl *rateLimit) limit() bool {
	now := time.Now().UnixNano()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	passed := now - rl.lastCheck
	rl.lastCheck = now

	rl.allowance += uint64(passed) * rl.rate
	if rl.allowance > rl.max {
		rl.allowance = rl.max
	}

	if rl.allowance < rl.unit {
		return true
	}
	rl.allowance -= rl.unit
	return false
}

// CommandLimiter 按玩家限流，限流器随玩家静默而过期
type CommandLimiter struct {
	rate     int
	per      time.Duration
	limiters *expirable.LRU[string, *rateLimit]
	mu       sync.Mutex
}

// NewCommandLimiter 创建命令限流器
// rate 为每个玩家在 per 时间窗口内允许的命令数。
func NewCommandLimiter(rate int, per time.Duration) *CommandLimiter {
	return &CommandLimiter{
		rate:     rate,
		per:      per,
		limiters: expirable.NewLRU[string, *rateLimit](100000, nil, 10*per),
	}
}

// Allow 某玩家是否还可以发命令
func (l *CommandLimiter) Allow(playerID string) bool {
	l.mu.Lock()
	rl, ok := l.limiters.Get(playerID)
	if !ok {
		rl = newRateLimit(l.rate, l.per)
		l.limiters.Add(playerID, rl)
	}
	l.mu.Unlock()
	return !rl.limit()
}
