package arena

import (
	"sync"
	"time"
)

// Scheduler 每局一个待触发的定时器（出牌倒计时或机器人出手停顿）
// 新的挂载会顶掉旧的；回调自带回合纪元，触发时由持有方在游戏锁内
// 核对纪元，过期回调直接丢弃，所以这里的取消只是尽早释放资源。
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewScheduler 创建调度器
func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[string]*time.Timer)}
}

// Arm 为某局挂一个定时器，替换已有的
func (s *Scheduler) Arm(gameID string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if t, ok := s.timers[gameID]; ok {
		t.Stop()
	}
	// 已触发的旧定时器可能与新定时器竞争清理，按身份比对后再摘除
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		if s.timers[gameID] == t {
			delete(s.timers, gameID)
		}
		s.mu.Unlock()
		fn()
	})
	s.timers[gameID] = t
}

// Cancel 取消某局的定时器
func (s *Scheduler) Cancel(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[gameID]; ok {
		t.Stop()
		delete(s.timers, gameID)
	}
}

// Close 停掉所有定时器，之后的 Arm 不再生效
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
