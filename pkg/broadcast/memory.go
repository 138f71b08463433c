package broadcast

import (
	"context"
	"sync"
)

// MemoryPublisher 内存实现，单进程部署和测试使用
type MemoryPublisher struct {
	mu     sync.RWMutex
	events map[string][]*Event // key: gameID
}

// NewMemoryPublisher 创建内存事件发布器
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{events: make(map[string][]*Event)}
}

// Publish 追加一条事件
func (p *MemoryPublisher) Publish(_ context.Context, event *Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[event.GameID] = append(p.events[event.GameID], event)
	return nil
}

// Events 返回某局已发布的全部事件（副本）
func (p *MemoryPublisher) Events(gameID string) []*Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Event, len(p.events[gameID]))
	copy(out, p.events[gameID])
	return out
}

// Drop 清除某局的事件（游戏被移除时调用）
func (p *MemoryPublisher) Drop(gameID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.events, gameID)
}
