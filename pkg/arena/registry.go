package arena

import (
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/play/beggar/pkg/beggar"
)

var ErrGameNotFound = errors.New("game not found")

const shardCount = 16

// entry 一局游戏及其串行锁
type entry struct {
	mu   sync.Mutex
	game *beggar.Game
}

type shard struct {
	mu    sync.RWMutex
	games map[string]*entry
}

// Registry 分片的游戏注册表
// 同一局的命令经 entry 锁串行执行，不相关的局互不阻塞；
// 没有全局锁，查找只持有所在分片的读锁。
// 空闲局由带 TTL 的 LRU 跟踪，超时或超容量时被回收。
type Registry struct {
	shards   [shardCount]*shard
	idle     *expirable.LRU[string, struct{}]
	onRemove func(gameID string) // 回收时通知持有方（取消定时器等）
}

// NewRegistry 创建注册表
// maxGames 为同时承载的游戏上限，idleTTL 为无命令后的回收时长，
// onRemove 在游戏被回收或显式移除时回调（可为 nil）。
func NewRegistry(maxGames int, idleTTL time.Duration, onRemove func(gameID string)) *Registry {
	r := &Registry{onRemove: onRemove}
	for i := range r.shards {
		r.shards[i] = &shard{games: make(map[string]*entry)}
	}
	r.idle = expirable.NewLRU(maxGames, func(gameID string, _ struct{}) {
		if r.drop(gameID) {
			log.Warn().Str("game_id", gameID).Msg("idle game evicted")
			if r.onRemove != nil {
				r.onRemove(gameID)
			}
		}
	}, idleTTL)
	return r
}

func (r *Registry) shardFor(gameID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(gameID))
	return r.shards[h.Sum32()%shardCount]
}

// With 在某局的串行锁内执行 fn，局不存在时返回 ErrGameNotFound
func (r *Registry) With(gameID string, fn func(g *beggar.Game) error) error {
	s := r.shardFor(gameID)
	s.mu.RLock()
	e, ok := s.games[gameID]
	s.mu.RUnlock()
	if !ok {
		return ErrGameNotFound
	}

	r.idle.Add(gameID, struct{}{})

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.game)
}

// WithCreate 同 With，局不存在时先用 create 创建
func (r *Registry) WithCreate(gameID string, create func() *beggar.Game, fn func(g *beggar.Game) error) error {
	s := r.shardFor(gameID)
	s.mu.Lock()
	e, ok := s.games[gameID]
	if !ok {
		e = &entry{game: create()}
		s.games[gameID] = e
	}
	s.mu.Unlock()

	r.idle.Add(gameID, struct{}{})

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.game)
}

// Remove 显式移除一局游戏
func (r *Registry) Remove(gameID string) {
	if r.drop(gameID) {
		r.idle.Remove(gameID)
		if r.onRemove != nil {
			r.onRemove(gameID)
		}
	}
}

// drop 从分片中摘除，返回是否确实存在
func (r *Registry) drop(gameID string) bool {
	s := r.shardFor(gameID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[gameID]; !ok {
		return false
	}
	delete(s.games, gameID)
	return true
}

// Len 当前承载的游戏数
func (r *Registry) Len() int {
	n := 0
	for _, s := range r.shards {
		s.mu.RLock()
		n += len(s.games)
		s.mu.RUnlock()
	}
	return n
}
