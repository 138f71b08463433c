// Package bot 实现启发式机器人：枚举合法出法、纯函数评分、
// 带随机性的战略性过牌。引擎只读局面，不修改任何游戏状态。
package bot

import (
	"math/rand/v2"

	"github.com/play/beggar/pkg/beggar"
)

// Move 机器人的一次决策
type Move struct {
	Pass   bool         `json:"pass"`
	Cards  beggar.Cards `json:"cards,omitempty"`
	Reason string       `json:"reason"`
	Score  float64      `json:"score,omitempty"`
}

// Engine 机器人引擎，可被多局共用
type Engine struct {
	cfg Config
	rng *rand.Rand
}

// New 创建引擎，rng 为 nil 时使用全局随机源（测试注入固定种子）
func New(cfg Config, rng *rand.Rand) *Engine {
	return &Engine{cfg: cfg, rng: rng}
}

// Decide 为当前局面给出决策
// 无合法出法时强制过牌；开轮时必须出牌；跟牌时按配置概率
// 战略性过牌（顶牌不大且自己手牌还多时故意不接）。
func (e *Engine) Decide(hand beggar.Cards, top *beggar.Pattern, family beggar.Family, runLength int, ctx Context) Move {
	plays := LegalPlays(hand, top, family, runLength)
	if len(plays) == 0 {
		return Move{Pass: true, Reason: "no legal play"}
	}

	if !ctx.RoundStart && e.strategicPass(ctx) {
		return Move{Pass: true, Reason: "strategic pass"}
	}

	best := plays[0]
	bestPattern, _ := beggar.Classify(best)
	bestScore := Score(bestPattern, ctx, e.cfg)
	for _, p := range plays[1:] {
		pattern, _ := beggar.Classify(p)
		if s := Score(pattern, ctx, e.cfg); s > bestScore {
			best, bestScore = p, s
		}
	}
	return Move{Cards: best, Reason: "best scored play", Score: bestScore}
}

// strategicPass 判断是否故意过牌：顶牌强度不高、自己手牌还多时
// 按配置概率放弃跟牌，把小牌留给后面的轮次。
func (e *Engine) strategicPass(ctx Context) bool {
	if ctx.TopStrength >= e.cfg.HighCardThreshold {
		return false
	}
	if ctx.HandSize < e.cfg.LargeHandFloor {
		return false
	}
	return e.randFloat() < e.cfg.PassProbability
}

func (e *Engine) randFloat() float64 {
	if e.rng != nil {
		return e.rng.Float64()
	}
	return rand.Float64()
}
