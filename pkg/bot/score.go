package bot

import "github.com/play/beggar/pkg/beggar"

// Context 评分所需的局面信息
type Context struct {
	HandSize    int   // 自己的手牌数（含待出的牌）
	Opponents   []int // 其他仍握牌玩家的手牌数
	RoundStart  bool  // 是否由自己开轮
	TopStrength uint8 // 牌堆顶的强度，空堆为 0
}

// Config 机器人风格参数
type Config struct {
	Aggressiveness    float64 // 越高越倾向打大牌
	PassProbability   float64 // 战略性过牌的概率
	HighCardThreshold uint8   // 顶牌强度达到该值就不再战略性过牌
	LargeHandFloor    int     // 手牌少于该数时不再战略性过牌
}

// DefaultConfig 默认风格
func DefaultConfig() Config {
	return Config{
		Aggressiveness:    0.5,
		PassProbability:   0.15,
		HighCardThreshold: uint8(beggar.RankJ),
		LargeHandFloor:    5,
	}
}

// 评分权重
const (
	scorePerCard           = 10.0 // 多出一张牌的基础收益
	scoreFinishBonus       = 100.0
	scoreStrengthCost      = 1.0 // 强度每高一点的保留成本
	scoreLeadSinglePenalty = 1.5 // 开轮打高价值单张的额外惩罚
	scoreJokerCost         = 18.0
	scoreDetailsCost       = 60.0
	scorePressureBonus     = 25.0 // 有对手只剩一两张时打大牌的加成
)

// Score 对一手候选出牌打分，分高者优先
// 纯函数：相同输入恒给相同分数，随机性只存在于引擎的过牌决策。
func Score(p *beggar.Pattern, ctx Context, cfg Config) float64 {
	s := float64(p.Length) * scorePerCard

	// 大牌留到后面，强度越高惩罚越重；激进风格和手牌见底削弱这一项
	urgency := 1.0
	if ctx.HandSize <= cfg.LargeHandFloor {
		urgency = 0.5
	}
	s -= float64(p.Strength) * scoreStrengthCost * (1.5 - cfg.Aggressiveness) * urgency

	// 开轮优先甩低价值多张，高价值单张重罚
	if ctx.RoundStart && p.Family == beggar.FamilySingle {
		s -= float64(p.Strength) * scoreLeadSinglePenalty
	}

	for _, c := range p.Cards {
		switch c.Kind {
		case beggar.KindJoker:
			s -= scoreJokerCost * (1.5 - cfg.Aggressiveness)
		case beggar.KindDetails:
			s -= scoreDetailsCost * (1.5 - cfg.Aggressiveness)
		}
	}

	if ctx.HandSize == p.Length {
		s += scoreFinishBonus
	}

	// 有人快出完时压制优先，大牌的保留成本被对冲
	for _, n := range ctx.Opponents {
		if n > 0 && n <= 2 {
			s += float64(p.Strength) * scoreStrengthCost
			s += scorePressureBonus
			break
		}
	}

	return s
}
