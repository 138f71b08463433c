package arena

import (
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/play/beggar/pkg/bot"
)

// Config 竞技场运行参数
type Config struct {
	TurnTimeout time.Duration // 真人出牌倒计时，超时自动过牌/代打
	BotDelay    time.Duration // 机器人出手前的停顿
	IdleTTL     time.Duration // 无任何命令后游戏被回收的时长
	MaxGames    int           // 同时承载的游戏上限
	CommandRate int           // 每个玩家每秒允许的命令数
	Bot         bot.Config
}

// DefaultConfig 默认运行参数
func DefaultConfig() Config {
	return Config{
		TurnTimeout: 30 * time.Second,
		BotDelay:    1500 * time.Millisecond,
		IdleTTL:     30 * time.Minute,
		MaxGames:    10000,
		CommandRate: 20,
		Bot:         bot.DefaultConfig(),
	}
}

// LoadConfig 从 viper 读取运行参数，未配置的项取默认值
func LoadConfig() Config {
	cfg := DefaultConfig()

	viper.SetDefault("arena.turn_timeout", cfg.TurnTimeout)
	viper.SetDefault("arena.bot_delay", cfg.BotDelay)
	viper.SetDefault("arena.idle_ttl", cfg.IdleTTL)
	viper.SetDefault("arena.max_games", cfg.MaxGames)
	viper.SetDefault("arena.command_rate", cfg.CommandRate)

	cfg.TurnTimeout = viper.GetDuration("arena.turn_timeout")
	cfg.BotDelay = viper.GetDuration("arena.bot_delay")
	cfg.IdleTTL = viper.GetDuration("arena.idle_ttl")
	cfg.MaxGames = viper.GetInt("arena.max_games")
	cfg.CommandRate = viper.GetInt("arena.command_rate")

	if v := viper.Get("arena.bot.aggressiveness"); v != nil {
		cfg.Bot.Aggressiveness = cast.ToFloat64(v)
	}
	if v := viper.Get("arena.bot.pass_probability"); v != nil {
		cfg.Bot.PassProbability = cast.ToFloat64(v)
	}
	if v := viper.Get("arena.bot.large_hand_floor"); v != nil {
		cfg.Bot.LargeHandFloor = cast.ToInt(v)
	}

	return cfg
}
