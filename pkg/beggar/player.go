package beggar

// Title 一手牌结束后按出完顺序授予的头衔
type Title uint8

const (
	TitleNone     Title = iota
	TitleKing           // 国王：第一个出完
	TitleWise           // 智者：第二个出完
	TitleCivilian       // 平民：其余出完的玩家
	TitleBeggar         // 乞丐：最后一个仍握牌的玩家（≥3 人局）
)

func (t Title) String() string {
	switch t {
	case TitleKing:
		return "king"
	case TitleWise:
		return "wise"
	case TitleCivilian:
		return "civilian"
	case TitleBeggar:
		return "beggar"
	default:
		return "none"
	}
}

// Player 玩家信息
// Hand 的顺序由客户端维护（界面排序），合法性判断与顺序无关。
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Hand  Cards  `json:"hand"`
	Title Title  `json:"title"`
	IsBot bool   `json:"is_bot"`
}

// NewPlayer 创建一个新玩家
func NewPlayer(id, name string, isBot bool) *Player {
	return &Player{ID: id, Name: name, IsBot: isBot}
}

// Active 是否仍握有手牌
func (p *Player) Active() bool {
	return len(p.Hand) > 0
}

// Titled 是否已获得头衔
func (p *Player) Titled() bool {
	return p.Title != TitleNone
}

// reset 清空一手牌相关的状态（重开时使用）
func (p *Player) reset() {
	p.Hand = nil
	p.Title = TitleNone
}
