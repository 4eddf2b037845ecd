package gameobject

// Player это сущность одного подключенного клиента внутри игры.
type Player struct {
	GameObject

	Name       string
	ClientType string

	// Index место игрока в порядке подключения. Совпадает с индексом
	// клиентского слота в сессии.
	Index int

	// Итог партии. Причины - человеко-читаемые строки для гейм-лога.
	Won        bool
	Lost       bool
	ReasonWon  string
	ReasonLost string

	// TimeRemaining остаток временного бюджета в наносекундах. Тратится
	// только пока игрок "на часах".
	TimeRemaining int64
}

// Decided сообщает, определен ли уже итог для игрока.
func (p *Player) Decided() bool { return p.Won || p.Lost }

func (p *Player) Snapshot() map[string]any {
	snap := p.BaseSnapshot()
	snap["name"] = p.Name
	snap["clientType"] = p.ClientType
	snap["won"] = p.Won
	snap["lost"] = p.Lost
	snap["reasonWon"] = p.ReasonWon
	snap["reasonLost"] = p.ReasonLost
	snap["timeRemaining"] = p.TimeRemaining
	return snap
}
