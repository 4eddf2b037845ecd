package engine

import (
	"math/rand"

	"github.com/siggame/Cerveau-sub002/internal/gameobject"
)

// Manager ведет исходы партии: кто выиграл, кто проиграл, закончилась ли
// игра. Реализует gameobject.Decider, чтобы логика конкретной игры могла
// объявлять победителей, не зная о сессии.
type Manager struct {
	game *gameobject.Game
	over bool
}

func NewManager(game *gameobject.Game) *Manager {
	return &Manager{game: game}
}

// IsOver сообщает, завершена ли партия.
func (m *Manager) IsOver() bool {
	return m.over
}

// DeclareWinner помечает игрока победителем. Первый победитель завершает
// партию и каскадом записывает нерешенным игрокам поражение. Повторное
// объявление по уже решенному игроку игнорируется.
func (m *Manager) DeclareWinner(p *gameobject.Player, reason string) {
	if !p.Decided() {
		p.Won = true
		p.ReasonWon = reason
	}
	m.checkOver()
}

// DeclareLoser помечает игрока проигравшим. Партия завершается, когда
// решены все игроки.
func (m *Manager) DeclareLoser(p *gameobject.Player, reason string) {
	if !p.Decided() {
		p.Lost = true
		p.ReasonLost = reason
	}
	m.checkOver()
}

// CoinFlipWinner разыгрывает победителя среди нерешенных игроков, когда
// все вторичные условия исчерпаны.
func (m *Manager) CoinFlipWinner(reason string) {
	undecided := m.undecided()
	if len(undecided) == 0 {
		m.checkOver()
		return
	}
	winner := undecided[rand.Intn(len(undecided))]
	for _, p := range undecided {
		if p != winner {
			m.DeclareLoser(p, "Lost the coin flip.")
		}
	}
	m.DeclareWinner(winner, reason)
}

func (m *Manager) undecided() []*gameobject.Player {
	var out []*gameobject.Player
	for _, p := range m.game.Players {
		if !p.Decided() {
			out = append(out, p)
		}
	}
	return out
}

// checkOver завершает партию, как только есть победитель или решены все.
// Победитель каскадом навешивает поражение остальным.
func (m *Manager) checkOver() {
	if m.over {
		return
	}
	anyWon := false
	for _, p := range m.game.Players {
		if p.Won {
			anyWon = true
			break
		}
	}
	if anyWon {
		for _, p := range m.game.Players {
			if !p.Decided() {
				p.Lost = true
				p.ReasonLost = "Other player won."
			}
		}
		m.over = true
		m.game.Over = true
		return
	}
	if len(m.undecided()) == 0 {
		m.over = true
		m.game.Over = true
	}
}

// InvalidateRun проверяет общие для всех игр условия запрета хода.
// Пустая строка означает, что вызов допустим.
func (m *Manager) InvalidateRun(player *gameobject.Player) string {
	if m.over {
		return "The game is over."
	}
	if current := m.game.CurrentPlayer(); current != nil && current != player {
		return "It is not your turn."
	}
	return ""
}

// PlayerForfeited обрабатывает выбытие игрока (разрыв или таймаут): игрок
// проигрывает, а если остался ровно один нерешенный - тот немедленно
// побеждает.
func (m *Manager) PlayerForfeited(player *gameobject.Player, lossReason, winReason string) {
	m.DeclareLoser(player, lossReason)
	if undecided := m.undecided(); len(undecided) == 1 {
		m.DeclareWinner(undecided[0], winReason)
	}
}
