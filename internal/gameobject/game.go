package gameobject

import (
	"strconv"

	"github.com/siggame/Cerveau-sub002/internal/sanitize"
)

// Game это корень игрового состояния одной сессии. Владеет игроками и
// реестром всех сущностей; реестр - обратный индекс для O(1) поиска по ID
// при (де)сериализации ссылок, владение остается за Game.
type Game struct {
	Name    string
	Session string

	// Settings финальные значения настроек после валидации схемы.
	Settings map[string]any

	// Players фиксируется на старте игры, порядок - порядок подключения.
	Players []*Player

	// Флаги жизненного цикла.
	Started bool
	Over    bool

	// Ход. CurrentTurn монотонно растет, MaxTurns - потолок из настроек.
	CurrentTurn        int
	MaxTurns           int
	currentPlayerIndex int

	objects map[string]Object
	nextID  int
}

// NewGame строит корневой объект. Игроков и контент добавляют
// соответственно движок (по слотам клиентов) и def.Build.
func NewGame(name, session string, settingsValues map[string]any) *Game {
	g := &Game{
		Name:     name,
		Session:  session,
		Settings: settingsValues,
		objects:  make(map[string]Object),
	}
	if mt, ok := settingsValues["maxTurns"].(int64); ok {
		g.MaxTurns = int(mt)
	}
	return g
}

// Track назначает объекту следующий последовательный ID и регистрирует его.
// Вызывается ровно один раз на объект, из его конструктора - никогда извне.
func (g *Game) Track(objectName string, o Object, base *GameObject) {
	base.id = strconv.Itoa(g.nextID)
	base.name = objectName
	base.game = g
	g.nextID++
	g.objects[base.id] = o
}

// ObjectByID реализует sanitize.Lookup.
func (g *Game) ObjectByID(id string) (sanitize.Object, bool) {
	o, ok := g.objects[id]
	if !ok {
		return nil, ok
	}
	return o, true
}

// Object возвращает сущность реестра как gameobject.Object.
func (g *Game) Object(id string) (Object, bool) {
	o, ok := g.objects[id]
	return o, ok
}

// Objects возвращает реестр. Читатели не должны его изменять.
func (g *Game) Objects() map[string]Object { return g.objects }

// AddPlayer создает и отслеживает игрока. Имя по приоритету: переопределение
// из настроек, имя из play-сообщения клиента, позиционный дефолт.
func (g *Game) AddPlayer(requestedName, clientType string) *Player {
	index := len(g.Players)
	name := requestedName
	if override, ok := g.Settings["playerNames"].(string); ok && override != "" {
		name = override
	}
	if name == "" {
		name = "Player " + strconv.Itoa(index)
	}

	p := &Player{
		Name:       name,
		ClientType: clientType,
		Index:      index,
	}
	if budget, ok := g.Settings["playerStartingTime"].(int64); ok {
		p.TimeRemaining = budget
	}
	g.Track("Player", p, &p.GameObject)
	g.Players = append(g.Players, p)
	return p
}

// CurrentPlayer возвращает игрока, чей сейчас ход.
func (g *Game) CurrentPlayer() *Player {
	if len(g.Players) == 0 {
		return nil
	}
	return g.Players[g.currentPlayerIndex]
}

// NextTurn передает ход следующему игроку по кругу. Возвращает false, когда
// достигнут потолок ходов: сигнал менеджеру игры разрешить партию вторичными
// условиями победы, а не жесткая остановка.
func (g *Game) NextTurn() bool {
	g.CurrentTurn++
	g.currentPlayerIndex = (g.currentPlayerIndex + 1) % len(g.Players)
	return g.MaxTurns <= 0 || g.CurrentTurn < g.MaxTurns
}

// Snapshot сериализует все состояние игры: корневые атрибуты, игроков
// ссылками и реестр объектов под общим узлом gameObjects, чтобы все
// состояние было достижимо из одного корня.
func (g *Game) Snapshot(extra map[string]any) map[string]any {
	players := make([]any, len(g.Players))
	for i, p := range g.Players {
		players[i] = Ref(p)
	}

	objects := make(map[string]any, len(g.objects))
	for id, o := range g.objects {
		objects[id] = o.Snapshot()
	}

	settings := make(map[string]any, len(g.Settings))
	for k, v := range g.Settings {
		settings[k] = v
	}

	var currentRef any
	if p := g.CurrentPlayer(); p != nil {
		currentRef = Ref(p)
	}

	snap := map[string]any{
		"name":          g.Name,
		"session":       g.Session,
		"currentTurn":   int64(g.CurrentTurn),
		"maxTurns":      int64(g.MaxTurns),
		"currentPlayer": currentRef,
		"players":       players,
		"gameObjects":   objects,
		"settings":      settings,
	}
	for k, v := range extra {
		snap[k] = v
	}
	return snap
}
