package gameobject

import (
	"github.com/siggame/Cerveau-sub002/internal/sanitize"
	"github.com/siggame/Cerveau-sub002/internal/settings"
)

// GameDef это контракт "игрового класса", который потребляет ядро: схема
// настроек, фабрика контента, таблицы действий и AI-функций, хуки хода.
// Per-сессию создается свежий экземпляр (замыкания хуков могут держать
// состояние конкретной партии).
type GameDef struct {
	Name        string
	PlayerCount int

	// Schema декларирует настраиваемые параметры игры.
	Schema settings.Schema

	// Orders декларирует AI-функции, которые сервер может заказывать
	// клиентам, с их сигнатурами.
	Orders map[string]OrderDef

	// Actions таблица диспетчеризации run-вызовов:
	// gameObjectName -> functionName -> действие. Поиск по строковому ключу
	// с явной веткой "не найдено" - никакой рефлексии.
	Actions map[string]map[string]Action

	// Build выполняет игро-специфичную часть конструирования (генерация
	// карты, начальные сущности). Игроки к этому моменту уже созданы.
	Build func(g *Game) error

	// SnapshotExtra добавляет игро-специфичные корневые ключи в снапшот.
	SnapshotExtra func(g *Game) map[string]any

	// Хуки хода и условий победы для менеджера игры.
	BeforeTurn func(g *Game)
	AfterTurn  func(g *Game)

	// CheckWin проверяет первичное условие победы после каждого хода и
	// объявляет исход через Decider.
	CheckWin func(g *Game, d Decider)

	// SecondaryWin вызывается при достижении потолка ходов, если исход еще
	// не определен. Если и после него никто не объявлен, менеджер разрешает
	// партию подбрасыванием монеты.
	SecondaryWin func(g *Game, d Decider, reason string)
}

// OrderDef сигнатура одной AI-функции клиента.
type OrderDef struct {
	Args    []Arg
	Returns *sanitize.Type
}

// Arg именованный аргумент действия или ордера.
type Arg struct {
	Name string
	Type *sanitize.Type
}

// Action одно действие игрового объекта: схема аргументов, тип результата
// и пара (validate, execute).
type Action struct {
	Args    []Arg
	Returns *sanitize.Type

	// Validate может отклонить вызов (Reason), подменить аргументы (Args)
	// или одобрить без изменений (nil). Состояние игры при отклонении не
	// меняется.
	Validate func(player *Player, caller Object, args []any) *Invalidation

	// Execute выполняет действие и возвращает сырой результат, который
	// будет санитизирован против Returns.
	Execute func(player *Player, caller Object, args []any) any
}

// Invalidation результат проверки действия.
type Invalidation struct {
	// Reason непустая строка отклоняет вызов и уходит клиенту в invalid.
	Reason string

	// Args ненулевой срез подменяет аргументы перед выполнением.
	Args []any
}

// Decider позволяет правилам игры объявлять исходы, не зная движка.
// Реализуется менеджером игры.
type Decider interface {
	DeclareWinner(p *Player, reason string)
	DeclareLoser(p *Player, reason string)
	CoinFlipWinner(reason string)
}

// Find возвращает действие по имени объекта и функции.
func (d *GameDef) Find(objectName, functionName string) (Action, bool) {
	byObject, ok := d.Actions[objectName]
	if !ok {
		return Action{}, false
	}
	a, ok := byObject[functionName]
	return a, ok
}

// ResolveArgs собирает позиционные аргументы действия из именованной карты,
// мягко санитизируя каждый против декларированного типа.
func (a Action) ResolveArgs(san *sanitize.Sanitizer, named map[string]any) []any {
	args := make([]any, len(a.Args))
	for i, arg := range a.Args {
		args[i] = san.Value(arg.Type, named[arg.Name])
	}
	return args
}
