// Package gameobject содержит базовую модель игровых сущностей: Game,
// Player и встраиваемую основу GameObject, а также таблицу диспетчеризации
// действий, через которую проходят все run-вызовы клиентов.
package gameobject

// Object реализует каждая отслеживаемая игровая сущность.
type Object interface {
	ObjectID() string
	ObjectName() string

	// Snapshot возвращает сериализованное состояние объекта: плоское дерево
	// из map/list/скаляров, где ссылки на другие объекты свернуты в {id}.
	Snapshot() map[string]any
}

// GameObject это встраиваемая основа любой сущности: стабильный ID, имя
// конкретного типа и append-only лог. Поля id/name назначает Game.Track
// ровно один раз, при конструировании объекта.
type GameObject struct {
	id   string
	name string
	Logs []string

	game *Game
}

func (o *GameObject) ObjectID() string   { return o.id }
func (o *GameObject) ObjectName() string { return o.name }

// Game возвращает игру-владельца (обратная ссылка, не владение).
func (o *GameObject) Game() *Game { return o.game }

// Log добавляет строку в лог объекта. Логи попадают в снапшоты и,
// следовательно, в дельты для клиентов.
func (o *GameObject) Log(msg string) {
	o.Logs = append(o.Logs, msg)
}

// BaseSnapshot сериализует общие атрибуты. Конкретные типы расширяют
// результат своими полями.
func (o *GameObject) BaseSnapshot() map[string]any {
	logs := make([]any, len(o.Logs))
	for i, l := range o.Logs {
		logs[i] = l
	}
	return map[string]any{
		"id":             o.id,
		"gameObjectName": o.name,
		"logs":           logs,
	}
}

// Ref сворачивает объект в ссылку {id} для сериализации. nil остается nil.
func Ref(o Object) any {
	if o == nil {
		return nil
	}
	return map[string]any{"id": o.ObjectID()}
}
