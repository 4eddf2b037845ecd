// Package games это реестр встроенных игр сервера.
package games

import (
	"sort"

	"github.com/siggame/Cerveau-sub002/internal/gameobject"
	"github.com/siggame/Cerveau-sub002/internal/games/duel"
)

// Фабрики по имени игры. Каждая сессия получает свежий экземпляр
// определения: замыкания хуков держат состояние партии.
var factories = map[string]func() *gameobject.GameDef{
	"duel": duel.Def,
}

// New возвращает свежее определение игры по имени.
func New(name string) (*gameobject.GameDef, bool) {
	factory, ok := factories[name]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Names возвращает отсортированный список известных игр.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
