package engine

import (
	"github.com/siggame/Cerveau-sub002/internal/sanitize"
)

// wireValue приводит санитизированное значение к сетевому виду: игровые
// объекты сворачиваются в ссылки {id}, контейнеры обходятся рекурсивно.
func wireValue(v any) any {
	switch t := v.(type) {
	case sanitize.Object:
		return map[string]any{"id": t.ObjectID()}
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = wireValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = wireValue(e)
		}
		return out
	default:
		return v
	}
}
