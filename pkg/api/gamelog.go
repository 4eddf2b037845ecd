package api

// Gamelog это финализированная запись одной партии.
// Partия полностью восстанавливается применением Deltas по порядку,
// начиная с пустого объекта.
type Gamelog struct {
	// GameName название игры.
	GameName string `json:"gameName"`

	// GameSession идентификатор сессии.
	GameSession string `json:"gameSession"`

	// Deltas упорядоченная последовательность диффов состояния.
	Deltas []any `json:"deltas"`

	// Epoch время создания записи, Unix milliseconds.
	Epoch int64 `json:"epoch"`

	// Winners и Losers - индексы игроков в порядке подключения.
	Winners []int `json:"winners"`
	Losers  []int `json:"losers"`
}
