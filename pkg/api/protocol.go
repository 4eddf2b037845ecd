package api

import (
	"encoding/json"
)

// Message это единица обмена между сервером и клиентом.
// Каждое сообщение - JSON-объект {event, data}, где структура data
// зависит от события.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// New собирает сообщение, сериализуя data. Паникует только при
// несериализуемом data - это всегда ошибка программиста, не клиента.
func New(event string, data any) Message {
	if data == nil {
		return Message{Event: event}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		panic("api: unmarshalable event data for " + event + ": " + err.Error())
	}
	return Message{Event: event, Data: raw}
}

// События протокола.
const (
	// EventPlay первое сообщение клиента: с какой игрой и сессией его свести.
	EventPlay = "play"
	// EventLobbied ответ сервера: клиент принят в сессию, игра еще не началась.
	EventLobbied = "lobbied"
	// EventStart жизненный цикл: игра началась, у клиента есть playerID.
	EventStart = "start"
	// EventOrder сервер просит клиента вычислить что-то и ответить finished.
	EventOrder = "order"
	// EventFinished ответ клиента на order с тем же индексом.
	EventFinished = "finished"
	// EventRun клиент просит сервер выполнить действие игрового объекта.
	EventRun = "run"
	// EventRan ответ сервера на успешный run (data - санитизированный результат).
	EventRan = "ran"
	// EventInvalid отказ без дисконнекта: человеко-читаемая причина.
	EventInvalid = "invalid"
	// EventDelta минимальный структурный дифф состояния игры.
	EventDelta = "delta"
	// EventOver жизненный цикл: игра окончена. Отправляется ДО финализации гейм-лога.
	EventOver = "over"
	// EventFatal причина принудительного отключения клиента.
	EventFatal = "fatal"
)

// --- КЛИЕНТ -> СЕРВЕР ---

// PlayData данные первого сообщения клиента.
type PlayData struct {
	// GameName название игры, в которую клиент хочет играть. Обязательно.
	GameName string `json:"gameName"`

	// RequestedSession конкретная сессия, к которой клиент хочет
	// присоединиться. Пусто - лобби подберет или создаст сессию само.
	RequestedSession string `json:"requestedSession,omitempty"`

	// PlayerName имя, которое клиент просит для своего игрока.
	PlayerName string `json:"playerName,omitempty"`

	// ClientType свободная строка о клиенте (язык, версия). Только для логов.
	ClientType string `json:"clientType,omitempty"`

	// GameSettings переопределения настроек игры в формате query-строки
	// ("maxTurns=20&trackLength=12"). Валидируются строго: неизвестный ключ
	// или значение вне диапазона - отказ в создании сессии.
	GameSettings string `json:"gameSettings,omitempty"`
}

// Validate проверяет обязательные поля play-сообщения.
func (p PlayData) Validate() error {
	if p.GameName == "" {
		return ErrMissingField("gameName")
	}
	return nil
}

// FinishedData ответ клиента на order.
type FinishedData struct {
	// OrderIndex индекс ордера, на который клиент отвечает.
	OrderIndex int `json:"orderIndex"`

	// Returned вычисленное клиентом значение. Валидируется против
	// декларированного типа результата ордера.
	Returned json.RawMessage `json:"returned"`
}

// RunData запрос клиента выполнить действие игрового объекта.
type RunData struct {
	// Caller объект, метод которого вызывается. Передается ссылкой {id}.
	Caller CallerRef `json:"caller"`

	// FunctionName имя вызываемого действия.
	FunctionName string `json:"functionName"`

	// Args именованные аргументы. Санитизируются против схемы действия.
	Args map[string]any `json:"args"`
}

// CallerRef ссылка на игровой объект по его ID.
type CallerRef struct {
	ID string `json:"id"`
}

// --- СЕРВЕР -> КЛИЕНТ ---

// LobbiedData подтверждение принятия в сессию.
type LobbiedData struct {
	GameName    string `json:"gameName"`
	GameSession string `json:"gameSession"`
}

// StartData уведомление о старте игры.
type StartData struct {
	// PlayerID id объекта Player, которым управляет этот клиент.
	PlayerID string `json:"playerID"`
}

// OrderData запрос сервера вычислить что-то на стороне клиента.
type OrderData struct {
	// Name имя AI-функции клиента.
	Name string `json:"name"`

	// Index монотонный индекс ордера. Клиент обязан вернуть его в finished.
	// Один и тот же ордер может быть переотправлен с тем же индексом,
	// если предыдущий ответ не прошел валидацию.
	Index int `json:"index"`

	// Args позиционные аргументы, уже санитизированные сервером.
	Args []any `json:"args"`
}

// InvalidData причина отказа, не требующего отключения.
type InvalidData struct {
	Message string `json:"message"`
}

// FatalData причина принудительного отключения.
type FatalData struct {
	Message string `json:"message"`
}

// OverData уведомление об окончании игры.
type OverData struct {
	// GamelogFilename имя файла гейм-лога, если он уже сохранен.
	GamelogFilename string `json:"gamelogFilename,omitempty"`
}
