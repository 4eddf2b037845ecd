package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/siggame/Cerveau-sub002/internal/delta"
	"github.com/siggame/Cerveau-sub002/internal/gameobject"
	"github.com/siggame/Cerveau-sub002/internal/network"
	"github.com/siggame/Cerveau-sub002/internal/sanitize"
	"github.com/siggame/Cerveau-sub002/internal/settings"
	"github.com/siggame/Cerveau-sub002/pkg/api"
	"github.com/siggame/Cerveau-sub002/pkg/logger"
)

// Saver финализирует гейм-лог. Имя файла детерминировано и вычислимо до
// записи, потому что событие over уходит клиентам раньше, чем лог ляжет
// на диск.
type Saver interface {
	Filename(gameName, session string, epoch int64) string
	Save(g *api.Gamelog) (string, error)
}

// slot это один клиентский слот сессии: игрок, его часы и его ордера.
type slot struct {
	player    *gameobject.Player
	clock     *Clock
	calls     *CallManager
	connected bool
}

func (sl *slot) syncTime() {
	sl.player.TimeRemaining = int64(sl.clock.Remaining())
}

// clientMessage сообщение клиента, снабженное индексом его слота.
type clientMessage struct {
	index int
	msg   api.Message
}

// Session это одна партия: игра, менеджер, подписчики и единственная
// горутина, которая владеет всем этим состоянием. Транспорт и лобби
// общаются с ней только через каналы (Deliver/Leave) до самого конца
// партии; Join и Start зовутся до запуска цикла и сериализуются лобби.
type Session struct {
	ID string

	def     *gameobject.GameDef
	game    *gameobject.Game
	manager *Manager
	san     *sanitize.Sanitizer
	hub     *network.Broadcaster
	state   *delta.State
	gamelog *api.Gamelog
	saver   Saver
	log     *logrus.Entry

	slots   []*slot
	started bool

	inbox   chan clientMessage
	expired chan int
	leaveCh chan int

	// done закрывается после финализации; освобождает всех, кто завис
	// на отправке в каналы сессии.
	done chan struct{}
}

// baseSchema это настройки, которые движок добавляет каждой игре поверх
// ее собственной схемы.
func baseSchema() settings.Schema {
	return settings.Schema{
		"playerStartingTime": {
			Default:     int64(60 * time.Second),
			Description: "Starting time bank of each player, in nanoseconds.",
			Min:         settings.Bound(0),
		},
		"maxTurns": {
			Default:     int64(200),
			Description: "Maximum number of turns before secondary win conditions decide the game.",
			Min:         settings.Bound(1),
		},
	}
}

// NewSession собирает партию из определения игры и строковых
// переопределений настроек. Ошибка настроек - отказ в создании сессии,
// не мягкая деградация.
func NewSession(def *gameobject.GameDef, overrides map[string]string, saver Saver) (*Session, error) {
	if def.PlayerCount < 1 {
		return nil, fmt.Errorf("engine: game %q declares no player slots", def.Name)
	}
	schema := baseSchema()
	for k, e := range def.Schema {
		schema[k] = e
	}
	values, err := schema.Validate(overrides)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	game := gameobject.NewGame(def.Name, id, values)
	s := &Session{
		ID:      id,
		def:     def,
		game:    game,
		manager: NewManager(game),
		san:     &sanitize.Sanitizer{Objects: game},
		hub:     network.NewBroadcaster(),
		state:   delta.NewState(delta.DefaultSentinels()),
		gamelog: &api.Gamelog{GameName: def.Name, GameSession: id},
		saver:   saver,
		log:     logger.Log.WithFields(logrus.Fields{"game": def.Name, "session": id}),
		inbox:   make(chan clientMessage, 256),
		expired: make(chan int, 8),
		leaveCh: make(chan int, 8),
		done:    make(chan struct{}),
	}
	return s, nil
}

// Game открывает состояние партии для чтения (статус, агент в тестах).
func (s *Session) Game() *gameobject.Game { return s.game }

// PlayerCount возвращает требуемое игрой число клиентов.
func (s *Session) PlayerCount() int { return s.def.PlayerCount }

// Over сообщает, финализирована ли партия.
func (s *Session) Over() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done закрывается после финализации партии.
func (s *Session) Done() <-chan struct{} { return s.done }

// Full сообщает, заняты ли живыми клиентами все слоты.
func (s *Session) Full() bool {
	if len(s.slots) < s.def.PlayerCount {
		return false
	}
	for _, sl := range s.slots {
		if !sl.connected {
			return false
		}
	}
	return true
}

// Open сообщает, может ли лобби посадить сюда еще одного клиента.
func (s *Session) Open() bool {
	if s.started || len(s.slots) >= s.def.PlayerCount {
		return false
	}
	for _, sl := range s.slots {
		if !sl.connected {
			return false
		}
	}
	return true
}

// Join сажает клиента в следующий свободный слот. Возвращает индекс слота
// и личный канал исходящих сообщений; закрытие канала означает, что сессия
// с клиентом закончила. Зовется только до Start.
func (s *Session) Join(requestedName, clientType string) (int, chan api.Message, error) {
	if !s.Open() {
		return 0, nil, errors.New("engine: session is not accepting clients")
	}
	p := s.game.AddPlayer(requestedName, clientType)
	index := p.Index

	clock := NewClock(time.Duration(p.TimeRemaining), func() {
		select {
		case s.expired <- index:
		case <-s.done:
		}
	})
	sl := &slot{player: p, clock: clock, connected: true}
	sl.calls = NewCallManager(
		p, s.def.Orders, s.san, clock,
		func(event string, data any) { s.hub.SendTo(index, api.New(event, data)) },
		func(reason string) { s.disconnect(index, reason) },
		s.log.WithField("player", p.Name),
	)
	s.slots = append(s.slots, sl)

	ch := s.hub.Register(index)
	s.hub.SendTo(index, api.New(api.EventLobbied, api.LobbiedData{
		GameName:    s.game.Name,
		GameSession: s.ID,
	}))
	return index, ch, nil
}

// Start запускает партию: строит контент, рассылает start и поднимает
// игровой цикл. После Start владение состоянием у горутины цикла.
func (s *Session) Start() error {
	if s.started {
		return errors.New("engine: session already started")
	}
	if !s.Full() {
		return errors.New("engine: session is not full")
	}
	s.started = true
	s.game.Started = true
	if s.def.Build != nil {
		if err := s.def.Build(s.game); err != nil {
			return fmt.Errorf("engine: building game %q: %w", s.def.Name, err)
		}
	}
	for _, sl := range s.slots {
		s.hub.SendTo(sl.player.Index, api.New(api.EventStart, api.StartData{
			PlayerID: sl.player.ObjectID(),
		}))
	}
	go s.run()
	return nil
}

// Abort гасит несостоявшуюся сессию: все подписчики отключаются, партия
// финализируется пустой. Зовется лобби только до Start.
func (s *Session) Abort() {
	for i, sl := range s.slots {
		sl.connected = false
		s.hub.Unregister(i)
	}
	close(s.done)
}

// Deliver передает сообщение клиента в цикл сессии. Блокируется, только
// пока цикл жив; для каждого клиента порядок доставки строгий.
func (s *Session) Deliver(index int, msg api.Message) {
	select {
	case s.inbox <- clientMessage{index: index, msg: msg}:
	case <-s.done:
	}
}

// Leave сообщает циклу о разрыве соединения клиента.
func (s *Session) Leave(index int) {
	select {
	case s.leaveCh <- index:
	case <-s.done:
	}
}

// run это игровой цикл. Единственная горутина, которая трогает game,
// manager, слоты и дельта-состояние после Start.
func (s *Session) run() {
	s.log.WithField("players", len(s.slots)).Info("игра началась")
	s.broadcastDelta()
	s.startTurn()

	for !s.manager.IsOver() {
		select {
		case cm := <-s.inbox:
			s.handleMessage(cm.index, cm.msg)
		case index := <-s.expired:
			s.handleTimeout(index)
		case index := <-s.leaveCh:
			s.handleLeave(index)
		}
	}
	s.endGame()
}

// startTurn открывает ход текущего игрока: хук before-turn, дельта и
// ордер runTurn. Решенные игроки пропускаются.
func (s *Session) startTurn() {
	for !s.manager.IsOver() && s.game.CurrentPlayer().Decided() {
		s.advanceTurn()
	}
	if s.manager.IsOver() {
		return
	}
	if s.def.BeforeTurn != nil {
		s.def.BeforeTurn(s.game)
	}
	s.broadcastDelta()

	player := s.game.CurrentPlayer()
	s.slots[player.Index].calls.ExecuteOrder("runTurn", nil, func(any) {
		s.finishTurn()
	})
}

// finishTurn закрывает ход после валидного ответа на runTurn.
func (s *Session) finishTurn() {
	if s.manager.IsOver() {
		return
	}
	if s.def.AfterTurn != nil {
		s.def.AfterTurn(s.game)
	}
	if s.def.CheckWin != nil {
		s.def.CheckWin(s.game, s.manager)
	}
	if !s.manager.IsOver() {
		s.advanceTurn()
	}
	s.broadcastDelta()
	s.startTurn()
}

// advanceTurn передает ход дальше; на потолке ходов партию обязаны
// разрешить вторичные условия, в крайнем случае - монета.
func (s *Session) advanceTurn() {
	if s.game.NextTurn() {
		return
	}
	reason := fmt.Sprintf("Max turns reached (%d).", s.game.MaxTurns)
	if s.def.SecondaryWin != nil {
		s.def.SecondaryWin(s.game, s.manager, reason)
	}
	if !s.manager.IsOver() {
		s.manager.CoinFlipWinner(reason)
	}
}

func (s *Session) handleMessage(index int, msg api.Message) {
	if index < 0 || index >= len(s.slots) || !s.slots[index].connected {
		return
	}
	sl := s.slots[index]
	switch msg.Event {
	case api.EventFinished:
		var d api.FinishedData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			s.disconnect(index, "Game server could not parse your finished event data.")
			return
		}
		sl.calls.HandleFinished(d)
	case api.EventRun:
		var d api.RunData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			s.disconnect(index, "Game server could not parse your run event data.")
			return
		}
		s.handleRun(sl, d)
	default:
		s.disconnect(index, fmt.Sprintf("Game server received an unexpected event %q during gameplay.", msg.Event))
	}
}

// handleRun выполняет запрошенное клиентом действие игрового объекта.
// Три исхода: disconnect (неизвестный объект), invalid без дисконнекта
// (неизвестная функция, чужой ход, отказ validate), выполнение. Часы
// клиента стоят, пока работает сервер.
func (s *Session) handleRun(sl *slot, d api.RunData) {
	player := sl.player
	sl.clock.Pause()
	defer func() {
		if sl.connected && sl.calls.Busy() && !s.manager.IsOver() {
			sl.clock.Start()
		}
	}()

	caller, ok := s.game.Object(d.Caller.ID)
	if !ok {
		s.disconnect(player.Index, fmt.Sprintf("Cannot run %q on unknown game object %q.", d.FunctionName, d.Caller.ID))
		return
	}
	action, ok := s.def.Find(caller.ObjectName(), d.FunctionName)
	if !ok {
		s.refuseRun(sl, fmt.Sprintf("%s has no function %q to run.", caller.ObjectName(), d.FunctionName), nil)
		return
	}
	if reason := s.manager.InvalidateRun(player); reason != "" {
		s.refuseRun(sl, reason, action.Returns)
		return
	}

	args := action.ResolveArgs(s.san, d.Args)
	if action.Validate != nil {
		if inv := action.Validate(player, caller, args); inv != nil {
			if inv.Reason != "" {
				s.refuseRun(sl, inv.Reason, action.Returns)
				return
			}
			if inv.Args != nil {
				args = inv.Args
			}
		}
	}

	result := s.san.Value(action.Returns, action.Execute(player, caller, args))
	s.hub.SendTo(player.Index, api.New(api.EventRan, wireValue(result)))
	s.broadcastDelta()
}

// refuseRun отклоняет run без дисконнекта: invalid с причиной и ran с
// дефолтом типа результата, чтобы блокирующий клиент продолжил работу.
func (s *Session) refuseRun(sl *slot, reason string, returns *sanitize.Type) {
	s.hub.SendTo(sl.player.Index, api.New(api.EventInvalid, api.InvalidData{Message: reason}))
	var fallback any
	if returns != nil {
		fallback = wireValue(s.san.Value(returns, nil))
	}
	s.hub.SendTo(sl.player.Index, api.New(api.EventRan, fallback))
}

func (s *Session) handleTimeout(index int) {
	if index < 0 || index >= len(s.slots) {
		return
	}
	sl := s.slots[index]
	if !sl.connected || s.manager.IsOver() {
		return
	}
	s.log.WithField("player", sl.player.Name).Warn("игрок исчерпал временной бюджет")
	s.hub.SendTo(index, api.New(api.EventFatal, api.FatalData{Message: "You ran out of time."}))
	s.dropSlot(index, "Ran out of time.", "All other players timed out.")
}

func (s *Session) handleLeave(index int) {
	if index < 0 || index >= len(s.slots) || !s.slots[index].connected {
		return
	}
	s.log.WithField("player", s.slots[index].player.Name).Info("клиент отключился")
	s.dropSlot(index, "Disconnected during gameplay.", "All other players disconnected.")
}

// disconnect принудительно выбрасывает клиента с причиной.
func (s *Session) disconnect(index int, reason string) {
	sl := s.slots[index]
	if !sl.connected {
		return
	}
	s.log.WithFields(logrus.Fields{"player": sl.player.Name, "reason": reason}).Warn("клиент отключен")
	s.hub.SendTo(index, api.New(api.EventFatal, api.FatalData{Message: reason}))
	s.dropSlot(index, "Disconnected during gameplay.", "All other players disconnected.")
}

// dropSlot выводит клиента из партии: ордера сбрасываются, часы встают,
// выбытие уходит менеджеру. Если был ход выбывшего - ход продолжается
// со следующего игрока.
func (s *Session) dropSlot(index int, lossReason, winReason string) {
	sl := s.slots[index]
	sl.connected = false
	sl.calls.Abandon()
	sl.syncTime()

	wasTheirTurn := s.game.CurrentPlayer() == sl.player

	if s.started && !s.manager.IsOver() {
		s.manager.PlayerForfeited(sl.player, lossReason, winReason)
		s.broadcastDelta()
		if !s.manager.IsOver() && wasTheirTurn {
			s.startTurn()
		}
	}
	s.hub.Unregister(index)
}

// broadcastDelta снимает снапшот, считает дифф, пишет его в гейм-лог и
// рассылает подписчикам. Молчит, когда ничего не изменилось.
func (s *Session) broadcastDelta() {
	var extra map[string]any
	if s.def.SnapshotExtra != nil {
		extra = s.def.SnapshotExtra(s.game)
	}
	d := s.state.Flush(s.game.Snapshot(extra))
	if d == nil {
		return
	}
	s.gamelog.Deltas = append(s.gamelog.Deltas, d)
	s.hub.Broadcast(api.New(api.EventDelta, d))
}

// endGame финализирует партию: последняя дельта, итоги, событие over и
// только потом запись гейм-лога на диск.
func (s *Session) endGame() {
	for _, sl := range s.slots {
		if sl.connected {
			sl.clock.Pause()
			sl.syncTime()
		}
	}
	s.broadcastDelta()

	for _, p := range s.game.Players {
		if p.Won {
			s.gamelog.Winners = append(s.gamelog.Winners, p.Index)
		} else {
			s.gamelog.Losers = append(s.gamelog.Losers, p.Index)
		}
	}
	s.gamelog.Epoch = time.Now().UnixMilli()

	filename := ""
	if s.saver != nil {
		filename = s.saver.Filename(s.game.Name, s.ID, s.gamelog.Epoch)
	}
	s.hub.Broadcast(api.New(api.EventOver, api.OverData{GamelogFilename: filename}))
	if s.saver != nil {
		if _, err := s.saver.Save(s.gamelog); err != nil {
			s.log.Errorf("не удалось сохранить гейм-лог: %v", err)
		}
	}

	s.log.WithFields(logrus.Fields{
		"turns":   s.game.CurrentTurn,
		"winners": s.gamelog.Winners,
	}).Info("игра окончена")

	for i := range s.slots {
		s.hub.Unregister(i)
	}
	close(s.done)
}
