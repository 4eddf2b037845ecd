package engine

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/siggame/Cerveau-sub002/internal/gameobject"
	"github.com/siggame/Cerveau-sub002/internal/sanitize"
	"github.com/siggame/Cerveau-sub002/pkg/api"
)

// OrderRetryLimit это потолок попыток на один ордер: после стольких
// невалидных ответов клиент отключается.
const OrderRetryLimit = 10

// order это один незавершенный вызов в сторону клиента.
type order struct {
	index   int
	name    string
	args    []any
	retries int
	resolve func(any)
}

// CallManager ведет учет незавершенных ордеров одного клиента и
// валидирует их ответы. Вся работа происходит в горутине сессии.
type CallManager struct {
	player     *gameobject.Player
	defs       map[string]gameobject.OrderDef
	san        *sanitize.Sanitizer
	clock      *Clock
	send       func(event string, data any)
	disconnect func(reason string)
	log        *logrus.Entry

	orders    map[int]*order
	nextIndex int
}

func NewCallManager(
	player *gameobject.Player,
	defs map[string]gameobject.OrderDef,
	san *sanitize.Sanitizer,
	clock *Clock,
	send func(event string, data any),
	disconnect func(reason string),
	log *logrus.Entry,
) *CallManager {
	return &CallManager{
		player:     player,
		defs:       defs,
		san:        san,
		clock:      clock,
		send:       send,
		disconnect: disconnect,
		log:        log,
		orders:     map[int]*order{},
	}
}

// ExecuteOrder отправляет клиенту ордер и запускает его часы. resolve
// вызовется с очищенным возвратом, когда клиент ответит валидно;
// при потолке ретраев или отключении - никогда.
//
// Неизвестное имя ордера или неверная арность - ошибка сервера, не клиента.
func (cm *CallManager) ExecuteOrder(name string, args []any, resolve func(any)) {
	def, ok := cm.defs[name]
	if !ok {
		panic(fmt.Sprintf("calls: unknown order %q", name))
	}
	if len(args) != len(def.Args) {
		panic(fmt.Sprintf("calls: order %q wants %d args, got %d", name, len(def.Args), len(args)))
	}
	sent := make([]any, len(args))
	for i, a := range args {
		sent[i] = wireValue(cm.san.Value(def.Args[i].Type, a))
	}
	o := &order{
		index:   cm.nextIndex,
		name:    name,
		args:    sent,
		resolve: resolve,
	}
	cm.nextIndex++
	cm.orders[o.index] = o
	cm.transmit(o)
	cm.clock.Start()
}

func (cm *CallManager) transmit(o *order) {
	cm.send(api.EventOrder, api.OrderData{
		Name:  o.name,
		Index: o.index,
		Args:  o.args,
	})
}

// HandleFinished обрабатывает ответ клиента на ордер. Неизвестный индекс
// отключает; невалидный возврат ретранслирует ордер до потолка ретраев.
func (cm *CallManager) HandleFinished(data api.FinishedData) {
	o, ok := cm.orders[data.OrderIndex]
	if !ok {
		cm.disconnect(fmt.Sprintf("Game server received a finished event for an unknown order index (%d).", data.OrderIndex))
		return
	}
	def := cm.defs[o.name]
	var returned any
	if len(data.Returned) > 0 {
		if err := json.Unmarshal(data.Returned, &returned); err != nil {
			returned = nil
		}
	}
	checked, err := cm.san.Check(def.Returns, returned)
	if err != nil {
		o.retries++
		cm.log.WithFields(logrus.Fields{
			"order":   o.name,
			"index":   o.index,
			"retries": o.retries,
		}).Warnf("invalid order return: %v", err)
		if o.retries >= OrderRetryLimit {
			cm.disconnect(fmt.Sprintf("Game server could not get a valid return value from your order %q after %d attempts.", o.name, o.retries))
			return
		}
		cm.transmit(o)
		return
	}
	delete(cm.orders, data.OrderIndex)
	if !cm.Busy() {
		cm.clock.Pause()
	}
	cm.player.TimeRemaining = int64(cm.clock.Remaining())
	o.resolve(checked)
}

// Busy сообщает, есть ли у клиента незавершенные ордеры.
func (cm *CallManager) Busy() bool {
	return len(cm.orders) > 0
}

// Abandon сбрасывает все незавершенные ордеры без резолва. Вызывается
// при отключении клиента или конце игры.
func (cm *CallManager) Abandon() {
	cm.orders = map[int]*order{}
	cm.clock.Pause()
}
