// Package agent содержит "игрока-компьютера" (Headless Agent).
// Этот код является примером ВНЕШНЕГО клиента: он подключается к серверу
// через тот же сырой TCP-транспорт, что и обычный игрок, ведет локальную
// копию состояния, применяя дельты, и отвечает на ордера сервера.
//
// Жизненный цикл:
//  1. Dial -> подключение и отправка play.
//  2. Play -> цикл чтения до конца партии; на каждый order вызывается
//     переданный Handler.
//  3. Handler через Bot.Run инициирует действия игровых объектов и по
//     возвращаемому значению закрывает ордер (finished).
package agent

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/siggame/Cerveau-sub002/internal/delta"
	"github.com/siggame/Cerveau-sub002/pkg/api"
	"github.com/siggame/Cerveau-sub002/pkg/logger"
)

// Handler это мозг бота: решает, что делать по полученному ордеру, и
// возвращает значение, которое уйдет серверу в finished.
type Handler func(b *Bot, name string, args []any) any

// Bot это безголовый клиент одной партии.
type Bot struct {
	PlayerID        string
	Session         string
	GamelogFilename string

	conn    net.Conn
	framer  *api.Framer
	sent    delta.Sentinels
	state   any
	handler Handler
	log     *logrus.Entry
}

// Dial подключается к серверу и отправляет play. Партия начнется, когда
// лобби наберет нужное число клиентов.
func Dial(addr string, play api.PlayData, handler Handler) (*Bot, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("agent: dialing %s: %w", addr, err)
	}
	b := &Bot{
		conn:    conn,
		framer:  api.NewFramer(conn),
		sent:    delta.DefaultSentinels(),
		state:   map[string]any{},
		handler: handler,
		log:     logger.Log.WithField("bot", play.PlayerName),
	}
	if err := b.send(api.New(api.EventPlay, play)); err != nil {
		conn.Close()
		return nil, err
	}
	return b, nil
}

// Play ведет партию до события over. Fatal от сервера возвращается ошибкой.
func (b *Bot) Play() error {
	defer b.conn.Close()
	for {
		msg, err := b.framer.ReadMessage()
		if err != nil {
			return fmt.Errorf("agent: reading: %w", err)
		}
		done, err := b.handle(msg)
		if done || err != nil {
			return err
		}
	}
}

func (b *Bot) handle(msg api.Message) (bool, error) {
	switch msg.Event {
	case api.EventLobbied:
		var d api.LobbiedData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return true, err
		}
		b.Session = d.GameSession
		b.log.Infof("принят в сессию %s игры %s", d.GameSession, d.GameName)
	case api.EventStart:
		var d api.StartData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return true, err
		}
		b.PlayerID = d.PlayerID
	case api.EventDelta:
		b.applyDelta(msg.Data)
	case api.EventOrder:
		var d api.OrderData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return true, err
		}
		result := b.handler(b, d.Name, d.Args)
		raw, err := json.Marshal(result)
		if err != nil {
			return true, err
		}
		if err := b.send(api.New(api.EventFinished, api.FinishedData{
			OrderIndex: d.Index,
			Returned:   raw,
		})); err != nil {
			return true, err
		}
	case api.EventInvalid:
		var d api.InvalidData
		_ = json.Unmarshal(msg.Data, &d)
		b.log.Warnf("сервер отклонил запрос: %s", d.Message)
	case api.EventOver:
		var d api.OverData
		_ = json.Unmarshal(msg.Data, &d)
		b.GamelogFilename = d.GamelogFilename
		return true, nil
	case api.EventFatal:
		var d api.FatalData
		_ = json.Unmarshal(msg.Data, &d)
		return true, fmt.Errorf("agent: disconnected by server: %s", d.Message)
	}
	return false, nil
}

// Run выполняет действие игрового объекта на сервере и блокируется до ran.
// Дельты, пришедшие в ожидании, применяются к локальному состоянию.
func (b *Bot) Run(callerID, functionName string, args map[string]any) (any, error) {
	err := b.send(api.New(api.EventRun, api.RunData{
		Caller:       api.CallerRef{ID: callerID},
		FunctionName: functionName,
		Args:         args,
	}))
	if err != nil {
		return nil, err
	}
	for {
		msg, err := b.framer.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("agent: reading: %w", err)
		}
		switch msg.Event {
		case api.EventRan:
			var v any
			if len(msg.Data) > 0 {
				if err := json.Unmarshal(msg.Data, &v); err != nil {
					return nil, err
				}
			}
			return v, nil
		case api.EventDelta:
			b.applyDelta(msg.Data)
		case api.EventInvalid:
			var d api.InvalidData
			_ = json.Unmarshal(msg.Data, &d)
			b.log.Warnf("run отклонен: %s", d.Message)
		case api.EventFatal:
			var d api.FatalData
			_ = json.Unmarshal(msg.Data, &d)
			return nil, fmt.Errorf("agent: disconnected by server: %s", d.Message)
		}
	}
}

func (b *Bot) applyDelta(raw json.RawMessage) {
	var d any
	if err := json.Unmarshal(raw, &d); err != nil {
		b.log.Warnf("не удалось разобрать дельту: %v", err)
		return
	}
	b.state = delta.Apply(b.state, d, b.sent)
}

func (b *Bot) send(msg api.Message) error {
	return api.WriteMessage(b.conn, msg)
}

// State возвращает локальный снапшот состояния игры.
func (b *Bot) State() map[string]any {
	if m, ok := b.state.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// FindAll возвращает отсортированные id объектов данного класса из
// локального снапшота.
func (b *Bot) FindAll(objectName string) []string {
	objects, _ := b.State()["gameObjects"].(map[string]any)
	var ids []string
	for id, o := range objects {
		if m, ok := o.(map[string]any); ok && m["gameObjectName"] == objectName {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Object возвращает объект локального снапшота по id.
func (b *Bot) Object(id string) map[string]any {
	objects, _ := b.State()["gameObjects"].(map[string]any)
	m, _ := objects[id].(map[string]any)
	return m
}

// DuelHandler это стратегия для встроенной игры duel: на свой ход бот
// двигает собственную пешку на случайное число клеток.
func DuelHandler(b *Bot, name string, args []any) any {
	if name != "runTurn" {
		return nil
	}
	for _, id := range b.FindAll("Pawn") {
		pawn := b.Object(id)
		owner, _ := pawn["owner"].(map[string]any)
		if owner == nil || owner["id"] != b.PlayerID {
			continue
		}
		if _, err := b.Run(id, "advance", map[string]any{"steps": 1 + rand.Intn(3)}); err != nil {
			b.log.Warnf("advance не удался: %v", err)
		}
		break
	}
	return true
}
