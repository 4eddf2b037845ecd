package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/siggame/Cerveau-sub002/pkg/api"
	"github.com/siggame/Cerveau-sub002/pkg/logger"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между websocket-соединением и сессией. На вебсокете
// одно сообщение протокола занимает ровно один фрейм, EOT не нужен.
type Client struct {
	lobby *Lobby
	conn  *websocket.Conn
}

// ServeWS апгрейдит HTTP-запрос и запускает клиента.
func ServeWS(lobby *Lobby, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("не удалось апгрейдить соединение")
		return
	}
	c := &Client{lobby: lobby, conn: conn}
	go c.run()
}

func (c *Client) run() {
	defer func() {
		if err := c.conn.Close(); err != nil {
			logger.Log.WithError(err).Debug("закрытие вебсокета")
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Log.WithError(err).Warn("не удалось выставить дедлайн чтения")
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// HANDSHAKE: первым сообщением обязан быть play
	var msg api.Message
	if err := c.conn.ReadJSON(&msg); err != nil {
		logger.Log.Warnf("клиент %s отвалился до play: %v", c.conn.RemoteAddr(), err)
		return
	}
	if msg.Event != api.EventPlay {
		c.refuse("The first message must be a play event.")
		return
	}
	var play api.PlayData
	if err := json.Unmarshal(msg.Data, &play); err != nil {
		c.refuse("Could not parse play event data.")
		return
	}

	s, index, ch, err := c.lobby.Place(play)
	if err != nil {
		c.refuse(err.Error())
		return
	}

	go c.writePump(ch)

	for {
		var m api.Message
		if err := c.conn.ReadJSON(&m); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Warnf("вебсокет %s: %v", c.conn.RemoteAddr(), err)
			}
			break
		}
		s.Deliver(index, m)
	}
	c.lobby.Leave(s, index)
}

// writePump пересылает личный канал сессии в сокет и держит соединение
// живым пингами. Закрытие канала завершает работу с клиентом.
func (c *Client) writePump(ch chan api.Message) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case m, ok := <-ch:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(m); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) refuse(reason string) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(api.New(api.EventFatal, api.FatalData{Message: reason})); err != nil {
		logger.Log.WithError(err).Warn("не удалось отправить fatal")
	}
}
