package server

import (
	"encoding/json"
	"net"
	"time"

	"github.com/siggame/Cerveau-sub002/pkg/api"
	"github.com/siggame/Cerveau-sub002/pkg/logger"
)

// Сколько ждем play от свежеподключившегося клиента. Дальше темп чтения
// задают часы игры, дедлайн снимается.
const playWait = 30 * time.Second

// TCPServer принимает сырые сокетные подключения: JSON-сообщения,
// фреймированные байтом EOT.
type TCPServer struct {
	lobby *Lobby
}

func NewTCPServer(lobby *Lobby) *TCPServer {
	return &TCPServer{lobby: lobby}
}

// Serve принимает подключения до закрытия листенера.
func (t *TCPServer) Serve(ln net.Listener) error {
	logger.Log.Infof("TCP-транспорт слушает %s", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go t.handle(conn)
	}
}

func (t *TCPServer) handle(conn net.Conn) {
	defer conn.Close()
	framer := api.NewFramer(conn)

	// HANDSHAKE: первым сообщением обязан быть play
	if err := conn.SetReadDeadline(time.Now().Add(playWait)); err != nil {
		logger.Log.WithError(err).Warn("не удалось выставить дедлайн чтения")
	}
	msg, err := framer.ReadMessage()
	if err != nil {
		logger.Log.Warnf("клиент %s отвалился до play: %v", conn.RemoteAddr(), err)
		return
	}
	if msg.Event != api.EventPlay {
		t.refuse(conn, "The first message must be a play event.")
		return
	}
	var play api.PlayData
	if err := json.Unmarshal(msg.Data, &play); err != nil {
		t.refuse(conn, "Could not parse play event data.")
		return
	}

	s, index, ch, err := t.lobby.Place(play)
	if err != nil {
		t.refuse(conn, err.Error())
		return
	}
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		logger.Log.WithError(err).Warn("не удалось снять дедлайн чтения")
	}

	// Write-памп: личный канал сессии -> сокет. Закрытие канала означает,
	// что сессия с клиентом закончила; закрытие сокета снимает read-цикл.
	go func() {
		for m := range ch {
			if err := api.WriteMessage(conn, m); err != nil {
				break
			}
		}
		conn.Close()
	}()

	for {
		m, err := framer.ReadMessage()
		if err != nil {
			break
		}
		s.Deliver(index, m)
	}
	t.lobby.Leave(s, index)
}

func (t *TCPServer) refuse(conn net.Conn, reason string) {
	logger.Log.Warnf("клиент %s отвергнут: %s", conn.RemoteAddr(), reason)
	if err := api.WriteMessage(conn, api.New(api.EventFatal, api.FatalData{Message: reason})); err != nil {
		logger.Log.WithError(err).Warn("не удалось отправить fatal")
	}
}
