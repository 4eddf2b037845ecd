package server

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/siggame/Cerveau-sub002/internal/engine"
	"github.com/siggame/Cerveau-sub002/internal/games"
	"github.com/siggame/Cerveau-sub002/pkg/api"
	"github.com/siggame/Cerveau-sub002/pkg/logger"
)

// Lobby сводит подключившихся клиентов в сессии. Правило простое: первый
// клиент с настройками создает сессию, остальные подсаживаются; полная
// сессия стартует и уходит из лобби.
type Lobby struct {
	mu      sync.Mutex
	saver   engine.Saver
	open    map[string]*engine.Session
	running map[string]*engine.Session
}

func NewLobby(saver engine.Saver) *Lobby {
	return &Lobby{
		saver:   saver,
		open:    make(map[string]*engine.Session),
		running: make(map[string]*engine.Session),
	}
}

// Place сажает клиента по его play-сообщению: в запрошенную сессию, в
// любую открытую той же игры или в свежесозданную. Полная сессия тут же
// стартует.
func (l *Lobby) Place(play api.PlayData) (*engine.Session, int, chan api.Message, error) {
	if err := play.Validate(); err != nil {
		return nil, 0, nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var s *engine.Session
	if play.RequestedSession != "" {
		if cand, ok := l.open[play.RequestedSession]; ok && cand.Open() && cand.Game().Name == play.GameName {
			s = cand
		}
	} else {
		for _, cand := range l.open {
			if cand.Open() && cand.Game().Name == play.GameName {
				s = cand
				break
			}
		}
	}

	if s == nil {
		def, ok := games.New(play.GameName)
		if !ok {
			return nil, 0, nil, fmt.Errorf("unknown game %q", play.GameName)
		}
		overrides, err := parseSettings(play.GameSettings)
		if err != nil {
			return nil, 0, nil, err
		}
		s, err = engine.NewSession(def, overrides, l.saver)
		if err != nil {
			return nil, 0, nil, err
		}
		l.open[s.ID] = s
		logger.Log.WithField("session", s.ID).Infof("открыта сессия игры %s", play.GameName)
	}

	index, ch, err := s.Join(play.PlayerName, play.ClientType)
	if err != nil {
		return nil, 0, nil, err
	}

	if s.Full() {
		delete(l.open, s.ID)
		if err := s.Start(); err != nil {
			s.Abort()
			return nil, 0, nil, err
		}
		l.running[s.ID] = s
		go func() {
			<-s.Done()
			l.mu.Lock()
			delete(l.running, s.ID)
			l.mu.Unlock()
		}()
	}
	return s, index, ch, nil
}

// Leave обрабатывает разрыв соединения клиента. Сессия, не дождавшаяся
// старта, гасится целиком; идущая партия решается форфейтом.
func (l *Lobby) Leave(s *engine.Session, index int) {
	l.mu.Lock()
	if _, ok := l.open[s.ID]; ok {
		delete(l.open, s.ID)
		s.Abort()
		l.mu.Unlock()
		logger.Log.WithField("session", s.ID).Info("сессия распущена до старта")
		return
	}
	l.mu.Unlock()
	s.Leave(index)
}

// SessionStatus строка статуса одной сессии для HTTP-выдачи.
type SessionStatus struct {
	ID       string `json:"id"`
	GameName string `json:"gameName"`
	Players  int    `json:"players"`
	Required int    `json:"required"`
	Running  bool   `json:"running"`
}

// Status возвращает снимок лобби: открытые и идущие сессии.
func (l *Lobby) Status() []SessionStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]SessionStatus, 0, len(l.open)+len(l.running))
	for _, s := range l.open {
		out = append(out, sessionStatus(s, false))
	}
	for _, s := range l.running {
		out = append(out, sessionStatus(s, true))
	}
	return out
}

func sessionStatus(s *engine.Session, running bool) SessionStatus {
	g := s.Game()
	return SessionStatus{
		ID:       s.ID,
		GameName: g.Name,
		Players:  len(g.Players),
		Required: s.PlayerCount(),
		Running:  running,
	}
}

// parseSettings разбирает query-строку настроек в плоскую карту; при
// повторе ключа берется первое значение.
func parseSettings(q string) (map[string]string, error) {
	if q == "" {
		return nil, nil
	}
	values, err := url.ParseQuery(q)
	if err != nil {
		return nil, fmt.Errorf("malformed gameSettings: %w", err)
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out, nil
}
