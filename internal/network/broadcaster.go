package network

import (
	"sync"

	"github.com/siggame/Cerveau-sub002/pkg/api"
)

// Broadcaster занимается только доставкой сообщений подписчикам сессии.
// Подписчики ключуются индексом игрока (порядок подключения).
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[int]chan api.Message
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[int]chan api.Message),
	}
}

// Register создает личный канал для слота. Транспортный слой (или агент)
// вычитывает его в своем write-пампе; закрытие канала означает отключение.
func (b *Broadcaster) Register(index int) chan api.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.subscribers[index]; ok {
		close(old)
	}

	ch := make(chan api.Message, 128)
	b.subscribers[index] = ch
	return ch
}

// Unregister закрывает канал подписчика и удаляет его.
func (b *Broadcaster) Unregister(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[index]; ok {
		close(ch)
		delete(b.subscribers, index)
	}
}

// SendTo доставляет сообщение одному слоту (unicast).
func (b *Broadcaster) SendTo(index int, msg api.Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if ch, ok := b.subscribers[index]; ok {
		select {
		case ch <- msg:
		default:
			// переполненный канал означает зависшего читателя; сообщение
			// теряется, дисконнект произойдет по таймеру
		}
	}
}

// Broadcast доставляет сообщение всем слотам.
func (b *Broadcaster) Broadcast(msg api.Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// HasSubscriber проверяет, слушает ли кто-то слот.
func (b *Broadcaster) HasSubscriber(index int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[index]
	return ok
}

// Count возвращает количество активных подписчиков.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
