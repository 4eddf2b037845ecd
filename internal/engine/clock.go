package engine

import "time"

// Clock это обратный отсчет временного бюджета одного клиента.
// Тикает только пока клиент "на часах": между отправкой ордера и валидным
// finished, за вычетом времени, когда сервер сам обрабатывает его run.
//
// Используется только из горутины сессии; единственная асинхронность -
// колбек истечения, который обязан лишь переслать событие обратно в цикл
// сессии, а не трогать состояние.
type Clock struct {
	remaining time.Duration
	running   bool
	startedAt time.Time
	timer     *time.Timer
	onExpire  func()
}

func NewClock(budget time.Duration, onExpire func()) *Clock {
	return &Clock{remaining: budget, onExpire: onExpire}
}

// Start запускает отсчет. Идемпотентен; исчерпанный бюджет немедленно
// триггерит истечение.
func (c *Clock) Start() {
	if c.running {
		return
	}
	if c.remaining <= 0 {
		c.onExpire()
		return
	}
	c.running = true
	c.startedAt = time.Now()
	c.timer = time.AfterFunc(c.remaining, c.onExpire)
}

// Pause останавливает отсчет и списывает прошедшее время.
func (c *Clock) Pause() {
	if !c.running {
		return
	}
	c.timer.Stop()
	c.remaining -= time.Since(c.startedAt)
	if c.remaining < 0 {
		c.remaining = 0
	}
	c.running = false
}

// Remaining возвращает текущий остаток бюджета.
func (c *Clock) Remaining() time.Duration {
	if !c.running {
		return c.remaining
	}
	left := c.remaining - time.Since(c.startedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Expired сообщает, исчерпан ли бюджет.
func (c *Clock) Expired() bool {
	return c.Remaining() <= 0
}
