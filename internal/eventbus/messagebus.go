package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const DefaultRequestTimeout = 30 * time.Second

var ErrRequestTimeout = errors.New("request timeout")

// Listener receives published messages of one type
type Listener func(Message)

type subscription struct {
	id       uint64
	listener Listener
}

// MessageBus routes confirmation protocol messages between the reducer and
// the confirmation dialog. Publish delivers synchronously, in subscription
// order, to the listeners registered when Publish was called.
type MessageBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[MessageType][]subscription
	logger *slog.Logger
	debug  bool
}

func NewMessageBus(logger *slog.Logger, debug bool) *MessageBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageBus{
		subs:   make(map[MessageType][]subscription),
		logger: logger,
		debug:  debug,
	}
}

// Subscribe registers listener for messages of type t and returns a
// function that removes it
func (b *MessageBus) Subscribe(t MessageType, listener Listener) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[t] = append(b.subs[t], subscription{id: id, listener: listener})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(t, id) })
	}
}

func (b *MessageBus) unsubscribe(t MessageType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[t]
	for i, sub := range subs {
		if sub.id == id {
			b.subs[t] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[t]) == 0 {
		delete(b.subs, t)
	}
}

// ListenerCount reports how many listeners are registered for t
func (b *MessageBus) ListenerCount(t MessageType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[t])
}

func (b *MessageBus) Publish(msg Message) error {
	if msg == nil {
		return errors.New("eventbus: nil message")
	}
	if b.debug {
		b.logger.Debug("[MessageBus] publish", "type", msg.Type(), "message", fmt.Sprintf("%+v", msg))
	}

	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[msg.Type()]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.listener(msg)
	}
	return nil
}

// RequestResponse publishes req and waits for the first message of
// responseType carrying the same correlation id. A timeout <= 0 uses
// DefaultRequestTimeout.
func (b *MessageBus) RequestResponse(ctx context.Context, req Correlated, responseType MessageType, timeout time.Duration) (Message, error) {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	correlationID := req.Correlation()
	responses := make(chan Message, 1)
	unsubscribe := b.Subscribe(responseType, func(msg Message) {
		correlated, ok := msg.(Correlated)
		if !ok || correlated.Correlation() != correlationID {
			return
		}
		select {
		case responses <- msg:
		default:
		}
	})
	defer unsubscribe()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	if err := b.Publish(req); err != nil {
		return nil, err
	}

	select {
	case msg := <-responses:
		return msg, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrRequestTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
