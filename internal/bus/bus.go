// internal/bus/bus.go
package bus

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const mailboxSize = 64

// Handler receives messages for one subscription, one at a time.
type Handler func(Message)

// Bus is the page-wide publish/subscribe registry.
// Publishers never talk to subscribers directly.
type Bus struct {
	mu     sync.Mutex
	subs   []*Subscription
	next   uint64
	closed bool
	log    *zap.Logger
}

// Subscription is one registered listener with its own FIFO mailbox.
type Subscription struct {
	id      uint64
	bus     *Bus
	handler Handler

	inbox    chan Message
	done     chan struct{}
	finished chan struct{}
	once     sync.Once
}

func New(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{log: log}
}

// Subscribe registers h. Messages are delivered in publish order on a
// goroutine owned by the subscription.
func (b *Bus) Subscribe(h Handler) *Subscription {
	s := &Subscription{
		bus:      b,
		handler:  h,
		inbox:    make(chan Message, mailboxSize),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		s.once.Do(func() { close(s.done) })
		close(s.finished)
		return s
	}
	b.next++
	s.id = b.next
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	go s.run()
	return s
}

// Publish broadcasts msg to every live subscription in registration order.
// It never waits on a subscriber: a message for a full mailbox is dropped
// and logged.
func (b *Bus) Publish(msg Message) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	subs := append([]*Subscription(nil), b.subs...)
	b.mu.Unlock()

	b.log.Debug("broadcast", zap.String("kind", msg.Kind()), zap.Int("subscribers", len(subs)))

	for _, s := range subs {
		select {
		case <-s.done:
			continue
		default:
		}

		select {
		case s.inbox <- msg:
		default:
			b.log.Warn("subscriber mailbox full, message dropped",
				zap.Uint64("subscription", s.id),
				zap.String("kind", msg.Kind()),
				zap.Int("mailbox", mailboxSize))
		}
	}
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close unsubscribes everyone and rejects later publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.closed = true
	b.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
}

// Unsubscribe stops delivery. Safe to call more than once and from
// inside the handler.
func (s *Subscription) Unsubscribe() {
	b := s.bus
	b.mu.Lock()
	for i, other := range b.subs {
		if other == s {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	s.stop()
}

// Done is closed once the subscription's goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.finished
}

func (s *Subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *Subscription) run() {
	defer close(s.finished)
	for {
		select {
		case <-s.done:
			return
		case m := <-s.inbox:
			s.deliver(m)
		}
	}
}

func (s *Subscription) deliver(m Message) {
	defer func() {
		if r := recover(); r != nil {
			s.bus.log.Error("subscriber panicked",
				zap.Uint64("subscription", s.id),
				zap.String("kind", m.Kind()),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	s.handler(m)
}
