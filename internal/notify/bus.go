// Package notify provides a synchronous publish/subscribe relay between the
// chat synchronizer and its observers.
package notify

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Handler receives notifications. A returned error is logged and does not
// stop delivery to other handlers.
type Handler[T any] func(T) error

// Subscription identifies a registered handler.
type Subscription struct {
	id uint64
}

type entry[T any] struct {
	id      uint64
	handler Handler[T]
}

// Bus delivers every published notification to the handlers subscribed at
// publish time, in subscription order.
//
// Bus is safe for concurrent use. Handlers may subscribe or unsubscribe
// from inside a delivery; the change applies to the next Publish.
type Bus[T any] struct {
	log     *slog.Logger
	mu      sync.RWMutex
	nextID  uint64
	entries []entry[T]
}

// NewBus creates an empty Bus.
func NewBus[T any](log *slog.Logger) *Bus[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Bus[T]{log: log}
}

// Subscribe registers h for all future notifications.
func (b *Bus[T]) Subscribe(h Handler[T]) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.entries = append(b.entries, entry[T]{id: b.nextID, handler: h})
	return Subscription{id: b.nextID}
}

// Unsubscribe removes the handler behind s. Unknown or already removed
// subscriptions are ignored.
func (b *Bus[T]) Unsubscribe(s Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.entries {
		if e.id == s.id {
			entries := make([]entry[T], 0, len(b.entries)-1)
			entries = append(entries, b.entries[:i]...)
			b.entries = append(entries, b.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of active subscriptions.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Publish invokes every handler with n and returns the joined handler
// failures. Panicking handlers are recovered and reported as failures.
func (b *Bus[T]) Publish(n T) error {
	b.mu.RLock()
	entries := b.entries
	b.mu.RUnlock()

	var errs []error
	for _, e := range entries {
		if err := b.deliver(e, n); err != nil {
			b.log.Warn("Notification handler failed", "subscription", e.id, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus[T]) deliver(e entry[T], n T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %d panicked: %v", e.id, r)
		}
	}()
	return e.handler(n)
}
