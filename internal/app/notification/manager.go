// Package notification provides a latest-value broadcaster for state snapshots.
package notification

import (
	"sync"

	"github.com/google/uuid"
)

// subscription represents a subscriber's subscription.
type subscription[T any] struct {
	id string
	ch chan T
}

// Manager holds the current value and fans it out to subscribers.
// Slow subscribers only ever see the most recent value: last write wins.
type Manager[T any] struct {
	mu            sync.RWMutex
	value         T
	subscriptions map[string]*subscription[T]
	closed        bool
}

// NewManager creates a new manager holding initial.
func NewManager[T any](initial T) *Manager[T] {
	return &Manager[T]{
		value:         initial,
		subscriptions: make(map[string]*subscription[T]),
	}
}

// Get returns the current value.
func (m *Manager[T]) Get() T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value
}

// Subscribe registers a subscriber. The returned channel immediately holds the
// current value and is closed on Unsubscribe or Close.
func (m *Manager[T]) Subscribe() (string, <-chan T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	sub := &subscription[T]{id: id, ch: make(chan T, 1)}
	if m.closed {
		close(sub.ch)
		return id, sub.ch
	}
	sub.ch <- m.value
	m.subscriptions[id] = sub
	return id, sub.ch
}

// Unsubscribe removes a subscription and closes its channel.
func (m *Manager[T]) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub, ok := m.subscriptions[subscriptionID]; ok {
		delete(m.subscriptions, subscriptionID)
		close(sub.ch)
	}
}

// Publish stores v and delivers it to every subscriber without blocking.
// A value still unread by a subscriber is replaced.
func (m *Manager[T]) Publish(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.value = v
	m.broadcastLocked()
}

// Update applies fn to the current value and publishes the result atomically.
func (m *Manager[T]) Update(fn func(T) T) T {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return m.value
	}
	m.value = fn(m.value)
	m.broadcastLocked()
	return m.value
}

// broadcastLocked hands the current value to every subscriber.
// Must be called with lock held.
func (m *Manager[T]) broadcastLocked() {
	for _, sub := range m.subscriptions {
		// Drop the unread value, if any, then deliver. Cannot block: the
		// buffer has room for one and only lock holders send.
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- m.value
	}
}

// Close closes every subscription. Later publishes are ignored.
func (m *Manager[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	for id, sub := range m.subscriptions {
		close(sub.ch)
		delete(m.subscriptions, id)
	}
}
