package pubsub

import (
	"context"
	"fmt"
	"path"
	"sync"
)

// MemoryPubSub delivers events inside one process. Patterns use Redis-style
// globs where '*' matches any run of characters.
type MemoryPubSub struct {
	mu     sync.RWMutex
	subs   map[string]*memorySub
	closed bool
}

type memorySub struct {
	pattern bool
	ch      chan *Event
	once    sync.Once
}

func (s *memorySub) close() {
	s.once.Do(func() { close(s.ch) })
}

// NewMemoryPubSub creates an empty bus.
func NewMemoryPubSub() *MemoryPubSub {
	return &MemoryPubSub{subs: make(map[string]*memorySub)}
}

// Publish delivers event to every matching subscriber without blocking.
// Subscribers whose buffer is full miss the event.
func (m *MemoryPubSub) Publish(ctx context.Context, channel string, event *Event) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("pubsub closed")
	}
	for key, sub := range m.subs {
		if !matches(key, sub.pattern, channel) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe subscribes to one channel.
func (m *MemoryPubSub) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	return m.add(ctx, channel, false)
}

// SubscribePattern subscribes to every channel matching pattern.
func (m *MemoryPubSub) SubscribePattern(ctx context.Context, pattern string) (<-chan *Event, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return m.add(ctx, pattern, true)
}

func (m *MemoryPubSub) add(ctx context.Context, key string, pattern bool) (<-chan *Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("pubsub closed")
	}
	if existing, ok := m.subs[key]; ok {
		existing.close()
	}
	sub := &memorySub{pattern: pattern, ch: make(chan *Event, subscriberBuffer)}
	m.subs[key] = sub

	go func() {
		<-ctx.Done()
		m.remove(key, sub)
	}()
	return sub.ch, nil
}

func (m *MemoryPubSub) remove(key string, sub *memorySub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subs[key] == sub {
		delete(m.subs, key)
	}
	sub.close()
}

// Unsubscribe removes the subscription for channel or pattern.
func (m *MemoryPubSub) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subs[channel]; ok {
		delete(m.subs, channel)
		sub.close()
	}
	return nil
}

// Close closes every subscription.
func (m *MemoryPubSub) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, sub := range m.subs {
		delete(m.subs, key)
		sub.close()
	}
	m.closed = true
	return nil
}

func matches(key string, pattern bool, channel string) bool {
	if !pattern {
		return key == channel
	}
	ok, _ := path.Match(key, channel)
	return ok
}
