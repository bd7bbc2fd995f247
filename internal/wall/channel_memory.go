package wall

import (
	"context"
	"sync"

	"github.com/1363V4/datastar-void/internal/domain"
	"github.com/1363V4/datastar-void/internal/metrics"
)

// MemoryChannel is an in-process broadcast channel for single-instance mode.
// Like its Redis counterpart, a publish with zero subscribers is gone for
// good, and a slow subscriber loses payloads rather than blocking the
// publisher.
type MemoryChannel struct {
	mu   sync.Mutex
	subs map[*memorySubscription]struct{}
}

var _ domain.Channel = (*MemoryChannel)(nil)

func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{subs: make(map[*memorySubscription]struct{})}
}

// Publish fans the message out to all current subscribers.
func (c *MemoryChannel) Publish(_ context.Context, msg domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for sub := range c.subs {
		select {
		case sub.ch <- msg:
		default:
			metrics.PubSubDroppedTotal.Inc()
		}
	}
	return nil
}

// Subscribe registers a new subscriber. Only messages published after
// Subscribe returns are delivered.
func (c *MemoryChannel) Subscribe(_ context.Context) (domain.Subscription, error) {
	sub := &memorySubscription{
		parent: c,
		ch:     make(chan domain.Message, 16),
	}
	c.mu.Lock()
	c.subs[sub] = struct{}{}
	c.mu.Unlock()
	return sub, nil
}

type memorySubscription struct {
	parent *MemoryChannel
	ch     chan domain.Message
	closed bool
}

var _ domain.Subscription = (*memorySubscription)(nil)

func (s *memorySubscription) Messages() <-chan domain.Message { return s.ch }

func (s *memorySubscription) Close() error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	delete(s.parent.subs, s)
	close(s.ch)
	return nil
}
