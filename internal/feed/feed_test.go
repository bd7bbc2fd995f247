package feed

import (
	"context"
	"sync"
	"time"

	"github.com/1363V4/datastar-void/internal/domain"
	"github.com/1363V4/datastar-void/internal/render"
)

// fakeSink records every fragment it receives.
type fakeSink struct {
	mu      sync.Mutex
	frags   []render.Fragment
	sendErr error
}

func (s *fakeSink) Send(frag render.Fragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.frags = append(s.frags, frag)
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frags)
}

func (s *fakeSink) last() render.Fragment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frags[len(s.frags)-1]
}

// fakeStore serves a mutable live set and can fail on demand.
type fakeStore struct {
	mu   sync.Mutex
	msgs []domain.Message
	err  error
}

func (s *fakeStore) Put(_ context.Context, msg domain.Message, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append([]domain.Message{msg}, s.msgs...)
	return nil
}

func (s *fakeStore) LiveSet(_ context.Context) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Message(nil), s.msgs...), nil
}

func (s *fakeStore) Get(_ context.Context, id string) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.msgs {
		if msg.ID == id {
			return msg, nil
		}
	}
	return domain.Message{}, domain.ErrMessageNotFound
}

func (s *fakeStore) set(msgs []domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = msgs
}

func (s *fakeStore) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// fakeChannel is an in-process broadcast channel recording subscribe and
// unsubscribe calls.
type fakeChannel struct {
	mu         sync.Mutex
	subs       []*fakeSubscription
	subscribes int
	closes     int
}

func (c *fakeChannel) Publish(_ context.Context, msg domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sub := range c.subs {
		if sub.closed {
			continue
		}
		sub.ch <- msg
	}
	return nil
}

func (c *fakeChannel) Subscribe(_ context.Context) (domain.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribes++
	sub := &fakeSubscription{parent: c, ch: make(chan domain.Message, 16)}
	c.subs = append(c.subs, sub)
	return sub, nil
}

func (c *fakeChannel) counts() (subscribes, closes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribes, c.closes
}

type fakeSubscription struct {
	parent *fakeChannel
	ch     chan domain.Message
	closed bool
}

func (s *fakeSubscription) Messages() <-chan domain.Message { return s.ch }

func (s *fakeSubscription) Close() error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.parent.closes++
	close(s.ch)
	return nil
}
