package wall

import (
	"context"
	"sync"
	"time"

	"github.com/1363V4/datastar-void/internal/domain"
	"github.com/jonboulle/clockwork"
)

type memoryEntry struct {
	msg       domain.Message
	expiresAt time.Time // zero means no expiry
}

// MemoryStore provides in-process message state for single-instance mode and
// tests. Expiry is driven by the injected clock, so tests can advance time
// deterministically.
type MemoryStore struct {
	clock clockwork.Clock
	max   int

	mu      sync.RWMutex
	entries map[string]memoryEntry
	order   []string // ids, newest first
}

var _ domain.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a memory store capped at max entries.
func NewMemoryStore(clock clockwork.Clock, max int) *MemoryStore {
	return &MemoryStore{
		clock:   clock,
		max:     max,
		entries: make(map[string]memoryEntry),
	}
}

// Put commits a message, pruning expired entries and enforcing the cap.
func (s *MemoryStore) Put(_ context.Context, msg domain.Message, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{msg: msg}
	if ttl > 0 {
		entry.expiresAt = s.clock.Now().Add(ttl)
	}

	s.pruneLocked()
	s.entries[msg.ID] = entry
	s.order = append([]string{msg.ID}, s.order...)

	if len(s.order) > s.max {
		for _, id := range s.order[s.max:] {
			delete(s.entries, id)
		}
		s.order = s.order[:s.max]
	}
	return nil
}

// LiveSet returns all unexpired messages, newest first.
func (s *MemoryStore) LiveSet(_ context.Context) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	messages := make([]domain.Message, 0, len(s.order))
	for _, id := range s.order {
		entry, ok := s.entries[id]
		if !ok {
			continue
		}
		msg, live := s.liveMessage(entry, now)
		if !live {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Get returns a single unexpired message by id.
func (s *MemoryStore) Get(_ context.Context, id string) (domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return domain.Message{}, domain.ErrMessageNotFound
	}
	msg, live := s.liveMessage(entry, s.clock.Now())
	if !live {
		return domain.Message{}, domain.ErrMessageNotFound
	}
	return msg, nil
}

func (s *MemoryStore) liveMessage(entry memoryEntry, now time.Time) (domain.Message, bool) {
	if entry.expiresAt.IsZero() {
		return entry.msg, true
	}
	remaining := entry.expiresAt.Sub(now)
	if remaining <= 0 {
		return domain.Message{}, false
	}
	msg := entry.msg
	msg.Remaining = remaining
	return msg, true
}

// pruneLocked drops expired entries. Caller holds the write lock.
func (s *MemoryStore) pruneLocked() {
	now := s.clock.Now()
	kept := s.order[:0]
	for _, id := range s.order {
		entry, ok := s.entries[id]
		if ok && !entry.expiresAt.IsZero() && !entry.expiresAt.After(now) {
			delete(s.entries, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}
