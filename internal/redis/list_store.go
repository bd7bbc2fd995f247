package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/1363V4/datastar-void/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// listKey is the single well-known list holding the feed, newest first.
const listKey = "messages"

// ListStore keeps the wall as one Redis list. Messages never expire
// individually; instead the list is trimmed to a fixed cap on every push,
// so retention is bounded by count rather than by time.
type ListStore struct {
	rdb *goredis.Client
	max int64
}

var _ domain.Store = (*ListStore)(nil)

// NewListStore creates a list-backed store trimmed to max entries.
func NewListStore(rdb *goredis.Client, max int) *ListStore {
	return &ListStore{rdb: rdb, max: int64(max)}
}

// Put prepends the message. The ttl is ignored: list entries live until the
// cap pushes them out.
func (s *ListStore) Put(ctx context.Context, msg domain.Message, _ time.Duration) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.LPush(ctx, listKey, payload)
	pipe.LTrim(ctx, listKey, 0, s.max-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: failed to push message: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// LiveSet returns the whole list, newest first. Entries that fail to decode
// are skipped so one bad record cannot poison the feed.
func (s *ListStore) LiveSet(ctx context.Context) ([]domain.Message, error) {
	raw, err := s.rdb.LRange(ctx, listKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read message list: %w", domain.ErrStoreUnavailable, err)
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, entry := range raw {
		var msg domain.Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			slog.Warn("Skipping undecodable list entry", "error", err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Get scans the list for the message with the given id.
func (s *ListStore) Get(ctx context.Context, id string) (domain.Message, error) {
	messages, err := s.LiveSet(ctx)
	if err != nil {
		return domain.Message{}, err
	}
	for _, msg := range messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return domain.Message{}, domain.ErrMessageNotFound
}
