package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/1363V4/datastar-void/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Key schema:
//   message:{id} — JSON payload with a store-enforced TTL
const messageKeyPrefix = "message:"

func messageKey(id string) string {
	return messageKeyPrefix + id
}

// ExpiringStore keeps one Redis key per message with a countdown. Messages
// disappear from the live set solely through Redis expiry; nothing ever
// deletes them explicitly.
type ExpiringStore struct {
	rdb *goredis.Client
}

var _ domain.Store = (*ExpiringStore)(nil)

func NewExpiringStore(rdb *goredis.Client) *ExpiringStore {
	return &ExpiringStore{rdb: rdb}
}

// Put stores the message under its own key with the given TTL.
func (s *ExpiringStore) Put(ctx context.Context, msg domain.Message, ttl time.Duration) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := s.rdb.Set(ctx, messageKey(msg.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("%w: failed to store message: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// LiveSet discovers all unexpired message keys and returns each message with
// its remaining TTL. A key expiring between SCAN and GET is omitted — that
// race is expected, not an error.
func (s *ExpiringStore) LiveSet(ctx context.Context) ([]domain.Message, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, messageKeyPrefix+"*", 128).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to scan message keys: %w", domain.ErrStoreUnavailable, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	pipe := s.rdb.Pipeline()
	gets := make([]*goredis.StringCmd, len(keys))
	ttls := make([]*goredis.DurationCmd, len(keys))
	for i, key := range keys {
		gets[i] = pipe.Get(ctx, key)
		ttls[i] = pipe.PTTL(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("%w: failed to fetch messages: %w", domain.ErrStoreUnavailable, err)
	}

	messages := make([]domain.Message, 0, len(keys))
	for i := range keys {
		payload, err := gets[i].Result()
		if errors.Is(err, goredis.Nil) {
			continue // expired between SCAN and GET
		}
		if err != nil {
			continue
		}

		var msg domain.Message
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			slog.Warn("Skipping undecodable message key", "key", keys[i], "error", err)
			continue
		}

		if remaining, err := ttls[i].Result(); err == nil && remaining > 0 {
			msg.Remaining = remaining
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Get returns a single message with its remaining TTL.
func (s *ExpiringStore) Get(ctx context.Context, id string) (domain.Message, error) {
	key := messageKey(id)

	payload, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return domain.Message{}, domain.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, fmt.Errorf("failed to fetch message: %w", err)
	}

	var msg domain.Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return domain.Message{}, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	if remaining, err := s.rdb.PTTL(ctx, key).Result(); err == nil && remaining > 0 {
		msg.Remaining = remaining
	}
	return msg, nil
}
