package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1363V4/datastar-void/internal/domain"
	"github.com/1363V4/datastar-void/internal/metrics"
	goredis "github.com/redis/go-redis/v9"
)

// channelName is the single well-known broadcast channel.
const channelName = "main"

// PubSub provides cross-instance broadcast via Redis Pub/Sub. A message
// published while the channel has no subscribers is gone for good — the push
// strategy accepts that trade-off.
type PubSub struct {
	rdb *goredis.Client
}

var _ domain.Channel = (*PubSub)(nil)

func NewPubSub(rdb *goredis.Client) *PubSub {
	return &PubSub{rdb: rdb}
}

// Publish announces a message on the broadcast channel.
func (ps *PubSub) Publish(ctx context.Context, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := ps.rdb.Publish(ctx, channelName, data).Err(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscribe opens a subscription on the broadcast channel. It waits for the
// subscription confirmation before returning, so a publish that happens
// after Subscribe returns is guaranteed to be delivered.
func (ps *PubSub) Subscribe(ctx context.Context) (domain.Subscription, error) {
	sub := ps.rdb.Subscribe(ctx, channelName)

	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to confirm subscription: %w", err)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	ch := make(chan domain.Message, 16)

	go func() {
		defer close(ch)
		msgCh := sub.Channel()
		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				var payload domain.Message
				if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
					slog.Warn("Failed to unmarshal pubsub payload", "error", err)
					continue
				}
				select {
				case ch <- payload:
				default:
					// Drop if the receiver is slow
					metrics.PubSubDroppedTotal.Inc()
				}
			case <-subCtx.Done():
				return
			}
		}
	}()

	return &Subscription{sub: sub, ch: ch, cancel: cancel}, nil
}

// Subscription is an active broadcast subscription.
type Subscription struct {
	sub       *goredis.PubSub
	ch        chan domain.Message
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

var _ domain.Subscription = (*Subscription)(nil)

// Messages yields broadcast payloads in publish order.
func (s *Subscription) Messages() <-chan domain.Message {
	return s.ch
}

// Close unsubscribes and tears down the fan-in goroutine. Idempotent.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.closeErr = s.sub.Close()
	})
	return s.closeErr
}
