package domain

import (
	"context"
	"time"
)

// Store holds the live set of wall messages. Implementations are safe for
// concurrent use; the backing store provides its own atomicity, so callers
// never assume exclusive access.
type Store interface {
	// Put commits a message. A ttl of zero means the message never expires;
	// list-backed stores ignore the ttl entirely.
	Put(ctx context.Context, msg Message, ttl time.Duration) error

	// LiveSet returns every message still eligible for display at the moment
	// of the call. A message expiring mid-read is omitted, not an error.
	LiveSet(ctx context.Context) ([]Message, error)

	// Get returns a single message by id, or ErrMessageNotFound.
	Get(ctx context.Context, id string) (Message, error)
}

// Channel is the broadcast fan-out used by the push delivery strategy.
type Channel interface {
	Publish(ctx context.Context, msg Message) error
	Subscribe(ctx context.Context) (Subscription, error)
}

// Subscription is one viewer's handle on the broadcast channel. Messages
// published before Subscribe returned are never delivered; there is no
// catch-up mechanism.
type Subscription interface {
	// Messages yields broadcast payloads in publish order. The channel is
	// closed when the subscription ends.
	Messages() <-chan Message

	// Close unsubscribes. Safe to call more than once.
	Close() error
}
