package wall

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/1363V4/datastar-void/internal/domain"
	"github.com/1363V4/datastar-void/internal/metrics"
	"github.com/google/uuid"
)

// Bounds is the inset sub-region of the viewport, in percent, that messages
// are placed in. Keeping messages away from the edges avoids clipping.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Publisher accepts incoming posts, assigns the randomized display
// attributes, and commits them to the store. When a broadcast channel is
// attached, every committed message is also announced on it.
type Publisher struct {
	store   domain.Store
	channel domain.Channel // nil when the push strategy is not in use
	ttl     time.Duration
	bounds  Bounds
}

func NewPublisher(store domain.Store, channel domain.Channel, ttl time.Duration, bounds Bounds) *Publisher {
	return &Publisher{store: store, channel: channel, ttl: ttl, bounds: bounds}
}

// Publish commits one message. Empty or whitespace-only text is a silent
// no-op: ok is false, err is nil, nothing is stored or broadcast. A failed
// store write or broadcast is surfaced to the caller, never retried.
func (p *Publisher) Publish(ctx context.Context, text string) (domain.Message, bool, error) {
	if strings.TrimSpace(text) == "" {
		metrics.PublishNoopsTotal.Inc()
		return domain.Message{}, false, nil
	}

	msg := domain.Message{
		ID:    uuid.NewString(),
		Text:  text,
		Color: randomColor(),
		X:     randomCoord(p.bounds.MinX, p.bounds.MaxX),
		Y:     randomCoord(p.bounds.MinY, p.bounds.MaxY),
	}

	if err := p.store.Put(ctx, msg, p.ttl); err != nil {
		metrics.PublishErrorsTotal.Inc()
		return domain.Message{}, false, fmt.Errorf("failed to store message: %w", err)
	}

	if p.channel != nil {
		if err := p.channel.Publish(ctx, msg); err != nil {
			metrics.PublishErrorsTotal.Inc()
			return msg, true, fmt.Errorf("failed to broadcast message: %w", err)
		}
	}

	metrics.MessagesPublishedTotal.Inc()
	return msg, true, nil
}

// randomColor draws a uniform color over the full RGB space.
func randomColor() string {
	return fmt.Sprintf("#%06x", rand.IntN(0x1000000))
}

// randomCoord draws a percent coordinate in [min, max], rounded to two
// decimals.
func randomCoord(min, max float64) float64 {
	v := min + rand.Float64()*(max-min)
	return math.Round(v*100) / 100
}
