// Package feed implements the per-viewer delivery loops: the snapshot-poll
// strategy that re-reads full state on an interval, and the event-push
// strategy that relays broadcast deltas. A Session wraps one strategy for
// the lifetime of one viewer's stream.
package feed

import (
	"context"

	"github.com/1363V4/datastar-void/internal/render"
)

// Sink receives rendered fragments for one viewer. Implementations are the
// SSE response writer and, in tests, recorders.
type Sink interface {
	Send(frag render.Fragment) error
}

// Strategy runs one viewer's delivery loop until ctx is cancelled. Exactly
// one strategy serves a session for its entire lifetime.
type Strategy interface {
	Name() string
	Run(ctx context.Context, sink Sink) error
}
