package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1363V4/datastar-void/internal/domain"
	"github.com/1363V4/datastar-void/internal/metrics"
	"github.com/1363V4/datastar-void/internal/render"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

const (
	// storeTimeout bounds one live-set read so a hung store cannot stall a
	// session past its next tick for long.
	storeTimeout = 2 * time.Second

	// defaultFailureBudget is how many consecutive store failures a session
	// tolerates before closing. At the default 200ms interval this is five
	// seconds of continuous unavailability.
	defaultFailureBudget = 25
)

// PollStrategy re-reads the full live set every interval and emits a full
// replacement fragment. A viewer that connects mid-stream or stalls always
// catches up on the next tick. One instance is shared by all poll sessions;
// concurrent ticks collapse into a single store read.
type PollStrategy struct {
	store    domain.Store
	renderer *render.Renderer
	clock    clockwork.Clock
	interval time.Duration
	budget   int

	group singleflight.Group
}

func NewPollStrategy(store domain.Store, renderer *render.Renderer, clock clockwork.Clock, interval time.Duration) *PollStrategy {
	return &PollStrategy{
		store:    store,
		renderer: renderer,
		clock:    clock,
		interval: interval,
		budget:   defaultFailureBudget,
	}
}

func (s *PollStrategy) Name() string { return "poll" }

// Run loops until ctx is cancelled. Transient store failures are retried on
// the next tick; once the failure budget is exhausted the session closes
// with an error. A failed send means the viewer is gone and ends the
// session normally.
func (s *PollStrategy) Run(ctx context.Context, sink Sink) error {
	failures := 0

	for {
		live, err := s.liveSet(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			failures++
			metrics.FeedRetriesTotal.Inc()
			if failures >= s.budget {
				return fmt.Errorf("store failed %d consecutive reads: %w", failures, err)
			}
			slog.Warn("Live set read failed, retrying next tick", "failures", failures, "error", err)
		default:
			failures = 0
			if len(live) > 0 {
				if err := s.emit(sink, live); err != nil {
					return nil
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-s.clock.After(s.interval):
		}
	}
}

func (s *PollStrategy) emit(sink Sink, live []domain.Message) error {
	frag, err := s.renderer.Full(live)
	if err != nil {
		// Degrade to "no update this tick" rather than corrupting the stream.
		slog.Error("Failed to render full fragment", "error", err)
		return nil
	}
	if err := sink.Send(frag); err != nil {
		slog.Debug("Viewer sink closed", "error", err)
		return err
	}
	metrics.FragmentsDeliveredTotal.WithLabelValues(string(render.MergeMorph)).Inc()
	return nil
}

// liveSet collapses concurrent reads from all poll sessions into one store
// round-trip. The shared read runs on its own timeout, detached from any
// single viewer's cancellation.
func (s *PollStrategy) liveSet(ctx context.Context) ([]domain.Message, error) {
	v, err, _ := s.group.Do("liveset", func() (any, error) {
		opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
		defer cancel()
		return s.store.LiveSet(opCtx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Message), nil
}
