package feed

import (
	"context"

	"github.com/1363V4/datastar-void/internal/domain"
	"github.com/1363V4/datastar-void/internal/logging"
	"github.com/1363V4/datastar-void/internal/metrics"
)

// Session is one viewer's long-lived update stream. The viewer identity is
// assigned before the session starts and the delivery strategy is fixed for
// the session's lifetime.
type Session struct {
	viewer   domain.Viewer
	strategy Strategy
}

func NewSession(viewer domain.Viewer, strategy Strategy) *Session {
	return &Session{viewer: viewer, strategy: strategy}
}

// Run drives the delivery loop until cancellation. Cancellation is a normal
// termination path: it is observed at the strategy's next suspension point
// and always routes through the strategy's cleanup before Run returns.
func (s *Session) Run(ctx context.Context, sink Sink) error {
	log := logging.WithViewer(s.viewer.Name).With("strategy", s.strategy.Name())

	metrics.FeedSessionsActive.WithLabelValues(s.strategy.Name()).Inc()
	defer metrics.FeedSessionsActive.WithLabelValues(s.strategy.Name()).Dec()

	log.Info("Feed session started")
	err := s.strategy.Run(ctx, sink)
	if err != nil {
		log.Warn("Feed session closed with error", "error", err)
		return err
	}
	log.Info("Feed session closed")
	return nil
}
