package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/1363V4/datastar-void/internal/domain"
	"github.com/1363V4/datastar-void/internal/metrics"
	"github.com/1363V4/datastar-void/internal/render"
)

// PushStrategy subscribes to the broadcast channel and relays each payload
// as an incremental fragment. Minimal latency, no polling — but a message
// published while the viewer is between subscriptions is lost to them for
// good. That trade-off is accepted.
type PushStrategy struct {
	channel  domain.Channel
	renderer *render.Renderer
}

func NewPushStrategy(channel domain.Channel, renderer *render.Renderer) *PushStrategy {
	return &PushStrategy{channel: channel, renderer: renderer}
}

func (s *PushStrategy) Name() string { return "push" }

// Run subscribes before entering the loop, so nothing published after Run
// starts delivering is missed. Every termination path attempts the
// unsubscribe; a failing unsubscribe is logged, not propagated.
func (s *PushStrategy) Run(ctx context.Context, sink Sink) error {
	sub, err := s.channel.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			slog.Warn("Failed to close subscription", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			if msg.ID == "" {
				// Control or keepalive signal, nothing to render.
				continue
			}
			if err := s.emit(sink, msg); err != nil {
				return nil
			}
		}
	}
}

func (s *PushStrategy) emit(sink Sink, msg domain.Message) error {
	frag, err := s.renderer.Incremental(msg)
	if err != nil {
		// Degrade to "no update" rather than corrupting the stream.
		slog.Error("Failed to render incremental fragment", "error", err)
		return nil
	}
	if err := sink.Send(frag); err != nil {
		slog.Debug("Viewer sink closed", "error", err)
		return err
	}
	metrics.FragmentsDeliveredTotal.WithLabelValues(string(render.MergePrepend)).Inc()
	return nil
}
