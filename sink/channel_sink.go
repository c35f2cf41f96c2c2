// Package sink provides per-connection event buffers.
package sink

import (
	"context"
	"log/slog"

	"direct-chat/domain/event"
)

// ChannelSink decouples event producers from one connection's write loop.
// The buffer is bounded: when the peer cannot keep up, new events are
// dropped with a warning rather than blocking the producer. A sender's
// Send must never wait on a slow recipient.
type ChannelSink struct {
	Events chan event.DomainEvent
	log    *slog.Logger
}

func NewChannelSink(log *slog.Logger, bufferSize int) *ChannelSink {
	return &ChannelSink{
		Events: make(chan event.DomainEvent, bufferSize),
		log:    log,
	}
}

// Consume is called by the registry fan-out and the message router.
// It redirects the event through the channel owned by the connection;
// the transport write loop takes it from there.
func (s *ChannelSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.log.Warn("Connection buffer full, dropping event", "event", e.EventName())
		return nil
	}
}
