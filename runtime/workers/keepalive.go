package workers

import (
	"context"
	"log/slog"
	"time"

	"direct-chat/contract"
	"direct-chat/domain/event"
)

// KeepaliveWorker periodically asks every live connection to emit a
// transport-level ping. Connections whose peer stopped answering will miss
// their read deadline and terminate, which triggers eviction and the
// offline announcement.
type KeepaliveWorker struct {
	registry contract.IRegistry
	interval time.Duration
	log      *slog.Logger
}

func NewKeepaliveWorker(registry contract.IRegistry, interval time.Duration, log *slog.Logger) *KeepaliveWorker {
	return &KeepaliveWorker{registry: registry, interval: interval, log: log}
}

func (w *KeepaliveWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping keepalive worker")
			return ctx.Err()
		case <-ticker.C:
			for _, record := range w.registry.Snapshot() {
				if err := record.Handle.Consume(ctx, event.Ping{}); err != nil {
					w.log.Debug("Keepalive not accepted", "user_id", record.UserID, "error", err)
				}
			}
		}
	}
}
