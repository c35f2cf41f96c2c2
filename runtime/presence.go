package runtime

import (
	"context"
	"log/slog"
	"sync"

	"direct-chat/contract"
	"direct-chat/domain"
	"direct-chat/domain/event"

	"github.com/samber/lo"
)

// Broadcaster announces presence transitions to all live connections.
//
// Admission, eviction and the matching announcements run under a single
// mutex. That serialization is what gives listeners the per-identity
// ordering guarantee: a connection admitted after a user went offline sees
// a roster without that user and never receives the stale announcements,
// and announcements for one identity always reach every listener in
// admission order. Sinks never block (bounded buffer, overflow drop), so
// holding the lock across fan-out stays cheap.
type Broadcaster struct {
	mu       sync.Mutex
	registry contract.IRegistry
	log      *slog.Logger
}

func NewBroadcaster(registry contract.IRegistry, log *slog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, log: log}
}

// Admit registers the connection, delivers the current roster to it, and
// announces the user online to everyone else. The superseded handle, if
// any, is returned so the caller can terminate it.
func (b *Broadcaster) Admit(ctx context.Context, identity domain.Identity, handle contract.ConnectionHandle) contract.ConnectionHandle {
	b.mu.Lock()
	defer b.mu.Unlock()

	previous, replaced := b.registry.Admit(identity, handle)

	roster := event.OnlineRoster{Users: lo.Map(b.registry.Snapshot(),
		func(record contract.ConnectionRecord, _ int) event.RosterEntry {
			return event.RosterEntry{
				UserID:      record.UserID,
				DisplayName: record.DisplayName,
				Status:      record.Status,
			}
		})}
	if err := handle.Consume(ctx, roster); err != nil {
		b.log.Warn("Roster snapshot not delivered", "user_id", identity.UserID, "error", err)
	}

	if !replaced {
		b.announce(ctx, identity.UserID, event.UserOnline{
			UserID:      identity.UserID,
			DisplayName: identity.DisplayName,
		})
	}

	if replaced {
		return previous
	}
	return nil
}

// Evict removes the connection if handle still owns the record and
// announces the user offline to everyone else. A connection that was never
// fully admitted produces no announcement.
func (b *Broadcaster) Evict(ctx context.Context, userID string, handle contract.ConnectionHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, evicted := b.registry.Evict(userID, handle)
	if !evicted {
		return
	}
	b.announce(ctx, userID, event.UserOffline{
		UserID:      record.UserID,
		DisplayName: record.DisplayName,
	})
}

// announce fans an event out to every live connection except the subject's own.
func (b *Broadcaster) announce(ctx context.Context, subjectID string, e event.DomainEvent) {
	for _, record := range b.registry.Snapshot() {
		if record.UserID == subjectID {
			continue
		}
		if err := record.Handle.Consume(ctx, e); err != nil {
			b.log.Warn("Presence event not delivered",
				"event", e.EventName(),
				"listener", record.UserID,
				"error", err)
		}
	}
}
