// Package runtime coordinates live connections: admission, eviction,
// presence fan-out, and background upkeep. It contains no persistence
// or transport logic.
package runtime

import (
	"sort"
	"sync"
	"time"

	"direct-chat/contract"
	"direct-chat/domain"
)

const statusOnline = "online"

// Registry is the authoritative map from user id to the single live
// connection. All mutations go through Admit/Evict so correctness never
// depends on handler ordering.
type Registry struct {
	mu      sync.RWMutex
	records map[string]contract.ConnectionRecord
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[string]contract.ConnectionRecord)}
}

// Admit inserts or replaces the record for identity.UserID.
// If a prior connection existed, its handle is returned so the caller can
// terminate the stale session. Silently orphaning the previous connection
// would let it receive pushes and double-announce presence on disconnect.
func (r *Registry) Admit(identity domain.Identity, handle contract.ConnectionHandle) (contract.ConnectionHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var previous contract.ConnectionHandle
	replaced := false
	if existing, ok := r.records[identity.UserID]; ok {
		previous = existing.Handle
		replaced = true
	}

	r.records[identity.UserID] = contract.ConnectionRecord{
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
		JoinedAt:    time.Now().UTC(),
		Status:      statusOnline,
		Handle:      handle,
	}
	return previous, replaced
}

// Evict removes the record for userID if it still belongs to handle.
// The handle guard keeps a superseded connection's late disconnect from
// evicting its replacement. A nil handle evicts unconditionally.
// Evicting an absent user is a no-op, not an error: disconnects may race
// with eviction from elsewhere.
func (r *Registry) Evict(userID string, handle contract.ConnectionHandle) (contract.ConnectionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[userID]
	if !ok {
		return contract.ConnectionRecord{}, false
	}
	if handle != nil && record.Handle != handle {
		return contract.ConnectionRecord{}, false
	}
	delete(r.records, userID)
	return record, true
}

// Lookup is a point read. It never blocks on I/O.
func (r *Registry) Lookup(userID string) (contract.ConnectionRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[userID]
	return record, ok
}

// Snapshot returns a consistent point-in-time view of all online users,
// ordered by admission time then user id.
func (r *Registry) Snapshot() []contract.ConnectionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]contract.ConnectionRecord, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].JoinedAt.Equal(records[j].JoinedAt) {
			return records[i].JoinedAt.Before(records[j].JoinedAt)
		}
		return records[i].UserID < records[j].UserID
	})
	return records
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
