package runtime

import (
	"context"
	"sync"
	"testing"

	"direct-chat/domain"
	"direct-chat/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type nopHandle struct {
	name string
}

func (h *nopHandle) Consume(_ context.Context, _ event.DomainEvent) error { return nil }
func (h *nopHandle) Close(_ string)                                       {}

func TestRegistry_Admit_Single_User(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	identity := domain.Identity{UserID: uuid.NewString(), DisplayName: "Alice"}
	handle := &nopHandle{}

	// Given no user is connected
	req.Empty(registry.Snapshot())
	req.Zero(registry.Count())

	// When a user is admitted
	previous, replaced := registry.Admit(identity, handle)

	// Then
	req.Nil(previous)
	req.False(replaced)
	req.Equal(1, registry.Count())

	record, ok := registry.Lookup(identity.UserID)
	req.True(ok)
	req.Equal(identity.UserID, record.UserID)
	req.Equal("Alice", record.DisplayName)
	req.Equal("online", record.Status)
	req.Same(handle, record.Handle)
}

func TestRegistry_Admit_Replaces_Previous_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	identity := domain.Identity{UserID: uuid.NewString(), DisplayName: "Alice"}
	first := &nopHandle{name: "first"}
	second := &nopHandle{name: "second"}

	// Given an already admitted connection
	registry.Admit(identity, first)

	// When the same user is admitted again
	previous, replaced := registry.Admit(identity, second)

	// Then exactly one record remains, pointing at the new handle,
	// and the stale handle is handed back for termination
	req.True(replaced)
	req.Same(first, previous)
	req.Equal(1, registry.Count())

	record, ok := registry.Lookup(identity.UserID)
	req.True(ok)
	req.Same(second, record.Handle)
}

func TestRegistry_Evict_Is_A_NoOp_When_Absent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	_, evicted := registry.Evict(uuid.NewString(), nil)
	req.False(evicted)
}

func TestRegistry_Evict_Guards_Against_Stale_Handles(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	identity := domain.Identity{UserID: uuid.NewString(), DisplayName: "Alice"}
	first := &nopHandle{name: "first"}
	second := &nopHandle{name: "second"}

	registry.Admit(identity, first)
	registry.Admit(identity, second)

	// When the superseded connection disconnects late
	_, evicted := registry.Evict(identity.UserID, first)

	// Then the replacement record survives
	req.False(evicted)
	req.Equal(1, registry.Count())

	// And the owning handle can still evict
	record, evicted := registry.Evict(identity.UserID, second)
	req.True(evicted)
	req.Equal(identity.UserID, record.UserID)
	req.Zero(registry.Count())
}

func TestRegistry_Snapshot_Matches_Admitted_Set(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	alice := domain.Identity{UserID: uuid.NewString(), DisplayName: "Alice"}
	bob := domain.Identity{UserID: uuid.NewString(), DisplayName: "Bob"}
	clara := domain.Identity{UserID: uuid.NewString(), DisplayName: "Clara"}

	registry.Admit(alice, &nopHandle{})
	registry.Admit(bob, &nopHandle{})
	registry.Admit(clara, &nopHandle{})
	registry.Evict(bob.UserID, nil)

	snapshot := registry.Snapshot()
	req.Len(snapshot, 2)

	var ids []string
	for _, record := range snapshot {
		ids = append(ids, record.UserID)
	}
	req.ElementsMatch([]string{alice.UserID, clara.UserID}, ids)
}

func TestRegistry_Concurrent_Admit_Evict(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	const users = 50
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			identity := domain.Identity{UserID: uuid.NewString(), DisplayName: "user"}
			registry.Admit(identity, &nopHandle{})
			registry.Snapshot()
			if _, ok := registry.Lookup(identity.UserID); ok {
				registry.Evict(identity.UserID, nil)
			}
		}()
	}
	wg.Wait()

	req.Zero(registry.Count())
	req.Empty(registry.Snapshot())
}
