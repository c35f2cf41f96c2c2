//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"direct-chat/domain"
	"direct-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives events addressed to one live connection.
// Consume must never block on a slow consumer.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// ConnectionHandle is the opaque reference held by the registry for a live
// transport session. The registry only addresses events through it and,
// on replacement, asks it to terminate.
type ConnectionHandle interface {
	EventSink
	Close(reason string)
}

// IRegistry is the authoritative view of who is reachable right now.
type IRegistry interface {
	Admit(identity domain.Identity, handle ConnectionHandle) (ConnectionHandle, bool)
	Evict(userID string, handle ConnectionHandle) (ConnectionRecord, bool)
	Lookup(userID string) (ConnectionRecord, bool)
	Snapshot() []ConnectionRecord
	Count() int
}

// ConnectionRecord is owned exclusively by the registry. At most one record
// exists per user id at any instant.
type ConnectionRecord struct {
	UserID      string
	DisplayName string
	JoinedAt    time.Time
	Status      string
	Handle      ConnectionHandle
}

// IVerifier turns a bearer token into an identity, or fails.
type IVerifier interface {
	Verify(token string) (domain.Identity, error)
}
