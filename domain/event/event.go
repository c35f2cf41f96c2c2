// Package event defines the events pushed to live connections.
// Event names match the wire-level event types of the websocket protocol.
package event

import (
	"direct-chat/domain"
)

type DomainEvent interface {
	EventName() string
}

// RosterEntry describes one online user inside a roster snapshot.
type RosterEntry struct {
	UserID      string
	DisplayName string
	Status      string
}

// OnlineRoster carries the full set of online users, delivered to a
// connection right after its own admission.
type OnlineRoster struct {
	Users []RosterEntry
}

func (OnlineRoster) EventName() string { return "onlineUsers" }

type UserOnline struct {
	UserID      string
	DisplayName string
}

func (UserOnline) EventName() string { return "userOnline" }

type UserOffline struct {
	UserID      string
	DisplayName string
}

func (UserOffline) EventName() string { return "userOffline" }

// NewMessage is pushed to the recipient of a freshly persisted message.
type NewMessage struct {
	Message domain.MessageView
}

func (NewMessage) EventName() string { return "newMessage" }

// MessageSent acknowledges a send to its author, whether or not the
// recipient was reachable.
type MessageSent struct {
	Message domain.MessageView
}

func (MessageSent) EventName() string { return "messageSent" }

type UserTyping struct {
	UserID      string
	DisplayName string
	IsTyping    bool
}

func (UserTyping) EventName() string { return "userTyping" }

// Notice reports a recoverable error over an established connection.
type Notice struct {
	Reason string
}

func (Notice) EventName() string { return "error" }

// Ping asks the transport layer to emit a keepalive probe. It never
// reaches the client as a JSON event.
type Ping struct{}

func (Ping) EventName() string { return "ping" }
