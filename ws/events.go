// Package ws exposes the websocket endpoint: one JSON event envelope in
// each direction, a connection lifecycle state machine, and the glue
// between the transport and the core services.
package ws

import (
	"encoding/json"
	"time"

	"direct-chat/domain"
	"direct-chat/domain/event"

	"github.com/samber/lo"
)

// Envelope is the wire framing for every event, both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads.

type joinPayload struct {
	Token string `json:"token"`
}

type sendMessagePayload struct {
	Content     string `json:"content"`
	RecipientID string `json:"recipientId"`
	MessageType string `json:"messageType,omitempty"`
}

type typingPayload struct {
	RecipientID string `json:"recipientId"`
	IsTyping    bool   `json:"isTyping"`
}

// Outbound payloads.

type rosterEntryPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Status      string `json:"status"`
}

type presencePayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type messagePayload struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"senderId"`
	SenderName  string     `json:"senderName"`
	RecipientID string     `json:"recipientId"`
	Content     string     `json:"content"`
	MessageType string     `json:"messageType"`
	Timestamp   time.Time  `json:"timestamp"`
	IsRead      bool       `json:"isRead"`
	IsDelivered bool       `json:"isDelivered"`
	IsEdited    bool       `json:"isEdited"`
	EditedAt    *time.Time `json:"editedAt,omitempty"`
}

type typingEventPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	IsTyping    bool   `json:"isTyping"`
}

func toMessagePayload(view domain.MessageView) messagePayload {
	return messagePayload{
		ID:          view.ID.String(),
		SenderID:    view.SenderID,
		SenderName:  view.SenderName,
		RecipientID: view.RecipientID,
		Content:     view.Content,
		MessageType: string(view.Type),
		Timestamp:   view.CreatedAt,
		IsRead:      view.IsRead,
		IsDelivered: view.IsDelivered,
		IsEdited:    view.IsEdited,
		EditedAt:    view.EditedAt,
	}
}

// encodeEvent turns a domain event into its wire frame. The second return
// value is false for events that never leave the server as JSON (pings).
func encodeEvent(e event.DomainEvent) ([]byte, bool, error) {
	var payload any

	switch evt := e.(type) {
	case event.OnlineRoster:
		payload = lo.Map(evt.Users, func(entry event.RosterEntry, _ int) rosterEntryPayload {
			return rosterEntryPayload{
				UserID:      entry.UserID,
				DisplayName: entry.DisplayName,
				Status:      entry.Status,
			}
		})
	case event.UserOnline:
		payload = presencePayload{UserID: evt.UserID, DisplayName: evt.DisplayName}
	case event.UserOffline:
		payload = presencePayload{UserID: evt.UserID, DisplayName: evt.DisplayName}
	case event.NewMessage:
		payload = toMessagePayload(evt.Message)
	case event.MessageSent:
		payload = toMessagePayload(evt.Message)
	case event.UserTyping:
		payload = typingEventPayload{
			UserID:      evt.UserID,
			DisplayName: evt.DisplayName,
			IsTyping:    evt.IsTyping,
		}
	case event.Notice:
		payload = evt.Reason
	case event.Ping:
		return nil, false, nil
	default:
		return nil, false, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, false, err
	}
	frame, err := json.Marshal(Envelope{Type: e.EventName(), Data: data})
	if err != nil {
		return nil, false, err
	}
	return frame, true, nil
}
