// Package domain contains core concepts of the messaging system.
// This file defines direct message records and their validation rules.
// Messages are immutable once persisted, except for delivery flags.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxContentLength bounds message content after trimming.
const MaxContentLength = 1000

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// ValidMessageType reports whether t is one of the supported message types.
func ValidMessageType(t MessageType) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile:
		return true
	}
	return false
}

// Message represents a direct message between two users.
type Message struct {
	ID          uuid.UUID
	SenderID    string
	RecipientID string
	Content     string
	Type        MessageType
	CreatedAt   time.Time
	IsRead      bool
	IsDelivered bool
	IsEdited    bool
	EditedAt    *time.Time
}

// MessageView is a Message enriched with the sender's display name,
// the shape pushed to connections and returned by history queries.
type MessageView struct {
	Message
	SenderName string
}
