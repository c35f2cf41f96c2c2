package ws

import (
	"encoding/json"
	"testing"
	"time"

	"direct-chat/domain"
	"direct-chat/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func decodeFrame(t *testing.T, frame []byte) (string, map[string]any) {
	t.Helper()
	var envelope Envelope
	require.NoError(t, json.Unmarshal(frame, &envelope))
	var payload map[string]any
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	return envelope.Type, payload
}

func TestEncodeEvent_NewMessage(t *testing.T) {
	req := require.New(t)

	id := uuid.New()
	createdAt := time.Now().UTC()
	frame, outbound, err := encodeEvent(event.NewMessage{Message: domain.MessageView{
		Message: domain.Message{
			ID:          id,
			SenderID:    "sender-id",
			RecipientID: "recipient-id",
			Content:     "hello",
			Type:        domain.MessageTypeText,
			CreatedAt:   createdAt,
			IsDelivered: true,
		},
		SenderName: "Alice",
	}})
	req.NoError(err)
	req.True(outbound)

	eventType, payload := decodeFrame(t, frame)
	req.Equal("newMessage", eventType)
	req.Equal(id.String(), payload["id"])
	req.Equal("sender-id", payload["senderId"])
	req.Equal("Alice", payload["senderName"])
	req.Equal("recipient-id", payload["recipientId"])
	req.Equal("hello", payload["content"])
	req.Equal("text", payload["messageType"])
	req.Equal(true, payload["isDelivered"])
	req.Equal(false, payload["isRead"])
	req.NotContains(payload, "editedAt")
}

func TestEncodeEvent_Presence(t *testing.T) {
	req := require.New(t)

	frame, outbound, err := encodeEvent(event.UserOnline{UserID: "u1", DisplayName: "Alice"})
	req.NoError(err)
	req.True(outbound)
	eventType, payload := decodeFrame(t, frame)
	req.Equal("userOnline", eventType)
	req.Equal("u1", payload["userId"])
	req.Equal("Alice", payload["displayName"])

	frame, outbound, err = encodeEvent(event.UserOffline{UserID: "u1", DisplayName: "Alice"})
	req.NoError(err)
	req.True(outbound)
	eventType, _ = decodeFrame(t, frame)
	req.Equal("userOffline", eventType)
}

func TestEncodeEvent_OnlineRoster(t *testing.T) {
	req := require.New(t)

	frame, outbound, err := encodeEvent(event.OnlineRoster{Users: []event.RosterEntry{
		{UserID: "u1", DisplayName: "Alice", Status: "online"},
		{UserID: "u2", DisplayName: "Bob", Status: "online"},
	}})
	req.NoError(err)
	req.True(outbound)

	var envelope Envelope
	req.NoError(json.Unmarshal(frame, &envelope))
	req.Equal("onlineUsers", envelope.Type)

	var entries []map[string]any
	req.NoError(json.Unmarshal(envelope.Data, &entries))
	req.Len(entries, 2)
	req.Equal("Alice", entries[0]["displayName"])
	req.Equal("online", entries[1]["status"])
}

func TestEncodeEvent_Typing_And_Notice(t *testing.T) {
	req := require.New(t)

	frame, outbound, err := encodeEvent(event.UserTyping{UserID: "u1", DisplayName: "Alice", IsTyping: true})
	req.NoError(err)
	req.True(outbound)
	eventType, payload := decodeFrame(t, frame)
	req.Equal("userTyping", eventType)
	req.Equal(true, payload["isTyping"])

	frame, outbound, err = encodeEvent(event.Notice{Reason: "message content cannot be empty"})
	req.NoError(err)
	req.True(outbound)

	var envelope Envelope
	req.NoError(json.Unmarshal(frame, &envelope))
	req.Equal("error", envelope.Type)

	var reason string
	req.NoError(json.Unmarshal(envelope.Data, &reason))
	req.Equal("message content cannot be empty", reason)
}

func TestEncodeEvent_Ping_Never_Leaves_As_JSON(t *testing.T) {
	req := require.New(t)

	frame, outbound, err := encodeEvent(event.Ping{})
	req.NoError(err)
	req.False(outbound)
	req.Nil(frame)
}
