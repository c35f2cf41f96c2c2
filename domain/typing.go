package domain

// TypingSignal is a transient indicator relayed between two users.
// It is never persisted and never queued for offline recipients.
type TypingSignal struct {
	FromUserID string
	ToUserID   string
	IsTyping   bool
}
