package services

import (
	"context"
	"log/slog"

	"direct-chat/contract"
	"direct-chat/domain"
	"direct-chat/domain/event"
)

type ITypingService interface {
	Relay(ctx context.Context, from domain.Identity, toUserID string, isTyping bool)
}

// TypingService forwards ephemeral typing signals between two users.
// Nothing is persisted or queued: an offline recipient simply never hears
// about it, and the sink's bounded buffer caps any event storm.
type TypingService struct {
	registry contract.IRegistry
	log      *slog.Logger
}

func NewTypingService(registry contract.IRegistry, log *slog.Logger) *TypingService {
	return &TypingService{registry: registry, log: log}
}

func (s *TypingService) Relay(ctx context.Context, from domain.Identity, toUserID string, isTyping bool) {
	record, reachable := s.registry.Lookup(toUserID)
	if !reachable {
		return
	}
	if err := record.Handle.Consume(ctx, event.UserTyping{
		UserID:      from.UserID,
		DisplayName: from.DisplayName,
		IsTyping:    isTyping,
	}); err != nil {
		s.log.Debug("Typing signal dropped", "to", toUserID, "error", err)
	}
}
