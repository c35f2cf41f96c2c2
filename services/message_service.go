package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"direct-chat/contract"
	"direct-chat/domain"
	"direct-chat/domain/event"
	apperrors "direct-chat/errors"
	"direct-chat/moderation"
	"direct-chat/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// SendCommand is an outbound send request issued by a live connection.
type SendCommand struct {
	Sender      domain.Identity
	RecipientID string
	Content     string
	Type        domain.MessageType
}

type IMessageService interface {
	Send(ctx context.Context, cmd SendCommand, reply contract.EventSink) (domain.MessageView, error)
	History(userA, userB string) ([]domain.MessageView, error)
}

// MessageService routes direct messages: validate, moderate, persist,
// deliver to a reachable recipient, acknowledge the sender.
type MessageService struct {
	repository repositories.IMessageRepository
	users      repositories.IUserRepository
	registry   contract.IRegistry
	moderator  *moderation.Moderator
	validate   *validator.Validate
	log        *slog.Logger
}

func NewMessageService(
	repository repositories.IMessageRepository,
	users repositories.IUserRepository,
	registry contract.IRegistry,
	moderator *moderation.Moderator,
	log *slog.Logger,
) *MessageService {
	return &MessageService{
		repository: repository,
		users:      users,
		registry:   registry,
		moderator:  moderator,
		validate:   validator.New(),
		log:        log,
	}
}

// Send persists the message exactly once, pushes it to the recipient when
// reachable, and unconditionally acknowledges the sender on reply.
// Persistence failure abandons the send: no partial delivery.
// Delivery to the recipient is at-most-once, with no retry at this layer.
func (s *MessageService) Send(ctx context.Context, cmd SendCommand, reply contract.EventSink) (domain.MessageView, error) {
	content := strings.TrimSpace(cmd.Content)
	if content == "" {
		return domain.MessageView{}, apperrors.ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > domain.MaxContentLength {
		return domain.MessageView{}, apperrors.ErrContentTooLong
	}
	if err := s.validate.Var(cmd.RecipientID, "required,uuid4"); err != nil {
		return domain.MessageView{}, apperrors.ErrInvalidRecipient
	}

	messageType := cmd.Type
	if messageType == "" {
		messageType = domain.MessageTypeText
	}
	if !domain.ValidMessageType(messageType) {
		return domain.MessageView{}, apperrors.ErrInvalidType
	}

	message := domain.Message{
		ID:          uuid.New(),
		SenderID:    cmd.Sender.UserID,
		RecipientID: cmd.RecipientID,
		Content:     s.moderator.Censor(content),
		Type:        messageType,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repository.StoreMessage(toDiskMessage(message)); err != nil {
		return domain.MessageView{}, fmt.Errorf("%w: %v", apperrors.ErrStoreFailure, err)
	}

	if record, reachable := s.registry.Lookup(cmd.RecipientID); reachable {
		// Flag update failure is logged, not fatal: the message is stored
		// and will be fetched on the next history load.
		if err := s.repository.MarkDelivered(message.ID); err != nil {
			s.log.Warn("Delivered flag not updated", "message_id", message.ID, "error", err)
		} else {
			message.IsDelivered = true
		}

		view := domain.MessageView{Message: message, SenderName: cmd.Sender.DisplayName}
		if err := record.Handle.Consume(ctx, event.NewMessage{Message: view}); err != nil {
			s.log.Warn("Best-effort delivery failed, message remains stored",
				"message_id", message.ID, "recipient", cmd.RecipientID, "error", err)
		}
	}

	view := domain.MessageView{Message: message, SenderName: cmd.Sender.DisplayName}
	if reply != nil {
		if err := reply.Consume(ctx, event.MessageSent{Message: view}); err != nil {
			s.log.Debug("Sender ack not delivered", "message_id", message.ID, "error", err)
		}
	}
	return view, nil
}

// History returns every message between the two users, oldest first, with
// sender display names resolved. It is a pure read and idempotent.
func (s *MessageService) History(userA, userB string) ([]domain.MessageView, error) {
	diskMessages, err := s.repository.GetConversation(userA, userB)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreFailure, err)
	}

	names := s.resolveNames(userA, userB)
	return lo.Map(diskMessages, func(item repositories.DiskMessage, _ int) domain.MessageView {
		return domain.MessageView{
			Message:    fromDiskMessage(item),
			SenderName: names[item.SenderID],
		}
	}), nil
}

// resolveNames maps both participant ids to display names, falling back to
// the raw id when the account is gone.
func (s *MessageService) resolveNames(userIDs ...string) map[string]string {
	names := make(map[string]string, len(userIDs))
	for _, id := range userIDs {
		user, err := s.users.GetUserByID(id)
		if err != nil {
			s.log.Debug("Display name not resolved", "user_id", id, "error", err)
			names[id] = id
			continue
		}
		names[id] = user.DisplayName
	}
	return names
}

func toDiskMessage(message domain.Message) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:          message.ID,
		SenderID:    message.SenderID,
		RecipientID: message.RecipientID,
		Content:     message.Content,
		Type:        string(message.Type),
		At:          message.CreatedAt,
		IsRead:      message.IsRead,
		IsDelivered: message.IsDelivered,
		IsEdited:    message.IsEdited,
		EditedAt:    message.EditedAt,
	}
}

func fromDiskMessage(message repositories.DiskMessage) domain.Message {
	return domain.Message{
		ID:          message.ID,
		SenderID:    message.SenderID,
		RecipientID: message.RecipientID,
		Content:     message.Content,
		Type:        domain.MessageType(message.Type),
		CreatedAt:   message.At,
		IsRead:      message.IsRead,
		IsDelivered: message.IsDelivered,
		IsEdited:    message.IsEdited,
		EditedAt:    message.EditedAt,
	}
}
