//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	apperrors "direct-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	MarkDelivered(id uuid.UUID) error
	GetConversation(userA, userB string) ([]DiskMessage, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// DiskMessage is the stored representation of a direct message.
type DiskMessage struct {
	ID          uuid.UUID  `json:"id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	Content     string     `json:"content"`
	Type        string     `json:"type"`
	At          time.Time  `json:"at"`
	IsRead      bool       `json:"is_read"`
	IsDelivered bool       `json:"is_delivered"`
	IsEdited    bool       `json:"is_edited"`
	EditedAt    *time.Time `json:"edited_at,omitempty"`
}

// pairKey builds the unordered-pair prefix so both directions of a
// conversation land under the same key range.
func pairKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}

// primaryKey is formatted as "dm:{pair}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func primaryKey(message DiskMessage) []byte {
	return []byte(fmt.Sprintf("dm:%s:%019d:%s",
		pairKey(message.SenderID, message.RecipientID),
		message.At.UnixNano(),
		message.ID,
	))
}

func indexKey(id uuid.UUID) []byte {
	return []byte("dmid:" + id.String())
}

// StoreMessage persists a message under its chronological key and writes a
// secondary id index so delivery flags can be updated later without knowing
// the participants or the timestamp.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	key := primaryKey(message)
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, bytes); err != nil {
			return err
		}
		return txn.Set(indexKey(message.ID), key)
	})
}

// MarkDelivered flips the delivered flag of an already stored message.
// Callers treat a failure here as best-effort: the message itself is safely
// stored and will surface on the next history load.
func (m MessageRepository) MarkDelivered(id uuid.UUID) error {
	return m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return apperrors.ErrMessageNotFound
			}
			return err
		}
		var key []byte
		if err := item.Value(func(val []byte) error {
			key = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}

		record, err := txn.Get(key)
		if err != nil {
			return err
		}
		var message DiskMessage
		if err := record.Value(func(val []byte) error {
			return json.Unmarshal(val, &message)
		}); err != nil {
			return err
		}

		message.IsDelivered = true
		bytes, err := json.Marshal(message)
		if err != nil {
			return err
		}
		return txn.Set(key, bytes)
	})
}

// GetConversation retrieves every message exchanged between the two users,
// oldest first. Thanks to the padded timestamp in the key, a forward prefix
// scan is already chronological. When a limit is configured, only the most
// recent messages are kept.
func (m MessageRepository) GetConversation(userA, userB string) ([]DiskMessage, error) {
	var byteMessages [][]byte
	prefix := []byte("dm:" + pairKey(userA, userB) + ":")

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if m.limitMessages != nil && len(byteMessages) > *m.limitMessages {
		m.log.Debug(fmt.Sprintf("Maximum of %d messages reached, truncating history", *m.limitMessages))
		byteMessages = byteMessages[len(byteMessages)-*m.limitMessages:]
	}

	messages := make([]DiskMessage, 0, len(byteMessages))
	for _, b := range byteMessages {
		var message DiskMessage
		if err := json.Unmarshal(b, &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}
