//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"context"
)

// maxSearchResults bounds one SearchByContent call.
const maxSearchResults = 1000

// MessageRepository persists messages in BadgerDB and mirrors their
// sanitized content into a Bluge index for substring search.
type MessageRepository struct {
	db           *badger.DB
	index        *bluge.Writer
	log          *slog.Logger
	defaultLimit int
}

var _ contract.MessageRepository = (*MessageRepository)(nil)

func NewMessageRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger, defaultLimit int) *MessageRepository {
	return &MessageRepository{db: db, index: index, log: log, defaultLimit: defaultLimit}
}

// diskMessage is the CBOR layout of one Badger value.
type diskMessage struct {
	ID        string `cbor:"id"`
	SessionID string `cbor:"session_id"`
	Sender    string `cbor:"sender"`
	Content   string `cbor:"content"`
	Sanitized string `cbor:"sanitized_content"`
	Flagged   bool   `cbor:"flagged"`
	WordCount int    `cbor:"word_count"`
	CharCount int    `cbor:"char_count"`
	Language  string `cbor:"language"`
	At        int64  `cbor:"at"` // UnixNano
}

// Store persists a message and indexes it for search.
// The key is formatted as "msg:{session_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond; the UUID doubles as the ascending tie-break.
//
// Storing the same message twice overwrites the same key and document,
// so a retried Store is harmless.
func (m *MessageRepository) Store(message domain.Message) error {
	key := messageKey(message)
	bytes, err := cbor.Marshal(fromMessage(message))
	if err != nil {
		return errors.StorageError{Kind: errors.Unavailable, Err: err}
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return mapBadgerErr(err)
	}

	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField("content", strings.ToLower(message.SanitizedContent))).
		AddField(bluge.NewNumericField("created_at", float64(message.CreatedAt.UnixMilli())).Sortable()).
		AddField(bluge.NewStoredOnlyField("payload", bytes))
	if err := m.index.Update(doc.ID(), doc); err != nil {
		return errors.StorageError{Kind: errors.Unavailable, Err: err}
	}
	return nil
}

// ListBySession retrieves one page of a session's messages using a prefix
// scan. Thanks to the padded timestamp in the key, messages are naturally
// sorted by creation time ascending. A non-positive limit is clamped to the
// configured default, a negative offset to zero; offset counts rows that
// matched the optional sender filter.
func (m *MessageRepository) ListBySession(sessionID string, limit, offset int, sender string) ([]domain.Message, error) {
	if limit <= 0 {
		limit = m.defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	var disks []diskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", sessionID))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		skipped := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if len(disks) == limit {
				break
			}
			var disk diskMessage
			err := it.Item().Value(func(value []byte) error {
				return cbor.Unmarshal(value, &disk)
			})
			if err != nil {
				return err
			}
			if sender != "" && disk.Sender != sender {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			disks = append(disks, disk)
		}
		return nil
	})
	if err != nil {
		return nil, mapBadgerErr(err)
	}

	return toMessages(disks)
}

// SearchByContent runs a case-insensitive substring query against the
// sanitized content of every stored message, most recent first.
func (m *MessageRepository) SearchByContent(ctx context.Context, query string) ([]domain.Message, error) {
	reader, err := m.index.Reader()
	if err != nil {
		return nil, errors.StorageError{Kind: errors.Unavailable, Err: err}
	}
	defer func() {
		if err := reader.Close(); err != nil {
			m.log.Warn("Failed to close bluge reader", "error", err)
		}
	}()

	wildcard := bluge.NewWildcardQuery("*" + strings.ToLower(query) + "*")
	wildcard.SetField("content")
	request := bluge.NewTopNSearch(maxSearchResults, wildcard).
		SortBy([]string{"-created_at"})

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, errors.StorageError{Kind: errors.Unavailable, Err: err}
	}

	var disks []diskMessage
	match, err := iterator.Next()
	for err == nil && match != nil {
		var disk diskMessage
		var decodeErr error
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "payload" {
				decodeErr = cbor.Unmarshal(value, &disk)
			}
			return true
		})
		if visitErr != nil {
			return nil, errors.StorageError{Kind: errors.Unavailable, Err: visitErr}
		}
		if decodeErr != nil {
			return nil, errors.StorageError{Kind: errors.Unavailable, Err: decodeErr}
		}
		disks = append(disks, disk)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, errors.StorageError{Kind: errors.Unavailable, Err: err}
	}

	return toMessages(disks)
}

func messageKey(message domain.Message) string {
	return fmt.Sprintf("msg:%s:%019d:%s",
		message.SessionID,
		message.CreatedAt.UnixNano(),
		message.ID,
	)
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:        message.ID.String(),
		SessionID: message.SessionID,
		Sender:    message.Sender,
		Content:   message.Content,
		Sanitized: message.SanitizedContent,
		Flagged:   message.Flagged,
		WordCount: message.WordCount,
		CharCount: message.CharCount,
		Language:  message.Language,
		At:        message.CreatedAt.UnixNano(),
	}
}

func toMessages(disks []diskMessage) ([]domain.Message, error) {
	var parseErr error
	messages := lo.Map(disks, func(disk diskMessage, _ int) domain.Message {
		parsedID, err := uuid.Parse(disk.ID)
		if err != nil && parseErr == nil {
			parseErr = err
		}
		return domain.Message{
			ID:               parsedID,
			SessionID:        disk.SessionID,
			Sender:           disk.Sender,
			Content:          disk.Content,
			SanitizedContent: disk.Sanitized,
			Flagged:          disk.Flagged,
			WordCount:        disk.WordCount,
			CharCount:        disk.CharCount,
			Language:         disk.Language,
			CreatedAt:        time.Unix(0, disk.At).UTC(),
		}
	})
	if parseErr != nil {
		return nil, errors.StorageError{Kind: errors.Unavailable, Err: parseErr}
	}
	return messages, nil
}

func mapBadgerErr(err error) error {
	switch {
	case stderrors.Is(err, badger.ErrConflict):
		return errors.StorageError{Kind: errors.Conflict, Err: err}
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return errors.StorageError{Kind: errors.NotFound, Err: err}
	default:
		return errors.StorageError{Kind: errors.Unavailable, Err: err}
	}
}
