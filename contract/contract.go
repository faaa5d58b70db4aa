//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"chat-relay/domain"
)

// EventSink receives broadcast messages for one live subscriber.
// Consume must be bounded: it returns an error instead of blocking
// indefinitely when the subscriber is closed, slow or gone.
type EventSink interface {
	Consume(ctx context.Context, m domain.Message) error
}

// SubscriptionID identifies one registered sink inside the registry.
type SubscriptionID string

// Registry tracks live subscribers per session and fans newly created
// messages out to them. All methods are safe for concurrent use.
type Registry interface {
	Subscribe(sessionID string, sink EventSink) SubscriptionID
	Unsubscribe(id SubscriptionID)
	Broadcast(ctx context.Context, m domain.Message)
}

// MessageRepository is the persistence port. Store may be called
// concurrently for distinct messages. ListBySession returns messages
// ordered by CreatedAt ascending with ID as tie-break; SearchByContent
// matches a case-insensitive substring of the sanitized content across
// all sessions, most recent first. Failures surface as errors.StorageError.
type MessageRepository interface {
	Store(m domain.Message) error
	ListBySession(sessionID string, limit, offset int, sender string) ([]domain.Message, error)
	SearchByContent(ctx context.Context, query string) ([]domain.Message, error)
}
