package runtime

import (
	"context"
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
)

// Orchestrator composes the processing pipeline for the three use cases:
// Create (process -> store -> broadcast), ListBySession and Search.
type Orchestrator struct {
	processor *domain.Processor
	repo      contract.MessageRepository
	registry  contract.Registry

	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

func NewOrchestrator(processor *domain.Processor, repo contract.MessageRepository,
	registry contract.Registry) *Orchestrator {
	return &Orchestrator{
		processor:    processor,
		repo:         repo,
		registry:     registry,
		sessionLocks: make(map[string]*sync.Mutex),
	}
}

// CreateMessage builds, persists and broadcasts a message, strictly in that
// order. A validation or storage failure short-circuits: a message that was
// not persisted is never broadcast. Broadcast failures are isolated per
// subscriber inside the registry and never fail the create.
//
// The session lock spans processing through broadcast so that, within one
// session, CreatedAt is monotonically non-decreasing and subscribers see
// broadcasts in persistence-completion order.
func (o *Orchestrator) CreateMessage(ctx context.Context, cmd domain.PostMessageCommand) (domain.Message, error) {
	lock := o.sessionLock(cmd.SessionID)
	lock.Lock()
	defer lock.Unlock()

	msg, err := o.processor.Process(cmd)
	if err != nil {
		return domain.Message{}, err
	}

	if err := o.repo.Store(msg); err != nil {
		return domain.Message{}, err
	}

	o.registry.Broadcast(ctx, msg)
	return msg, nil
}

// GetMessages returns one page of a session's history. An unknown session
// yields an empty slice, not an error.
func (o *Orchestrator) GetMessages(cmd domain.GetMessagesCommand) ([]domain.Message, error) {
	return o.repo.ListBySession(cmd.SessionID, cmd.Limit, cmd.Offset, cmd.Sender)
}

// SearchMessages finds messages across all sessions whose sanitized content
// contains the query, most recent first.
func (o *Orchestrator) SearchMessages(ctx context.Context, query string) ([]domain.Message, error) {
	return o.repo.SearchByContent(ctx, query)
}

// RegisterSubscriber attaches a sink to a session (empty = global scope).
func (o *Orchestrator) RegisterSubscriber(sessionID string, sink contract.EventSink) contract.SubscriptionID {
	return o.registry.Subscribe(sessionID, sink)
}

// UnregisterSubscriber disconnects a subscriber.
func (o *Orchestrator) UnregisterSubscriber(id contract.SubscriptionID) {
	o.registry.Unsubscribe(id)
}

// sessionLock returns the mutex serializing creates for one session.
// Locks are kept for the process lifetime; sessions are few and long-lived.
func (o *Orchestrator) sessionLock(sessionID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		o.sessionLocks[sessionID] = lock
	}
	return lock
}
