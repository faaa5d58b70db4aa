// Package runtime composes the processing pipeline: it owns the connection
// registry and the orchestrator without containing domain rules itself.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"

	"github.com/google/uuid"
)

type Set map[contract.SubscriptionID]struct{}

// globalScope collects subscribers that asked for every session's events.
const globalScope = ""

// Registry is the single owner of shared mutable state in the core:
// the set of live subscriber sinks, grouped by session. One Registry is
// constructed at process start and shared by the create path and the
// connection path.
type Registry struct {
	mu       sync.RWMutex
	sinks    map[contract.SubscriptionID]contract.EventSink
	sessions map[string]Set // session -> subscription ids, "" = global scope
	scopes   map[contract.SubscriptionID]string
	log      *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		sinks:    make(map[contract.SubscriptionID]contract.EventSink),
		sessions: make(map[string]Set),
		scopes:   make(map[contract.SubscriptionID]string),
		log:      log,
	}
}

// Subscribe registers a sink for one session, or for every session when
// sessionID is empty. The returned id is the handle for Unsubscribe.
func (r *Registry) Subscribe(sessionID string, sink contract.EventSink) contract.SubscriptionID {
	id := contract.SubscriptionID(uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sinks[id] = sink
	r.scopes[id] = sessionID

	if _, ok := r.sessions[sessionID]; !ok {
		r.sessions[sessionID] = make(Set)
	}
	r.sessions[sessionID][id] = struct{}{}
	return id
}

// Unsubscribe removes a subscription. It is an idempotent no-op for ids
// already removed, and safe to call concurrently with an in-flight
// Broadcast. Empty session sets are dropped to prevent unbounded growth.
func (r *Registry) Unsubscribe(id contract.SubscriptionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID, ok := r.scopes[id]
	if !ok {
		return
	}
	delete(r.sinks, id)
	delete(r.scopes, id)

	if members, ok := r.sessions[sessionID]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(r.sessions, sessionID)
		}
	}
}

// Broadcast delivers the message to every sink subscribed to its session
// plus the global scope. Membership is snapshotted under the read lock and
// delivery happens outside it, so a slow sink never blocks the registry.
// A sink whose delivery fails is unsubscribed; no error ever reaches the
// caller of Broadcast.
func (r *Registry) Broadcast(ctx context.Context, m domain.Message) {
	type target struct {
		id   contract.SubscriptionID
		sink contract.EventSink
	}

	r.mu.RLock()
	var targets []target
	for _, scope := range []string{m.SessionID, globalScope} {
		for id := range r.sessions[scope] {
			if sink, ok := r.sinks[id]; ok {
				targets = append(targets, target{id: id, sink: sink})
			}
		}
	}
	r.mu.RUnlock()

	for _, t := range targets {
		if err := t.sink.Consume(ctx, m); err != nil {
			r.log.Warn(fmt.Sprintf("Dropping subscriber %s after failed delivery", t.id),
				"session_id", m.SessionID, "error", err)
			r.Unsubscribe(t.id)
		}
	}
}
