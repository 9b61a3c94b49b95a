package registry

import (
	"context"
	"sync"

	"github.com/SerxWco/OG88/internal/alerts"
	"github.com/SerxWco/OG88/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Store persists registry mutations. It is the narrow slice of the storage
// layer the registry needs; a nil Store disables persistence, which keeps
// the bot usable without a database.
type Store interface {
	SaveSubscription(ctx context.Context, kind string, chatID int64) error
	RemoveSubscription(ctx context.Context, kind string, chatID int64) error
	InsertAlert(ctx context.Context, event *alerts.Event) error
}

// Registry tracks which chats subscribe to which alert streams and keeps a
// bounded in-memory history of recent events per stream. All mutations are
// written through to the Store when one is configured; store failures are
// logged and do not block the in-memory update.
type Registry struct {
	mu          sync.RWMutex
	subs        map[alerts.Kind]map[int64]struct{}
	recent      map[alerts.Kind][]*alerts.Event
	recentLimit int
	store       Store
	log         *logrus.Logger
}

// New creates a Registry keeping at most recentLimit events per alert kind.
func New(store Store, recentLimit int, log *logrus.Logger) *Registry {
	if recentLimit <= 0 {
		recentLimit = 25
	}
	return &Registry{
		subs:        make(map[alerts.Kind]map[int64]struct{}),
		recent:      make(map[alerts.Kind][]*alerts.Event),
		recentLimit: recentLimit,
		store:       store,
		log:         log,
	}
}

// Subscribe adds a chat to an alert stream. It returns true when the chat
// was not already subscribed.
func (r *Registry) Subscribe(ctx context.Context, kind alerts.Kind, chatID int64) bool {
	r.mu.Lock()
	set, ok := r.subs[kind]
	if !ok {
		set = make(map[int64]struct{})
		r.subs[kind] = set
	}
	_, existed := set[chatID]
	set[chatID] = struct{}{}
	count := len(set)
	r.mu.Unlock()

	metrics.SetSubscribers(string(kind), count)
	if existed {
		return false
	}

	if r.store != nil {
		if err := r.store.SaveSubscription(ctx, string(kind), chatID); err != nil {
			r.log.WithError(err).WithFields(logrus.Fields{
				"kind":    kind,
				"chat_id": chatID,
			}).Warn("Failed to persist subscription")
		}
	}
	return true
}

// Unsubscribe removes a chat from an alert stream. It returns true when the
// chat was subscribed.
func (r *Registry) Unsubscribe(ctx context.Context, kind alerts.Kind, chatID int64) bool {
	r.mu.Lock()
	set, ok := r.subs[kind]
	if !ok {
		r.mu.Unlock()
		return false
	}
	_, existed := set[chatID]
	delete(set, chatID)
	count := len(set)
	r.mu.Unlock()

	metrics.SetSubscribers(string(kind), count)
	if !existed {
		return false
	}

	if r.store != nil {
		if err := r.store.RemoveSubscription(ctx, string(kind), chatID); err != nil {
			r.log.WithError(err).WithFields(logrus.Fields{
				"kind":    kind,
				"chat_id": chatID,
			}).Warn("Failed to remove persisted subscription")
		}
	}
	return true
}

// IsSubscribed reports whether a chat subscribes to an alert stream.
func (r *Registry) IsSubscribed(kind alerts.Kind, chatID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subs[kind][chatID]
	return ok
}

// Subscribers returns a snapshot of the chats subscribed to a stream. The
// returned slice is a copy; dispatchers iterate it while the registry keeps
// mutating underneath.
func (r *Registry) Subscribers(kind alerts.Kind) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int64, 0, len(r.subs[kind]))
	for id := range r.subs[kind] {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of chats subscribed to a stream.
func (r *Registry) Count(kind alerts.Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[kind])
}

// Restore loads persisted subscriptions into memory at startup, bypassing
// the write-through path.
func (r *Registry) Restore(kind alerts.Kind, chatIDs []int64) {
	r.mu.Lock()
	set, ok := r.subs[kind]
	if !ok {
		set = make(map[int64]struct{})
		r.subs[kind] = set
	}
	for _, id := range chatIDs {
		set[id] = struct{}{}
	}
	count := len(set)
	r.mu.Unlock()

	metrics.SetSubscribers(string(kind), count)
}

// RestoreEvents loads persisted alert history into memory at startup,
// oldest first, bypassing the write-through path. Rows carrying a transfer
// identifier already in the history collapse onto the existing entry.
func (r *Registry) RestoreEvents(kind alerts.Kind, events []*alerts.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(events))
	for _, ev := range r.recent[kind] {
		seen[ev.ID()] = struct{}{}
	}
	history := r.recent[kind]
	for _, ev := range events {
		if _, ok := seen[ev.ID()]; ok {
			continue
		}
		seen[ev.ID()] = struct{}{}
		history = append(history, ev)
	}
	if len(history) > r.recentLimit {
		history = history[len(history)-r.recentLimit:]
	}
	r.recent[kind] = history
}

// RecordEvent appends an alert to the per-stream history and persists it.
func (r *Registry) RecordEvent(ctx context.Context, event *alerts.Event) {
	r.mu.Lock()
	history := append(r.recent[event.Kind], event)
	if len(history) > r.recentLimit {
		history = history[len(history)-r.recentLimit:]
	}
	r.recent[event.Kind] = history
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.InsertAlert(ctx, event); err != nil {
			r.log.WithError(err).WithFields(logrus.Fields{
				"kind":    event.Kind,
				"tx_hash": event.TransactionHash,
			}).Warn("Failed to persist alert event")
		}
	}
}

// RecentEvents returns up to limit events for a stream, newest first.
func (r *Registry) RecentEvents(kind alerts.Kind, limit int) []*alerts.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.recent[kind]
	if limit <= 0 || limit > len(history) {
		limit = len(history)
	}

	out := make([]*alerts.Event, 0, limit)
	for i := len(history) - 1; i >= len(history)-limit; i-- {
		out = append(out, history[i])
	}
	return out
}
