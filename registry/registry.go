// Package registry implements the gid-indexed directory of live Models
// (component C1). It tracks every Model reachable in a replication domain
// and publishes added/removed lifecycle events consumed by SyncCoordinator.
//
// It is an append-mostly, mutex-protected index with a bool-return lookup
// API, and supports removal: Models are destroyed at runtime, so entries
// must be retractable, not just addable.
package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/latticemodel/lattice/gid"
	"github.com/latticemodel/lattice/internal/eventbus"
	"github.com/latticemodel/lattice/internal/trace"
)

// Entry is the minimal surface a Registry needs from whatever it indexes.
// model.Model implements this; defining it here (rather than importing
// package model) keeps registry free of a dependency on model, so model
// can depend on registry without an import cycle.
type Entry interface {
	GID() gid.ID
}

// Event describes an entry being added to or removed from a Registry.
type Event[E Entry] struct {
	Entry E
}

// Registry is a thread-safe, gid-indexed directory of live entries.
//
// It is safe for concurrent use by multiple goroutines: a Registry is one of
// the two structures in this module documented as genuinely shared (the
// other is replicate.Coordinator), since a SyncCoordinator's autoCommit
// timer can observe Registry membership from a different goroutine than the
// one performing mutations.
type Registry[E Entry] struct {
	mu      sync.RWMutex
	entries map[gid.ID]E
	logger  *slog.Logger

	added   *eventbus.Bus[Event[E]]
	removed *eventbus.Bus[Event[E]]
}

// Option configures a Registry at construction time.
type Option[E Entry] func(*Registry[E])

// WithLogger enables debug logging of Register/Remove decisions.
func WithLogger[E Entry](logger *slog.Logger) Option[E] {
	return func(r *Registry[E]) {
		r.logger = logger
	}
}

// New creates an empty Registry.
func New[E Entry](opts ...Option[E]) *Registry[E] {
	r := &Registry[E]{
		entries: make(map[gid.ID]E),
		added:   eventbus.New[Event[E]](),
		removed: eventbus.New[Event[E]](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds entry under its GID. Returns a *modelerr.Error of kind
// InvariantViolation if entry's GID is empty or already registered.
func (r *Registry[E]) Register(ctx context.Context, entry E) error {
	if ctx == nil {
		panic("registry: nil context")
	}
	op := trace.Begin(ctx, r.logger, "registry.registry.register")
	defer op.End(nil)

	id := entry.GID()
	if id.IsEmpty() {
		err := registryErrorEmptyGID()
		op.End(err)
		return err
	}

	r.mu.Lock()
	if _, exists := r.entries[id]; exists {
		r.mu.Unlock()
		err := registryErrorDuplicateGID(id)
		op.End(err)
		return err
	}
	r.entries[id] = entry
	r.mu.Unlock()

	r.added.Publish(Event[E]{Entry: entry})
	return nil
}

// Remove deletes the entry with the given gid, if present. It is a no-op if
// no such entry exists.
func (r *Registry[E]) Remove(ctx context.Context, id gid.ID) {
	if ctx == nil {
		panic("registry: nil context")
	}
	op := trace.Begin(ctx, r.logger, "registry.registry.remove", slog.String("gid", id.String()))
	defer op.End(nil)

	r.mu.Lock()
	entry, exists := r.entries[id]
	if exists {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if exists {
		r.removed.Publish(Event[E]{Entry: entry})
	}
}

// ByGID returns the entry registered under id, and true if found.
func (r *Registry[E]) ByGID(id gid.ID) (E, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// Contains reports whether id is currently registered.
func (r *Registry[E]) Contains(id gid.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

// Len returns the number of registered entries.
func (r *Registry[E]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// All returns every registered entry. The returned slice is a copy;
// mutating it does not affect the Registry.
func (r *Registry[E]) All() []E {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]E, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

// Snapshot returns a point-in-time, independent copy of the gid index,
// suitable for diagnostics or tests that need a stable view while the live
// Registry keeps mutating.
func (r *Registry[E]) Snapshot() map[gid.ID]E {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[gid.ID]E, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}

// OnAdded subscribes to entries being registered. Returns a Subscription
// usable with OffAdded.
func (r *Registry[E]) OnAdded(handler func(Event[E])) eventbus.Subscription {
	return r.added.Subscribe(handler)
}

// OffAdded removes a subscription registered via OnAdded.
func (r *Registry[E]) OffAdded(sub eventbus.Subscription) {
	r.added.Unsubscribe(sub)
}

// OnRemoved subscribes to entries being removed. Returns a Subscription
// usable with OffRemoved.
func (r *Registry[E]) OnRemoved(handler func(Event[E])) eventbus.Subscription {
	return r.removed.Subscribe(handler)
}

// OffRemoved removes a subscription registered via OnRemoved.
func (r *Registry[E]) OffRemoved(sub eventbus.Subscription) {
	r.removed.Unsubscribe(sub)
}
