package replicate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/latticemodel/lattice/gid"
	"github.com/latticemodel/lattice/internal/eventbus"
	"github.com/latticemodel/lattice/internal/throttle"
	"github.com/latticemodel/lattice/internal/trace"
	"github.com/latticemodel/lattice/model"
	"github.com/latticemodel/lattice/registry"
	"github.com/latticemodel/lattice/track"
	"github.com/latticemodel/lattice/wire"
)

// State is the Coordinator's lifecycle position: idle → started ↔ stopped →
// destroyed.
type State uint8

const (
	StateIdle State = iota
	StateStarted
	StateStopped
	StateDestroyed
)

// EventKind discriminates the three events a Coordinator publishes.
type EventKind uint8

const (
	EventNewCommits EventKind = iota
	EventMergeApplied
	EventStaleUpdate
)

// Event is published on Coordinator.Events() for every commit round, every
// applied merge, and every StaleUpdate a tracker raised during a merge —
// logged and surfaced to callers rather than terminating the Coordinator.
type Event struct {
	Kind    EventKind
	Commits wire.CommitSet
	GID     gid.ID
	Err     error
}

// Option configures a Coordinator at construction time.
type Option func(*Coordinator)

// WithPriority sets the tie-break priority every managed Tracker is built
// with.
func WithPriority(priority int) Option {
	return func(c *Coordinator) { c.priority = priority }
}

// WithHistoryLength bounds the commit history every managed Tracker keeps.
func WithHistoryLength(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.historyLength = n
		}
	}
}

// WithSyncID sets the wire identity every managed Tracker commits under.
func WithSyncID(syncID string) Option {
	return func(c *Coordinator) { c.syncID = syncID }
}

// WithLogger attaches a logger used for operation-boundary tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithAutoCommit schedules a trailing-edge Commit whenever any managed
// Tracker's Model reports a top-level field change, coalesced over delay.
func WithAutoCommit(delay time.Duration) Option {
	return func(c *Coordinator) { c.autoCommitDelay = delay }
}

// Coordinator aggregates one track.Tracker per Model registered in reg and
// batches commit/merge across all of them (component C7).
//
// Coordinator is safe for concurrent use: its autoCommit timer fires on a
// separate goroutine from whatever goroutine is calling Commit/Merge
// directly, so its tracker map is protected by a mutex, unlike model.Model
// and track.Tracker.
type Coordinator struct {
	mu sync.RWMutex

	reg      *registry.Registry[*model.Model]
	trackers map[gid.ID]*track.Tracker

	priority      int
	historyLength int
	syncID        string
	logger        *slog.Logger

	state State

	addedSub   eventbus.Subscription
	removedSub eventbus.Subscription

	autoCommitDelay time.Duration
	autoThrottle    *throttle.Throttle

	events *eventbus.Bus[Event]
}

// New creates a Coordinator bound to reg. Panics if reg is nil.
func New(reg *registry.Registry[*model.Model], opts ...Option) *Coordinator {
	if reg == nil {
		panic("replicate.New: nil registry")
	}
	c := &Coordinator{
		reg:           reg,
		trackers:      make(map[gid.ID]*track.Tracker),
		historyLength: 20,
		events:        eventbus.New[Event](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events returns the bus Coordinator publishes newCommits/mergeApplied/
// staleUpdate events to.
func (c *Coordinator) Events() *eventbus.Bus[Event] { return c.events }

// State returns the Coordinator's current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Start activates a Tracker for every Model currently in the Registry,
// subscribes to future added/removed events, and arms the autoCommit timer
// if configured.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	if c.state == StateStarted || c.state == StateDestroyed {
		c.mu.Unlock()
		return
	}
	c.state = StateStarted
	existing := c.reg.All()
	c.addedSub = c.reg.OnAdded(func(ev registry.Event[*model.Model]) { c.addTracker(ev.Entry) })
	c.removedSub = c.reg.OnRemoved(func(ev registry.Event[*model.Model]) { c.removeTracker(ev.Entry.GID()) })
	if c.autoCommitDelay > 0 {
		c.autoThrottle = throttle.New(c.autoCommitDelay, throttle.Edges{Trailing: true}, func() {
			_ = c.Commit(ctx)
		})
	}
	c.mu.Unlock()

	for _, m := range existing {
		c.addTracker(m)
	}
}

// Stop deactivates every managed Tracker and unsubscribes from Registry
// events, without discarding any Tracker's history.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateStarted {
		return
	}
	c.state = StateStopped
	c.reg.OffAdded(c.addedSub)
	c.reg.OffRemoved(c.removedSub)
	if c.autoThrottle != nil {
		c.autoThrottle.Stop()
		c.autoThrottle = nil
	}
	for _, tr := range c.trackers {
		tr.Stop()
	}
}

// Destroy stops the Coordinator (if running) and discards every managed
// Tracker.
func (c *Coordinator) Destroy() {
	c.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateDestroyed
	c.trackers = make(map[gid.ID]*track.Tracker)
}

func (c *Coordinator) addTracker(m *model.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.trackers[m.GID()]; exists {
		return
	}
	tr := track.New(m, c.syncID,
		track.WithPriority(c.priority),
		track.WithHistoryLength(c.historyLength),
		track.WithLogger(c.logger),
	)
	tr.Start()
	c.trackers[m.GID()] = tr
	if c.autoThrottle != nil {
		m.Watch("*", func(newValue, oldValue any, eventPath string) {
			c.autoThrottle.Trigger()
		})
	}
}

func (c *Coordinator) removeTracker(id gid.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tr, ok := c.trackers[id]
	if !ok {
		return
	}
	tr.Stop()
	delete(c.trackers, id)
}

// Commit walks every managed Tracker, collects the non-empty commits, and
// emits a newCommits event carrying the batch.
func (c *Coordinator) Commit(ctx context.Context) wire.CommitSet {
	op := trace.Begin(ctx, c.logger, "replicate.coordinator.commit")
	defer op.End(nil)

	c.mu.RLock()
	trackers := make(map[gid.ID]*track.Tracker, len(c.trackers))
	for id, tr := range c.trackers {
		trackers[id] = tr
	}
	c.mu.RUnlock()

	out := make(wire.CommitSet)
	for id, tr := range trackers {
		commit, ok := tr.Commit(ctx)
		if !ok {
			continue
		}
		out[id.String()] = commit
	}
	if len(out) > 0 {
		c.events.Publish(Event{Kind: EventNewCommits, Commits: out})
	}
	return out
}

// Merge applies a gid-keyed batch of inbound commits. Because a referenced
// or owned child Model may arrive in the same batch as the update that
// first mentions it (or the parent may arrive first), Merge drains a work
// queue: any update whose target Tracker does not exist yet is retried
// after the rest of the batch has been applied, and the loop stops once a
// full pass makes no further progress.
func (c *Coordinator) Merge(ctx context.Context, updates wire.CommitSet) wire.CommitSet {
	op := trace.Begin(ctx, c.logger, "replicate.coordinator.merge")
	defer op.End(nil)

	applied := make(wire.CommitSet)
	pending := make(wire.CommitSet, len(updates))
	for k, v := range updates {
		pending[k] = v
	}

	for len(pending) > 0 {
		remaining := make(wire.CommitSet)
		for idStr, update := range pending {
			id, err := gid.FromAny(idStr)
			if err != nil {
				continue
			}
			c.mu.RLock()
			tr, ok := c.trackers[id]
			c.mu.RUnlock()
			if !ok {
				remaining[idStr] = update
				continue
			}
			result, err := tr.Merge(ctx, update)
			if err != nil {
				c.events.Publish(Event{Kind: EventStaleUpdate, GID: id, Err: err})
				continue
			}
			applied[idStr] = result
		}
		if len(remaining) == len(pending) {
			break // a full pass made no progress; remaining targets never arrived
		}
		pending = remaining
	}

	if len(applied) > 0 {
		c.events.Publish(Event{Kind: EventMergeApplied, Commits: applied})
	}
	return applied
}
