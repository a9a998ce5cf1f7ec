package track

import (
	"context"
	"log/slog"
	"strings"

	"github.com/latticemodel/lattice/gid"
	"github.com/latticemodel/lattice/internal/trace"
	"github.com/latticemodel/lattice/model"
	"github.com/latticemodel/lattice/modelerr"
	"github.com/latticemodel/lattice/wire"
)

// defaultHistoryLength is the bounded commit history size.
const defaultHistoryLength = 20

// Option configures a Tracker at construction time.
type Option func(*Tracker)

// WithPriority sets the tie-break priority used by Merge.
func WithPriority(priority int) Option {
	return func(t *Tracker) { t.priority = priority }
}

// WithHistoryLength bounds the number of retained commits.
func WithHistoryLength(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.historyLength = n
		}
	}
}

// WithLogger attaches a logger used for operation-boundary tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// Tracker is the per-Model change collector and applier (component C6). It
// is not safe for concurrent use, matching model.Model's single-threaded
// concurrency model: a Tracker and the Model it watches are always driven
// from the same goroutine.
type Tracker struct {
	m      *model.Model
	syncID string

	priority      int
	historyLength int
	version       int
	history       []wire.Commit

	dirty   map[string]bool // names of fields changed since the last Commit
	known   map[gid.ID]bool // gids already sent as a full export by this tracker

	watchers []*model.Watcher
	started  bool
	logger   *slog.Logger
}

// New creates a Tracker bound to m, identified on the wire as syncID.
func New(m *model.Model, syncID string, opts ...Option) *Tracker {
	if m == nil {
		panic("track.New: nil model")
	}
	t := &Tracker{
		m:             m,
		syncID:        syncID,
		historyLength: defaultHistoryLength,
		dirty:         make(map[string]bool),
		known:         make(map[gid.ID]bool),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Model returns the Model this Tracker watches.
func (t *Tracker) Model() *model.Model { return t.m }

// SyncID returns the tracker's wire identity.
func (t *Tracker) SyncID() string { return t.syncID }

// Version returns the tracker's current monotone version.
func (t *Tracker) Version() int { return t.version }

// Start installs a top-level `*` watcher for direct field changes, plus a
// `fieldName.*` watcher for every List
// field (a top-level `*` pattern never fires for a two-segment list-index
// path; see model.watcherMatches).
func (t *Tracker) Start() {
	if t.started {
		return
	}
	t.started = true

	w := t.m.Watch("*", func(newValue, oldValue any, eventPath string) {
		t.dirty[firstSegment(eventPath)] = true
	})
	t.watchers = append(t.watchers, w)

	for _, name := range t.m.FieldNames() {
		fd := t.m.FieldAt(name).Def()
		if fd.Kind != model.KindList {
			continue
		}
		listWatcher := t.m.Watch(name+".*", func(newValue, oldValue any, eventPath string) {
			t.dirty[firstSegment(eventPath)] = true
		})
		t.watchers = append(t.watchers, listWatcher)
	}
}

// Stop removes the Tracker's watchers without discarding history.
func (t *Tracker) Stop() {
	if !t.started {
		return
	}
	for _, w := range t.watchers {
		t.m.RemoveWatcher(w)
	}
	t.watchers = nil
	t.started = false
}

func firstSegment(eventPath string) string {
	if i := strings.IndexByte(eventPath, '.'); i >= 0 {
		return eventPath[:i]
	}
	return eventPath
}

// HasChanges reports whether any field has changed since the last Commit
// or ClearChanges.
func (t *Tracker) HasChanges() bool { return len(t.dirty) > 0 }

// ClearChanges discards the pending dirty set without producing a Commit.
func (t *Tracker) ClearChanges() { t.dirty = make(map[string]bool) }

// History returns a defensive copy of the retained commit history.
func (t *Tracker) History() []wire.Commit {
	out := make([]wire.Commit, len(t.history))
	copy(out, t.history)
	return out
}

// Commit builds and returns a wire.Commit from the pending dirty set. The
// second return value is false (and the Commit zero) when the encoded
// change set is empty — a quiet commit never bumps version or grows
// history.
func (t *Tracker) Commit(ctx context.Context) (wire.Commit, bool) {
	op := trace.Begin(ctx, t.logger, "track.tracker.commit", slog.String("syncID", t.syncID))
	defer op.End(nil)

	encoded := make(map[string]any, len(t.dirty))
	for name := range t.dirty {
		f := t.m.FieldAt(name)
		if f == nil {
			continue
		}
		v, err := t.m.Get(name)
		if err != nil {
			continue
		}
		encoded[name] = t.encodeField(f.Def(), v)
	}
	if len(encoded) == 0 {
		return wire.Commit{}, false
	}

	update := wire.Commit{
		SyncID:      t.syncID,
		Version:     t.version + 1,
		BaseVersion: t.version,
		Priority:    t.priority,
		Changes:     encoded,
	}
	t.appendHistory(update)
	t.version = update.Version
	t.dirty = make(map[string]bool)
	return update, true
}

// Merge applies an inbound Commit using version/priority conflict
// resolution: history and in-flight local changes that have the upper hand
// (by baseVersion and tie-broken priority) win over the corresponding keys
// in update.
func (t *Tracker) Merge(ctx context.Context, update wire.Commit) (wire.Commit, error) {
	op := trace.Begin(ctx, t.logger, "track.tracker.merge", slog.String("syncID", t.syncID))
	var retErr error
	defer func() { op.End(retErr) }()

	minBase := t.historyMinBaseVersion()
	if update.BaseVersion < minBase {
		retErr = modelerr.New(modelerr.StaleUpdate,
			"tracker %q: merge baseVersion %d is below the retained history horizon %d",
			t.syncID, update.BaseVersion, minBase)
		return wire.Commit{}, retErr
	}

	advantage := 0
	if t.priority > update.Priority {
		advantage = 1
	}

	filtered := make(map[string]any, len(update.Changes))
	for k, v := range update.Changes {
		filtered[k] = v
	}
	for _, h := range t.history {
		if h.BaseVersion+advantage > update.BaseVersion {
			for k := range h.Changes {
				delete(filtered, k)
			}
		}
	}
	if t.version+advantage > update.BaseVersion {
		for k := range t.dirty {
			delete(filtered, k)
		}
	}

	if len(filtered) > 0 {
		if err := t.m.SetData(ctx, filtered, true); err != nil {
			retErr = err
			return wire.Commit{}, retErr
		}
	}

	if update.Version > t.version {
		t.version = update.Version
	}
	applied := wire.Commit{
		SyncID:      update.SyncID,
		Version:     update.Version,
		BaseVersion: update.BaseVersion,
		Priority:    update.Priority,
		Changes:     filtered,
	}
	t.appendHistory(applied)
	return applied, nil
}

func (t *Tracker) historyMinBaseVersion() int {
	if len(t.history) == 0 {
		return 0
	}
	return t.history[0].BaseVersion
}

func (t *Tracker) appendHistory(c wire.Commit) {
	t.history = append(t.history, c)
	if len(t.history) > t.historyLength {
		t.history = t.history[len(t.history)-t.historyLength:]
	}
}

// encodeField applies the wire encoding grammar to one field's current
// value, given its declaration (needed to distinguish an owned Model from
// a reference, and a list's element kind).
func (t *Tracker) encodeField(def *model.FieldDef, value any) any {
	switch def.Kind {
	case model.KindModel:
		if def.Reference {
			return t.encodeReference(value)
		}
		return t.encodeOwnedModel(value)
	case model.KindList:
		fl, ok := value.(*model.FieldList)
		if !ok || fl == nil {
			return []any{}
		}
		items := fl.Items()
		out := make([]any, len(items))
		for i, item := range items {
			if def.ElementKind == model.KindModel {
				if def.Reference {
					out[i] = t.encodeReference(item)
				} else {
					out[i] = t.encodeOwnedModel(item)
				}
			} else {
				out[i] = item
			}
		}
		return out
	default:
		return value
	}
}

func (t *Tracker) encodeReference(v any) any {
	m, ok := v.(*model.Model)
	if !ok || m == nil {
		return nil
	}
	return map[string]any{"gid": m.GID().String()}
}

// encodeOwnedModel returns a full recursive export the first time this
// tracker encodes gid m, and a bare {gid} marker on every subsequent
// encoding.
func (t *Tracker) encodeOwnedModel(v any) any {
	m, ok := v.(*model.Model)
	if !ok || m == nil {
		return nil
	}
	if t.known[m.GID()] {
		return map[string]any{"gid": m.GID().String()}
	}
	t.known[m.GID()] = true

	out := map[string]any{"gid": m.GID().String()}
	for _, name := range m.FieldNames() {
		f := m.FieldAt(name)
		v2, err := m.Get(name)
		if err != nil {
			continue
		}
		out[name] = t.encodeField(f.Def(), v2)
	}
	return out
}
