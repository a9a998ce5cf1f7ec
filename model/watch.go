package model

import (
	"time"

	"github.com/latticemodel/lattice/immutable"
	"github.com/latticemodel/lattice/internal/throttle"
)

// Handler receives (newValue, oldValue, eventPath) for a non-validator
// watcher.
type Handler func(newValue, oldValue any, eventPath string)

// Validator receives the candidate value and returns whether to allow the
// change: truthy allows, falsy vetoes and reverts.
type Validator func(candidate any) bool

// DebounceOptions coalesces a burst of matching changes per {leading,
// trailing} edges, built on internal/throttle.
type DebounceOptions struct {
	Leading  bool
	Trailing bool
	Delay    time.Duration
}

// Watcher is a (pathPattern, handler, flags) subscription bound to a
// specific Model (component C4).
type Watcher struct {
	owner      *Model
	pattern    []string
	patternStr string

	handler   Handler
	validator Validator

	immediate bool
	deep      bool
	trackOld  bool

	debounce  *DebounceOptions
	throttle  *throttle.Throttle
	lastPath  string
	lastOld   any
	lastNew   any

	oldSnapshot    immutable.Value
	hasOldSnapshot bool
}

// WatchOption configures a Watcher at registration time.
type WatchOption func(*Watcher)

// Immediate causes the handler to fire once, synchronously, at
// registration time with the path's current value.
func Immediate() WatchOption {
	return func(w *Watcher) { w.immediate = true }
}

// Deep causes the watcher to also fire when descendants of the watched
// path change (relevant only when the pattern is a strict prefix of the
// changed path).
func Deep() WatchOption {
	return func(w *Watcher) { w.deep = true }
}

// TrackOld delivers a deep clone of the previous value as the handler's
// oldValue argument. The clone is taken when the change is delivered, not
// before the mutation: nested maps and slices are copied, while pointer
// values such as a *Model or *FieldList are passed through as-is. Inside a
// batch the previous value is the one held before the batch's first change.
func TrackOld() WatchOption {
	return func(w *Watcher) { w.trackOld = true }
}

// WithDebounce coalesces a burst of matching changes.
func WithDebounce(opts DebounceOptions) WatchOption {
	return func(w *Watcher) { w.debounce = &opts }
}

// Watch registers handler against pattern (a dotted path with optional "*"
// wildcards) and returns the Watcher, which Immediate fires synchronously
// if requested.
func (m *Model) Watch(pattern string, handler Handler, opts ...WatchOption) *Watcher {
	w := &Watcher{
		owner:      m,
		pattern:    splitPath(pattern),
		patternStr: pattern,
		handler:    handler,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.debounce != nil {
		target := w
		w.throttle = throttle.New(w.debounce.Delay, throttle.Edges{Leading: w.debounce.Leading, Trailing: w.debounce.Trailing}, func() {
			target.handler(target.lastNew, target.lastOld, target.lastPath)
		})
	}
	m.watchers = append(m.watchers, w)
	if w.immediate {
		if v, ok := m.PathPattern(pattern)[pattern]; ok {
			w.handler(v, nil, pattern)
		} else if v2, ok2 := m.Path(pattern); ok2 {
			w.handler(v2, nil, pattern)
		}
	}
	return w
}

// WatchValidator registers a validator watcher against pattern: its handler
// runs before mutation and may veto the change by returning false.
func (m *Model) WatchValidator(pattern string, validator Validator, opts ...WatchOption) *Watcher {
	w := &Watcher{
		owner:      m,
		pattern:    splitPath(pattern),
		patternStr: pattern,
		validator:  validator,
	}
	for _, opt := range opts {
		opt(w)
	}
	m.watchers = append(m.watchers, w)
	return w
}

// RemoveWatcher detaches w from its owning Model.
func (m *Model) RemoveWatcher(w *Watcher) {
	if w == nil || w.owner != m {
		return
	}
	for i, existing := range m.watchers {
		if existing == w {
			m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
			return
		}
	}
}

// runValidators runs validator watchers matching path on m and, depth-first,
// on ancestor Models with the path re-prefixed by each owning field's name.
// Returns false the first time a validator vetoes.
func (m *Model) runValidators(path []string, candidate any) bool {
	for _, w := range m.watchers {
		if w.validator == nil {
			continue
		}
		if watcherMatches(w.pattern, path, w.deep) {
			if !w.validator(candidate) {
				return false
			}
		}
	}
	if m.parentField != nil && m.parentField.owner != nil {
		parentPath := append([]string{m.parentField.def.Name}, path...)
		return m.parentField.owner.runValidators(parentPath, candidate)
	}
	return true
}

// notifyChange fires matching non-validator watchers on m, then propagates
// upward synchronously and depth-first.
func (m *Model) notifyChange(path []string, oldVal, newVal any) {
	eventPath := joinPath(path)
	for _, w := range m.watchers {
		if w.handler == nil {
			continue
		}
		if len(w.pattern) > len(path) {
			// The watched pattern goes deeper than the point of change: if
			// an entire submodel was just reassigned at path, the newly
			// assigned parent reshapes its descendants, so we must resolve
			// the pattern's remaining segments against the fresh subtree
			// and fire once per concrete match.
			m.fireReplacementCascade(w, path, oldVal, newVal)
			continue
		}
		if !watcherMatches(w.pattern, path, w.deep) {
			continue
		}
		deliverOld := oldVal
		if w.trackOld {
			deliverOld = immutable.WrapClone(oldVal).Unwrap()
		}
		if w.throttle != nil {
			w.lastPath, w.lastOld, w.lastNew = eventPath, deliverOld, newVal
			w.throttle.Trigger()
			continue
		}
		w.handler(newVal, deliverOld, eventPath)
	}
	if m.parentField != nil && m.parentField.owner != nil {
		parentPath := append([]string{m.parentField.def.Name}, path...)
		m.parentField.owner.notifyChange(parentPath, oldVal, newVal)
	}
}

// fireReplacementCascade handles a watcher whose pattern reaches past the
// point of change: newVal must be the Model freshly assigned at path, and
// every concrete match of the pattern's remaining segments against that
// fresh subtree fires once, with eventPath = path + "." + the resolved
// suffix.
func (m *Model) fireReplacementCascade(w *Watcher, path []string, oldVal, newVal any) {
	if len(path) > len(w.pattern) || !matchPrefix(w.pattern[:len(path)], path) {
		return
	}
	newModel, ok := newVal.(*Model)
	if !ok || newModel == nil {
		return
	}
	suffix := w.pattern[len(path):]
	oldModel, _ := oldVal.(*Model)

	matches := newModel.PathPattern(joinPath(suffix))
	for relPath, val := range matches {
		var old any
		if oldModel != nil {
			old, _ = oldModel.Path(relPath)
		}
		eventPath := joinPath(path) + "." + relPath
		if w.trackOld {
			old = immutable.WrapClone(old).Unwrap()
		}
		if w.throttle != nil {
			w.lastPath, w.lastOld, w.lastNew = eventPath, old, val
			w.throttle.Trigger()
			continue
		}
		w.handler(val, old, eventPath)
	}
}
