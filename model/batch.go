package model

// batchState tracks one Model's outermost batch: a re-entrant token, the
// set of paths touched (in first-touch order, de-duplicated), and each
// path's pre-batch "old" value for the eventual deferred change fire.
type batchState struct {
	token      int
	depth      int
	order      []string
	dirty      map[string]*dirtyEntry
	fieldNames map[string]bool // top-level field names touched, for batch_atomicity
}

type dirtyEntry struct {
	path []string
	old  any
	new  any
}

// StartBatch enters (or re-enters) a batch on the Model and returns a token.
// Only the token's owner may end it via EndBatch; nested StartBatch calls
// are no-ops on the notification machinery but still track depth so the
// outermost EndBatch is the one that flushes.
func (m *Model) StartBatch() int {
	if m.batch == nil {
		m.batch = &batchState{
			token:      nextBatchToken(),
			dirty:      make(map[string]*dirtyEntry),
			fieldNames: make(map[string]bool),
		}
		m.state = StateBatch
	}
	m.batch.depth++
	return m.batch.token
}

func (m *Model) inBatch() bool {
	return m.batch != nil
}

// markDirty records a deferred change for path, keeping the oldest "old"
// value seen and the newest "new" value, and first-touch ordering. This
// gives batch_atomicity: a field touched N times in a batch fires its
// watchers at most once, with the last value.
func (m *Model) markDirty(fieldName string, path []string, oldVal, newVal any) {
	key := joinPath(path)
	b := m.batch
	entry, exists := b.dirty[key]
	if !exists {
		entry = &dirtyEntry{path: path, old: oldVal}
		b.dirty[key] = entry
		b.order = append(b.order, key)
	}
	entry.new = newVal
	b.fieldNames[fieldName] = true
}

// EndBatch ends the batch identified by token, if it is the current
// outermost batch's token and this call brings depth to zero. On the
// outermost end, deferred notifications fire in first-touch order,
// de-duplicated, satisfying the batch_atomicity invariant.
func (m *Model) EndBatch(token int) {
	if m.batch == nil || m.batch.token != token {
		return
	}
	m.batch.depth--
	if m.batch.depth > 0 {
		return
	}
	b := m.batch
	m.batch = nil
	if m.state == StateBatch {
		m.state = StateLive
	}
	for _, key := range b.order {
		entry := b.dirty[key]
		m.notifyChange(entry.path, entry.old, entry.new)
	}
}

var globalBatchTokenCounter int

// nextBatchToken hands out a process-wide monotonically increasing token.
// Tokens only need to be unique per-Model in practice, but a global counter
// keeps the implementation simple and avoids any per-Model state before a
// batch exists.
func nextBatchToken() int {
	globalBatchTokenCounter++
	return globalBatchTokenCounter
}
