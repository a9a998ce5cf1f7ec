// Package track implements component C6, the per-Model ChangeTracker: it
// watches one model.Model for direct field and list-index mutations,
// encodes them into a wire.Commit on request, and applies inbound commits
// from peers with version/priority-based conflict resolution.
//
// Tracker is mutex-free and single-pass: like model.Model, it documents
// itself as not safe for concurrent use. It never buffers encoded values,
// only dirty field names, and re-reads the live Model at Commit time.
package track
