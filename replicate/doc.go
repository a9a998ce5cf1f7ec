// Package replicate implements component C7, the SyncCoordinator: it keeps
// one track.Tracker per Model in a registry.Registry (wired to the
// Registry's added/removed events), batches commit/merge calls across all
// of them, and optionally drives an autoCommit timer.
//
// Coordinator is a mutex-protected struct configured via functional
// Options; its autoCommit timer reuses internal/throttle the same way
// model.Watcher's debounce does.
package replicate
