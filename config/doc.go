// Package config loads a replicate.Coordinator's tuning knobs (priority,
// historyLength, autoCommitMillis, syncID) from a JSONC file.
//
// Load strips comments with tidwall/jsonc before handing the bytes to
// encoding/json, rather than hand-rolling a comment-aware parser.
package config
