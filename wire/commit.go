package wire

import "encoding/json"

// Commit is the bit-exact wire shape produced by track.Tracker.Commit and
// consumed by track.Tracker.Merge.
type Commit struct {
	SyncID      string         `json:"syncID"`
	Version     int            `json:"version"`
	BaseVersion int            `json:"baseVersion"`
	Priority    int            `json:"priority"`
	Changes     map[string]any `json:"changes"`
}

// WriteOption configures Commit and Envelope serialization.
type WriteOption func(*writeConfig)

type writeConfig struct {
	indent string
}

// WithIndent pretty-prints with the given indent string ("" for compact
// output, the default).
func WithIndent(indent string) WriteOption {
	return func(c *writeConfig) { c.indent = indent }
}

// EncodeCommit serializes a single Commit.
func EncodeCommit(c Commit, opts ...WriteOption) ([]byte, error) {
	cfg := &writeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.indent != "" {
		return json.MarshalIndent(c, "", cfg.indent)
	}
	return json.Marshal(c)
}

// DecodeCommit parses a single Commit.
func DecodeCommit(data []byte) (Commit, error) {
	var c Commit
	err := json.Unmarshal(data, &c)
	return c, err
}

// CommitSet is the `gid → Commit` mapping a push or full-state event
// carries.
type CommitSet map[string]Commit

// EncodeCommitSet serializes a gid-keyed batch of commits, as produced by
// replicate.Coordinator.Commit/Merge.
func EncodeCommitSet(set CommitSet, opts ...WriteOption) ([]byte, error) {
	cfg := &writeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.indent != "" {
		return json.MarshalIndent(set, "", cfg.indent)
	}
	return json.Marshal(set)
}

// DecodeCommitSet parses a gid-keyed batch of commits.
func DecodeCommitSet(data []byte) (CommitSet, error) {
	var set CommitSet
	err := json.Unmarshal(data, &set)
	return set, err
}
