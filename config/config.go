package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/latticemodel/lattice/modelerr"
	"github.com/latticemodel/lattice/replicate"
)

// Coordinator holds a replicate.Coordinator's tuning knobs as loaded from a
// JSONC config file.
type Coordinator struct {
	SyncID           string `json:"syncID"`
	Priority         int    `json:"priority"`
	HistoryLength    int    `json:"historyLength"`
	AutoCommitMillis int    `json:"autoCommitMillis"`
}

// Load reads and parses a JSONC coordinator config file at path.
func Load(path string) (Coordinator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Coordinator{}, fmt.Errorf("config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes JSONC-encoded coordinator config bytes.
func Parse(data []byte) (Coordinator, error) {
	var c Coordinator
	if err := json.Unmarshal(jsonc.ToJSON(data), &c); err != nil {
		return Coordinator{}, modelerr.New(modelerr.InvariantViolation, "config: invalid coordinator config: %v", err)
	}
	if c.HistoryLength < 0 {
		return Coordinator{}, modelerr.New(modelerr.InvariantViolation, "config: historyLength must not be negative")
	}
	if c.AutoCommitMillis < 0 {
		return Coordinator{}, modelerr.New(modelerr.InvariantViolation, "config: autoCommitMillis must not be negative")
	}
	return c, nil
}

// Options translates the loaded config into replicate.Option values ready
// to pass to replicate.New.
func (c Coordinator) Options() []replicate.Option {
	opts := []replicate.Option{
		replicate.WithSyncID(c.SyncID),
		replicate.WithPriority(c.Priority),
	}
	if c.HistoryLength > 0 {
		opts = append(opts, replicate.WithHistoryLength(c.HistoryLength))
	}
	if c.AutoCommitMillis > 0 {
		opts = append(opts, replicate.WithAutoCommit(time.Duration(c.AutoCommitMillis)*time.Millisecond))
	}
	return opts
}
