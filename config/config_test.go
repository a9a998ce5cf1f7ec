package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticemodel/lattice/config"
)

func TestParse_StripsCommentsAndDecodes(t *testing.T) {
	src := []byte(`{
		// this node's replication priority
		"priority": 2,
		"historyLength": 30,
		"autoCommitMillis": 250,
		"syncID": "node-a" /* trailing */
	}`)

	c, err := config.Parse(src)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Priority)
	assert.Equal(t, 30, c.HistoryLength)
	assert.Equal(t, 250, c.AutoCommitMillis)
	assert.Equal(t, "node-a", c.SyncID)
}

func TestParse_RejectsNegativeHistoryLength(t *testing.T) {
	_, err := config.Parse([]byte(`{"historyLength": -1}`))
	assert.Error(t, err)
}

func TestParse_RejectsNegativeAutoCommitMillis(t *testing.T) {
	_, err := config.Parse([]byte(`{"autoCommitMillis": -1}`))
	assert.Error(t, err)
}

func TestLoad_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coordinator.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"syncID": "a", "priority": 1}`), 0o644))

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "a", c.SyncID)
	assert.Equal(t, 1, c.Priority)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.jsonc"))
	assert.Error(t, err)
}

func TestCoordinator_Options(t *testing.T) {
	c := config.Coordinator{SyncID: "a", Priority: 3, HistoryLength: 10, AutoCommitMillis: 100}
	opts := c.Options()
	assert.Len(t, opts, 4)
}
