package replicate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticemodel/lattice/factory"
	"github.com/latticemodel/lattice/model"
	"github.com/latticemodel/lattice/registry"
	"github.com/latticemodel/lattice/replicate"
	"github.com/latticemodel/lattice/wire"
)

func fooClass() *model.ClassDef {
	return model.NewClass("Foo",
		&model.FieldDef{Name: "name", Kind: model.KindString},
		&model.FieldDef{Name: "child", Kind: model.KindModel, Reference: true},
	)
}

func TestCoordinator_StartStopDestroy(t *testing.T) {
	reg := registry.New[*model.Model]()
	c := replicate.New(reg)
	assert.Equal(t, replicate.StateIdle, c.State())

	ctx := context.Background()
	c.Start(ctx)
	assert.Equal(t, replicate.StateStarted, c.State())

	c.Stop()
	assert.Equal(t, replicate.StateStopped, c.State())

	c.Destroy()
	assert.Equal(t, replicate.StateDestroyed, c.State())
}

func TestCoordinator_CommitAggregatesAcrossTrackers(t *testing.T) {
	reg := registry.New[*model.Model]()
	f := factory.New(reg)
	ctx := context.Background()

	c := replicate.New(reg, replicate.WithSyncID("node-a"))
	c.Start(ctx)
	defer c.Destroy()

	m1, err := f.CreateRoot(ctx, fooClass(), map[string]any{"gid": "1", "name": "a"})
	require.NoError(t, err)
	m2, err := f.CreateRoot(ctx, fooClass(), map[string]any{"gid": "2", "name": "b"})
	require.NoError(t, err)

	_, _ = m1.Set(ctx, "name", "a2", true, false)
	_, _ = m2.Set(ctx, "name", "b2", true, false)

	set := c.Commit(ctx)
	require.Len(t, set, 2)
	assert.Equal(t, "a2", set["1"].Changes["name"])
	assert.Equal(t, "b2", set["2"].Changes["name"])
}

func TestCoordinator_CommitQuietWhenNothingChanged(t *testing.T) {
	reg := registry.New[*model.Model]()
	f := factory.New(reg)
	ctx := context.Background()

	c := replicate.New(reg)
	c.Start(ctx)
	defer c.Destroy()

	_, err := f.CreateRoot(ctx, fooClass(), map[string]any{"gid": "1", "name": "a"})
	require.NoError(t, err)

	set := c.Commit(ctx)
	assert.Empty(t, set)
}

func TestCoordinator_MergePriorityTiebreak(t *testing.T) {
	reg := registry.New[*model.Model]()
	f := factory.New(reg)
	ctx := context.Background()

	c := replicate.New(reg, replicate.WithPriority(1))
	c.Start(ctx)
	defer c.Destroy()

	m, err := f.CreateRoot(ctx, fooClass(), map[string]any{"gid": "1", "name": "local"})
	require.NoError(t, err)

	// An uncommitted local change to "name" conflicts with the inbound
	// update below; the coordinator's higher priority must win the tie.
	_, _ = m.Set(ctx, "name", "local-change", true, false)

	applied := c.Merge(ctx, wire.CommitSet{
		"1": wire.Commit{SyncID: "peer", Version: 1, BaseVersion: 0, Priority: 0, Changes: map[string]any{"name": "remote"}},
	})
	require.Len(t, applied, 1)

	v, _ := m.Get("name")
	assert.Equal(t, "local-change", v)
}

// TestCoordinator_MergeDrainsUntrackedUpdates exercises the drain-and-retry
// rule: Merge partitions a batch into updates whose Tracker
// already exists and updates whose target hasn't been constructed yet,
// retrying the latter on every pass until a full pass makes no progress. An
// update whose gid is never backed by a Tracker is silently dropped rather
// than erroring the whole batch.
func TestCoordinator_MergeDrainsUntrackedUpdates(t *testing.T) {
	reg := registry.New[*model.Model]()
	f := factory.New(reg)
	ctx := context.Background()

	c := replicate.New(reg)
	c.Start(ctx)
	defer c.Destroy()

	_, err := f.CreateRoot(ctx, fooClass(), map[string]any{"gid": "root", "name": "r"})
	require.NoError(t, err)

	applied := c.Merge(ctx, wire.CommitSet{
		"unknown": wire.Commit{SyncID: "peer", Version: 1, BaseVersion: 0, Changes: map[string]any{"name": "c"}},
		"root":    wire.Commit{SyncID: "peer", Version: 1, BaseVersion: 0, Changes: map[string]any{"name": "r2"}},
	})

	_, rootResolved := applied["root"]
	assert.True(t, rootResolved)
	_, unknownResolved := applied["unknown"]
	assert.False(t, unknownResolved)
}

func TestCoordinator_MergeStaleUpdatePublishesEvent(t *testing.T) {
	reg := registry.New[*model.Model]()
	f := factory.New(reg)
	ctx := context.Background()

	c := replicate.New(reg, replicate.WithHistoryLength(1))
	c.Start(ctx)
	defer c.Destroy()

	_, err := f.CreateRoot(ctx, fooClass(), map[string]any{"gid": "1", "name": "a"})
	require.NoError(t, err)

	var staleEvents int
	c.Events().Subscribe(func(ev replicate.Event) {
		if ev.Kind == replicate.EventStaleUpdate {
			staleEvents++
		}
	})

	for i := 0; i < 3; i++ {
		c.Merge(ctx, wire.CommitSet{
			"1": wire.Commit{SyncID: "peer", Version: i + 1, BaseVersion: i, Changes: map[string]any{"name": "v"}},
		})
	}

	c.Merge(ctx, wire.CommitSet{
		"1": wire.Commit{SyncID: "peer", Version: 99, BaseVersion: 0, Changes: map[string]any{"name": "stale"}},
	})

	assert.Equal(t, 1, staleEvents)
}

func TestCoordinator_RemovedTrackerStopsParticipating(t *testing.T) {
	reg := registry.New[*model.Model]()
	f := factory.New(reg)
	ctx := context.Background()

	c := replicate.New(reg)
	c.Start(ctx)
	defer c.Destroy()

	m, err := f.CreateRoot(ctx, fooClass(), map[string]any{"gid": "1", "name": "a"})
	require.NoError(t, err)
	_, _ = m.Set(ctx, "name", "a2", true, false)

	reg.Remove(ctx, m.GID())

	set := c.Commit(ctx)
	assert.Empty(t, set)
}
