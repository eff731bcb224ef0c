package localcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kudos/internal/model"
)

func openCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "kudos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSlotRoundtrip(t *testing.T) {
	c := openCache(t)

	v, err := c.Get("absent")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, c.Put("slot", []byte("value")))
	v, err = c.Get("slot")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), v)

	require.NoError(t, c.Delete("slot"))
	v, err = c.Get("slot")
	require.NoError(t, err)
	assert.Nil(t, v)

	// Deleting an absent slot is fine.
	require.NoError(t, c.Delete("slot"))
}

func TestSnapshotRoundtrip(t *testing.T) {
	c := openCache(t)

	snap := model.Snapshot{
		Tasks:      []model.Task{{ID: 1, Description: "Made dinner", MemberID: 2}},
		Members:    model.DefaultMembers(),
		QuickTasks: model.DefaultQuickTasks(),
	}
	require.NoError(t, c.SaveSnapshot(snap))

	got, ok, err := c.LoadSnapshot()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap.Tasks, got.Tasks)
	assert.Equal(t, snap.Members, got.Members)
	assert.Equal(t, snap.QuickTasks, got.QuickTasks)
}

func TestLoadSnapshot_EmptyCache(t *testing.T) {
	c := openCache(t)
	_, ok, err := c.LoadSnapshot()
	require.NoError(t, err)
	assert.False(t, ok, "nothing persisted yet")
}

func TestLoadSnapshot_Corrupt(t *testing.T) {
	c := openCache(t)
	require.NoError(t, c.Put(SlotTasks, []byte("{broken")))
	_, _, err := c.LoadSnapshot()
	assert.Error(t, err)
}

func TestGroupIDRoundtrip(t *testing.T) {
	c := openCache(t)

	id, err := c.LoadGroupID()
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, c.SaveGroupID("abc-123"))
	id, err = c.LoadGroupID()
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)

	require.NoError(t, c.ClearGroupID())
	id, err = c.LoadGroupID()
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kudos.db")
	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.SaveGroupID("persists"))
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()
	id, err := c.LoadGroupID()
	require.NoError(t, err)
	assert.Equal(t, "persists", id)
}
