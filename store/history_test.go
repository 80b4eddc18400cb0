package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/keyscout/types"
)

func TestHistory_RecordAndQuery(t *testing.T) {
	h, err := OpenHistory(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	rev1, err := h.Record("label", "prod", ActionAssign, types.KeyTarget("A"), "alex")
	require.NoError(t, err)
	rev2, err := h.Record("label", "prod", ActionUnassign, types.KeyTarget("A"), "alex")
	require.NoError(t, err)
	_, err = h.Record("tag", "team", ActionAssign, types.KeyTarget("B"), "sam")
	require.NoError(t, err)

	assert.Less(t, rev1, rev2, "revisions are monotonic")
	assert.Equal(t, int64(3), h.CurrentRevision())

	events, err := h.EventsFor("label", "prod")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionAssign, events[0].Action)
	assert.Equal(t, ActionUnassign, events[1].Action)

	state, found := h.State("label", "prod")
	require.True(t, found)
	assert.Equal(t, 2, state.EventCount)
	assert.Equal(t, ActionUnassign, state.LastAction)
}

func TestHistory_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	h, err := OpenHistory(dir)
	require.NoError(t, err)
	_, err = h.Record("label", "prod", ActionAssign, types.KeyTarget("A"), "")
	require.NoError(t, err)
	require.NoError(t, h.Close())

	h2, err := OpenHistory(dir)
	require.NoError(t, err)
	defer func() { _ = h2.Close() }()

	assert.Equal(t, int64(1), h2.CurrentRevision())

	state, found := h2.State("label", "prod")
	require.True(t, found, "index rebuilt from disk")
	assert.Equal(t, types.KeyTarget("A"), state.LastTarget)

	rev, err := h2.Record("label", "prod", ActionUnassign, types.KeyTarget("A"), "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev, "revision continues after reopen")
}

func TestHistory_Compact(t *testing.T) {
	h, err := OpenHistory(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	for i := 0; i < 10; i++ {
		_, err := h.Record("tag", "t", ActionAssign, types.KeyTarget("A"), "")
		require.NoError(t, err)
	}

	require.NoError(t, h.Compact(3))

	events, err := h.EventsFor("tag", "t")
	require.NoError(t, err)
	assert.Len(t, events, 3, "only the newest revisions survive compaction")
}
