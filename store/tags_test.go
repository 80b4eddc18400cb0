package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/keyscout/types"
)

func TestTagMultiplicity(t *testing.T) {
	s := NewTagStore()
	team, err := s.CreateTag(types.Tag{Name: "team-ml"})
	require.NoError(t, err)
	stale, err := s.CreateTag(types.Tag{Name: "stale"})
	require.NoError(t, err)

	keyA := types.KeyTarget("A")
	keyB := types.KeyTarget("B")

	// one tag on many targets
	_, err = s.AssignTag(team.ID, keyA, "", nil)
	require.NoError(t, err)
	_, err = s.AssignTag(team.ID, keyB, "", nil)
	require.NoError(t, err)

	// many tags on one target
	_, err = s.AssignTag(stale.ID, keyA, "", nil)
	require.NoError(t, err)

	assert.Len(t, s.Assignments(team.ID), 2)

	tagsOnA := s.TagsFor(keyA)
	require.Len(t, tagsOnA, 2)
	assert.Equal(t, "stale", tagsOnA[0].Name, "sorted by name")
	assert.Equal(t, "team-ml", tagsOnA[1].Name)
}

func TestAssignTag_Idempotent(t *testing.T) {
	s := NewTagStore()
	tag, err := s.CreateTag(types.Tag{Name: "reviewed"})
	require.NoError(t, err)

	target := types.ProviderTarget("openai")
	first, err := s.AssignTag(tag.ID, target, "alex", nil)
	require.NoError(t, err)
	second, err := s.AssignTag(tag.ID, target, "alex", nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, s.Assignments(tag.ID), 1)
}

func TestUnassignTag(t *testing.T) {
	s := NewTagStore()
	tag, err := s.CreateTag(types.Tag{Name: "temp"})
	require.NoError(t, err)

	target := types.KeyTarget("A")
	_, err = s.AssignTag(tag.ID, target, "", nil)
	require.NoError(t, err)

	require.NoError(t, s.UnassignTag(tag.ID, target))
	assert.Empty(t, s.Assignments(tag.ID))

	// unassign is idempotent: a missing binding is a no-op
	require.NoError(t, s.UnassignTag(tag.ID, target))
	require.NoError(t, s.UnassignTag(tag.ID, types.ProviderTarget("never-assigned")))
	assert.Empty(t, s.Assignments(tag.ID))
}

func TestDeleteTag_ForceCascades(t *testing.T) {
	s := NewTagStore()
	tag, err := s.CreateTag(types.Tag{Name: "doomed"})
	require.NoError(t, err)

	_, err = s.AssignTag(tag.ID, types.KeyTarget("A"), "", nil)
	require.NoError(t, err)
	_, err = s.AssignTag(tag.ID, types.KeyTarget("B"), "", nil)
	require.NoError(t, err)

	err = s.DeleteTag(tag.ID, false)
	var still *StillAssignedError
	require.True(t, errors.As(err, &still))
	assert.Equal(t, 2, still.Assignments)

	require.NoError(t, s.DeleteTag(tag.ID, true))
	assert.Empty(t, s.Assignments(tag.ID))
	assert.Empty(t, s.TagsFor(types.KeyTarget("A")))
}

func TestCreateTag_Validation(t *testing.T) {
	s := NewTagStore()

	_, err := s.CreateTag(types.Tag{Name: ""})
	assert.Error(t, err)

	_, err = s.CreateTag(types.Tag{Name: "ok", Color: "not-a-color"})
	assert.Error(t, err, "color must be a hex color")

	created, err := s.CreateTag(types.Tag{Name: "ok", Color: "#33cc99"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID, "ID generated when absent")
	assert.False(t, created.CreatedAt.IsZero())
}

func TestUpdateTag_PreservesCreatedAt(t *testing.T) {
	s := NewTagStore()
	created, err := s.CreateTag(types.Tag{Name: "before"})
	require.NoError(t, err)

	updated, err := s.UpdateTag(types.Tag{ID: created.ID, Name: "after"})
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt), "update must advance updated_at")

	got, err := s.GetTag(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)
}

func TestAssignTag_CarriesMetadata(t *testing.T) {
	s := NewTagStore()
	tag, err := s.CreateTag(types.Tag{Name: "annotated", Metadata: map[string]string{"origin": "ci"}})
	require.NoError(t, err)
	assert.Equal(t, "ci", tag.Metadata["origin"])
	assert.Equal(t, tag.CreatedAt, tag.UpdatedAt)

	a, err := s.AssignTag(tag.ID, types.KeyTarget("A"), "alex", map[string]string{"reason": "rotation"})
	require.NoError(t, err)
	assert.Equal(t, "rotation", a.Metadata["reason"])
}
