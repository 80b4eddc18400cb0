package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/keyscout/types"
)

func TestLabelExclusivity(t *testing.T) {
	s := NewLabelStore()
	label, err := s.CreateLabel(types.Label{Name: "production"})
	require.NoError(t, err)

	targetA := types.KeyTarget("A")
	targetB := types.KeyTarget("B")

	_, err = s.AssignLabel(label.ID, targetA, "tester", nil)
	require.NoError(t, err)

	// second assignment to a different target must fail and name the
	// current holder
	_, err = s.AssignLabel(label.ID, targetB, "tester", nil)
	require.Error(t, err)

	var conflict *AlreadyAssignedError
	require.True(t, errors.As(err, &conflict), "error type = %T", err)
	assert.Equal(t, label.ID, conflict.LabelID)
	assert.Equal(t, targetA, conflict.ConflictingTarget)

	// exclusivity holds across target kinds too
	_, err = s.AssignLabel(label.ID, types.ProviderTarget("openai"), "tester", nil)
	require.Error(t, err)
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, targetA, conflict.ConflictingTarget)
}

func TestAssignLabel_Idempotent(t *testing.T) {
	s := NewLabelStore()
	label, err := s.CreateLabel(types.Label{Name: "primary"})
	require.NoError(t, err)

	target := types.InstanceTarget("dotenv:/home/u/.env")
	first, err := s.AssignLabel(label.ID, target, "tester", nil)
	require.NoError(t, err)

	second, err := s.AssignLabel(label.ID, target, "tester", nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same target reassignment returns the existing assignment")
}

func TestLabelReassignViaUnassign(t *testing.T) {
	s := NewLabelStore()
	label, err := s.CreateLabel(types.Label{Name: "active"})
	require.NoError(t, err)

	_, err = s.AssignLabel(label.ID, types.KeyTarget("A"), "", nil)
	require.NoError(t, err)

	require.NoError(t, s.UnassignLabel(label.ID, types.KeyTarget("A")))

	_, err = s.AssignLabel(label.ID, types.KeyTarget("B"), "", nil)
	require.NoError(t, err)

	a, ok := s.Assignment(label.ID)
	require.True(t, ok)
	assert.Equal(t, types.KeyTarget("B"), a.Target)
}

func TestUnassignLabel_TargetMustMatch(t *testing.T) {
	s := NewLabelStore()
	label, err := s.CreateLabel(types.Label{Name: "pinned"})
	require.NoError(t, err)

	_, err = s.AssignLabel(label.ID, types.KeyTarget("A"), "", nil)
	require.NoError(t, err)

	// naming the wrong target must not free the label
	err = s.UnassignLabel(label.ID, types.KeyTarget("B"))
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound), "error type = %T", err)

	a, ok := s.Assignment(label.ID)
	require.True(t, ok)
	assert.Equal(t, types.KeyTarget("A"), a.Target)

	// and a never-assigned label cannot be unassigned at all
	other, err := s.CreateLabel(types.Label{Name: "floating"})
	require.NoError(t, err)
	err = s.UnassignLabel(other.ID, types.KeyTarget("A"))
	require.True(t, errors.As(err, &notFound))
}

func TestAssignLabel_ModelTarget(t *testing.T) {
	s := NewLabelStore()
	label, err := s.CreateLabel(types.Label{Name: "default-model"})
	require.NoError(t, err)

	target := types.ModelTarget("openai-prod", "gpt-4")
	a, err := s.AssignLabel(label.ID, target, "tester", map[string]string{"pinned_by": "ops"})
	require.NoError(t, err)
	assert.Equal(t, target, a.Target)
	assert.Equal(t, "ops", a.Metadata["pinned_by"])

	// exclusivity holds between a model and its enclosing instance
	_, err = s.AssignLabel(label.ID, types.InstanceTarget("openai-prod"), "tester", nil)
	var conflict *AlreadyAssignedError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, target, conflict.ConflictingTarget)

	require.NoError(t, s.UnassignLabel(label.ID, target))
	_, ok := s.Assignment(label.ID)
	assert.False(t, ok)
}

func TestDeleteLabel_ForceCascades(t *testing.T) {
	s := NewLabelStore()
	label, err := s.CreateLabel(types.Label{Name: "temp"})
	require.NoError(t, err)

	_, err = s.AssignLabel(label.ID, types.KeyTarget("A"), "", nil)
	require.NoError(t, err)

	// without force the delete is refused
	err = s.DeleteLabel(label.ID, false)
	var still *StillAssignedError
	require.True(t, errors.As(err, &still))
	assert.Equal(t, 1, still.Assignments)

	// force removes label and assignment
	require.NoError(t, s.DeleteLabel(label.ID, true))
	_, err = s.GetLabel(label.ID)
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	_, ok := s.Assignment(label.ID)
	assert.False(t, ok)
}

func TestCreateLabel_Validation(t *testing.T) {
	s := NewLabelStore()

	_, err := s.CreateLabel(types.Label{Name: ""})
	assert.Error(t, err, "empty name must be rejected")

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'x'
	}
	_, err = s.CreateLabel(types.Label{Name: string(long)})
	assert.Error(t, err, "over-long name must be rejected")
}

func TestAssignLabel_UnknownLabelAndBadTarget(t *testing.T) {
	s := NewLabelStore()

	_, err := s.AssignLabel("missing", types.KeyTarget("A"), "", nil)
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))

	label, err := s.CreateLabel(types.Label{Name: "x"})
	require.NoError(t, err)
	_, err = s.AssignLabel(label.ID, types.Target{Kind: "bogus", ID: "A"}, "", nil)
	var invalid *InvalidTargetError
	require.True(t, errors.As(err, &invalid))
}

func TestLabelStore_ConcurrentAssign(t *testing.T) {
	s := NewLabelStore()
	label, err := s.CreateLabel(types.Label{Name: "race"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wins := make(chan types.Target, 16)
	for i := 0; i < 16; i++ {
		target := types.KeyTarget(string(rune('a' + i)))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AssignLabel(label.ID, target, "", nil); err == nil {
				wins <- target
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []types.Target
	for w := range wins {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1, "exactly one concurrent assignment may win")

	a, ok := s.Assignment(label.ID)
	require.True(t, ok)
	assert.Equal(t, winners[0], a.Target)
}
