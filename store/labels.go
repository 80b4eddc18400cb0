package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yairfalse/keyscout/types"
)

// LabelStore holds label definitions and their assignments under the
// global exclusivity rule: a label sits on at most one target at a
// time, across all target kinds. All methods are safe for concurrent
// use.
//
// Moving a label is deliberately two operations, UnassignLabel then
// AssignLabel. There is no atomic reassign; a crash between the two
// leaves the label unassigned, never double-assigned.
type LabelStore struct {
	baseStore
	labels      map[string]types.Label
	assignments map[string]types.LabelAssignment // by label ID
}

// NewLabelStore creates an empty label store.
func NewLabelStore() *LabelStore {
	return &LabelStore{
		baseStore:   newBaseStore(),
		labels:      make(map[string]types.Label),
		assignments: make(map[string]types.LabelAssignment),
	}
}

// CreateLabel validates and stores a new label definition. An empty
// ID is filled with a generated one.
func (s *LabelStore) CreateLabel(label types.Label) (types.Label, error) {
	if label.ID == "" {
		label.ID = uuid.NewString()
	}
	if label.CreatedAt.IsZero() {
		label.CreatedAt = time.Now().UTC()
	}
	if label.UpdatedAt.IsZero() {
		label.UpdatedAt = label.CreatedAt
	}
	if err := s.validate.Struct(label); err != nil {
		return types.Label{}, fmt.Errorf("invalid label: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.labels[label.ID]; exists {
		return types.Label{}, fmt.Errorf("label %q already exists", label.ID)
	}
	s.labels[label.ID] = label
	return label, nil
}

// UpdateLabel replaces an existing label definition.
func (s *LabelStore) UpdateLabel(label types.Label) (types.Label, error) {
	if err := s.validate.Struct(label); err != nil {
		return types.Label{}, fmt.Errorf("invalid label: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.labels[label.ID]
	if !ok {
		return types.Label{}, &NotFoundError{Kind: "label", ID: label.ID}
	}
	label.CreatedAt = existing.CreatedAt
	label.UpdatedAt = time.Now().UTC()
	s.labels[label.ID] = label
	return label, nil
}

// GetLabel fetches a label by ID.
func (s *LabelStore) GetLabel(id string) (types.Label, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	label, ok := s.labels[id]
	if !ok {
		return types.Label{}, &NotFoundError{Kind: "label", ID: id}
	}
	return label, nil
}

// ListLabels returns all labels sorted by name.
func (s *LabelStore) ListLabels() []types.Label {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Label, 0, len(s.labels))
	for _, label := range s.labels {
		out = append(out, label)
	}
	sortByName(out, func(l types.Label) string { return l.Name })
	return out
}

// DeleteLabel removes a label definition. With a live assignment it
// fails unless force is set, in which case the assignment is removed
// too.
func (s *LabelStore) DeleteLabel(id string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.labels[id]; !ok {
		return &NotFoundError{Kind: "label", ID: id}
	}
	if _, assigned := s.assignments[id]; assigned {
		if !force {
			return &StillAssignedError{Kind: "label", ID: id, Assignments: 1}
		}
		delete(s.assignments, id)
	}
	delete(s.labels, id)
	return nil
}

// AssignLabel binds a label to a target. If the label is already on
// that exact target the call is idempotent. If it is on any other
// target the call fails with AlreadyAssignedError naming the
// conflicting target.
func (s *LabelStore) AssignLabel(labelID string, target types.Target, assignedBy string, metadata map[string]string) (types.LabelAssignment, error) {
	if !target.Valid() {
		return types.LabelAssignment{}, &InvalidTargetError{Target: target}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.labels[labelID]; !ok {
		return types.LabelAssignment{}, &NotFoundError{Kind: "label", ID: labelID}
	}

	if existing, assigned := s.assignments[labelID]; assigned {
		if existing.Target == target {
			return existing, nil
		}
		return types.LabelAssignment{}, &AlreadyAssignedError{
			LabelID:           labelID,
			ConflictingTarget: existing.Target,
		}
	}

	assignment := types.LabelAssignment{
		ID:         uuid.NewString(),
		LabelID:    labelID,
		Target:     target,
		AssignedBy: assignedBy,
		Metadata:   metadata,
		AssignedAt: time.Now().UTC(),
	}
	s.assignments[labelID] = assignment
	return assignment, nil
}

// UnassignLabel frees a label from the given target. It fails when
// the label is not assigned at all or sits on a different target, so
// a stale caller cannot free a label someone else moved.
func (s *LabelStore) UnassignLabel(labelID string, target types.Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.assignments[labelID]
	if !ok {
		return &NotFoundError{Kind: "assignment", ID: labelID}
	}
	if existing.Target != target {
		return &NotFoundError{Kind: "assignment", ID: labelID + "->" + target.String()}
	}
	delete(s.assignments, labelID)
	return nil
}

// Assignment returns a label's current assignment, if any.
func (s *LabelStore) Assignment(labelID string) (types.LabelAssignment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assignments[labelID]
	return a, ok
}

// LabelsFor returns the labels attached to a target, sorted by name.
func (s *LabelStore) LabelsFor(target types.Target) []types.Label {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Label
	for labelID, a := range s.assignments {
		if a.Target == target {
			if label, ok := s.labels[labelID]; ok {
				out = append(out, label)
			}
		}
	}
	sortByName(out, func(l types.Label) string { return l.Name })
	return out
}

// ListAssignments returns every live label assignment.
func (s *LabelStore) ListAssignments() []types.LabelAssignment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.LabelAssignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		out = append(out, a)
	}
	sortByName(out, func(a types.LabelAssignment) string { return a.LabelID })
	return out
}
