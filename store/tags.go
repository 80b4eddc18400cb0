package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yairfalse/keyscout/types"
)

// TagStore holds tag definitions and their assignments. A tag may sit
// on any number of targets and a target may carry any number of tags.
// All methods are safe for concurrent use.
type TagStore struct {
	baseStore
	tags        map[string]types.Tag
	assignments map[string]types.TagAssignment // by assignment ID
}

// NewTagStore creates an empty tag store.
func NewTagStore() *TagStore {
	return &TagStore{
		baseStore:   newBaseStore(),
		tags:        make(map[string]types.Tag),
		assignments: make(map[string]types.TagAssignment),
	}
}

// CreateTag validates and stores a new tag definition. An empty ID is
// filled with a generated one.
func (s *TagStore) CreateTag(tag types.Tag) (types.Tag, error) {
	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = time.Now().UTC()
	}
	if tag.UpdatedAt.IsZero() {
		tag.UpdatedAt = tag.CreatedAt
	}
	if err := s.validate.Struct(tag); err != nil {
		return types.Tag{}, fmt.Errorf("invalid tag: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tags[tag.ID]; exists {
		return types.Tag{}, fmt.Errorf("tag %q already exists", tag.ID)
	}
	s.tags[tag.ID] = tag
	return tag, nil
}

// UpdateTag replaces an existing tag definition.
func (s *TagStore) UpdateTag(tag types.Tag) (types.Tag, error) {
	if err := s.validate.Struct(tag); err != nil {
		return types.Tag{}, fmt.Errorf("invalid tag: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tags[tag.ID]
	if !ok {
		return types.Tag{}, &NotFoundError{Kind: "tag", ID: tag.ID}
	}
	tag.CreatedAt = existing.CreatedAt
	tag.UpdatedAt = time.Now().UTC()
	s.tags[tag.ID] = tag
	return tag, nil
}

// GetTag fetches a tag by ID.
func (s *TagStore) GetTag(id string) (types.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tag, ok := s.tags[id]
	if !ok {
		return types.Tag{}, &NotFoundError{Kind: "tag", ID: id}
	}
	return tag, nil
}

// ListTags returns all tags sorted by name.
func (s *TagStore) ListTags() []types.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Tag, 0, len(s.tags))
	for _, tag := range s.tags {
		out = append(out, tag)
	}
	sortByName(out, func(t types.Tag) string { return t.Name })
	return out
}

// DeleteTag removes a tag definition. With live assignments it fails
// unless force is set, in which case the assignments are cascaded
// away.
func (s *TagStore) DeleteTag(id string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tags[id]; !ok {
		return &NotFoundError{Kind: "tag", ID: id}
	}

	var live []string
	for aid, a := range s.assignments {
		if a.TagID == id {
			live = append(live, aid)
		}
	}
	if len(live) > 0 && !force {
		return &StillAssignedError{Kind: "tag", ID: id, Assignments: len(live)}
	}
	for _, aid := range live {
		delete(s.assignments, aid)
	}
	delete(s.tags, id)
	return nil
}

// AssignTag binds a tag to a target. Assigning the same tag to the
// same target again is idempotent and returns the existing
// assignment.
func (s *TagStore) AssignTag(tagID string, target types.Target, assignedBy string, metadata map[string]string) (types.TagAssignment, error) {
	if !target.Valid() {
		return types.TagAssignment{}, &InvalidTargetError{Target: target}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tags[tagID]; !ok {
		return types.TagAssignment{}, &NotFoundError{Kind: "tag", ID: tagID}
	}

	for _, a := range s.assignments {
		if a.TagID == tagID && a.Target == target {
			return a, nil
		}
	}

	assignment := types.TagAssignment{
		ID:         uuid.NewString(),
		TagID:      tagID,
		Target:     target,
		AssignedBy: assignedBy,
		Metadata:   metadata,
		AssignedAt: time.Now().UTC(),
	}
	s.assignments[assignment.ID] = assignment
	return assignment, nil
}

// UnassignTag removes the binding between a tag and a target.
// Removing a binding that does not exist is a no-op, so unassign is
// idempotent like assign.
func (s *TagStore) UnassignTag(tagID string, target types.Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for aid, a := range s.assignments {
		if a.TagID == tagID && a.Target == target {
			delete(s.assignments, aid)
			break
		}
	}
	return nil
}

// Assignments returns every assignment of one tag.
func (s *TagStore) Assignments(tagID string) []types.TagAssignment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.TagAssignment
	for _, a := range s.assignments {
		if a.TagID == tagID {
			out = append(out, a)
		}
	}
	sortByName(out, func(a types.TagAssignment) string { return a.Target.String() })
	return out
}

// TagsFor returns the tags attached to a target, sorted by name.
func (s *TagStore) TagsFor(target types.Target) []types.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Tag
	for _, a := range s.assignments {
		if a.Target == target {
			if tag, ok := s.tags[a.TagID]; ok {
				out = append(out, tag)
			}
		}
	}
	sortByName(out, func(t types.Tag) string { return t.Name })
	return out
}

// baseStore carries the pieces both stores share: one RWMutex
// guarding all state and the field validator.
type baseStore struct {
	mu       sync.RWMutex
	validate *validator.Validate
}

func newBaseStore() baseStore {
	return baseStore{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// sortByName orders items by a string key for stable list output.
func sortByName[T any](items []T, key func(T) string) {
	sort.Slice(items, func(i, j int) bool { return key(items[i]) < key(items[j]) })
}
