// Package store implements the tag and label stores: definition CRUD
// plus assignment bookkeeping. Tags attach freely; labels are
// globally exclusive, one target per label across every target kind.
// State lives in memory behind a single RWMutex per store, with YAML
// persistence and a bbolt-backed assignment history on the side.
package store

import (
	"fmt"

	"github.com/yairfalse/keyscout/types"
)

// NotFoundError reports a missing tag, label or assignment.
type NotFoundError struct {
	Kind string // "tag", "label", "assignment"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// AlreadyAssignedError is returned when assigning a label that is
// bound to a different target. The conflicting target tells the
// caller where the label currently sits.
type AlreadyAssignedError struct {
	LabelID           string
	ConflictingTarget types.Target
}

func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf("label %q already assigned to %s", e.LabelID, e.ConflictingTarget)
}

// StillAssignedError is returned when deleting a definition that has
// live assignments without the force flag.
type StillAssignedError struct {
	Kind        string
	ID          string
	Assignments int
}

func (e *StillAssignedError) Error() string {
	return fmt.Sprintf("%s %q has %d live assignments; delete with force to cascade", e.Kind, e.ID, e.Assignments)
}

// InvalidTargetError reports an assignment aimed at a malformed
// target.
type InvalidTargetError struct {
	Target types.Target
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid assignment target %s", e.Target)
}
