package types

import (
	"fmt"
	"time"
)

// Tag is a user-defined marker that may be attached to any number of
// targets, and a target may carry any number of tags.
type Tag struct {
	ID          string            `json:"id" yaml:"id" validate:"required"`
	Name        string            `json:"name" yaml:"name" validate:"required,min=1,max=64"`
	Color       string            `json:"color,omitempty" yaml:"color,omitempty" validate:"omitempty,hexcolor"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty" validate:"max=256"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" yaml:"updated_at"`
}

// Label has the same shape as a Tag but is globally exclusive: a given
// label may be assigned to at most one target at a time across all
// target kinds.
type Label struct {
	ID          string            `json:"id" yaml:"id" validate:"required"`
	Name        string            `json:"name" yaml:"name" validate:"required,min=1,max=64"`
	Color       string            `json:"color,omitempty" yaml:"color,omitempty" validate:"omitempty,hexcolor"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty" validate:"max=256"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" yaml:"updated_at"`
}

// TargetKind discriminates what an assignment points at.
type TargetKind string

const (
	TargetKey      TargetKind = "key"      // a DiscoveredKey, addressed by hash
	TargetInstance TargetKind = "instance" // a ConfigInstance, addressed by instance ID
	TargetProvider TargetKind = "provider" // a provider, addressed by name
	TargetModel    TargetKind = "model"    // a model within a config instance
)

// Target is the tagged union an assignment attaches to. Equality is
// plain struct equality, so Targets work as map keys.
//
// For the model kind, ID names the config instance and Model the model
// identifier within it. Callers that already carry a combined
// identifier may leave Model empty and pack both parts into ID.
type Target struct {
	Kind  TargetKind `json:"kind" yaml:"kind"`
	ID    string     `json:"id" yaml:"id"`
	Model string     `json:"model,omitempty" yaml:"model,omitempty"`
}

// KeyTarget addresses a discovered key by its value hash.
func KeyTarget(hash string) Target { return Target{Kind: TargetKey, ID: hash} }

// InstanceTarget addresses a config instance by its instance ID.
func InstanceTarget(id string) Target { return Target{Kind: TargetInstance, ID: id} }

// ProviderTarget addresses a provider by name.
func ProviderTarget(name string) Target { return Target{Kind: TargetProvider, ID: name} }

// ModelTarget addresses one model within a config instance.
func ModelTarget(instanceID, modelID string) Target {
	return Target{Kind: TargetModel, ID: instanceID, Model: modelID}
}

func (t Target) String() string {
	if t.Kind == TargetModel && t.Model != "" {
		return fmt.Sprintf("%s:%s@%s", t.Kind, t.ID, t.Model)
	}
	return fmt.Sprintf("%s:%s", t.Kind, t.ID)
}

// Valid reports whether the target has a known kind and a non-empty ID.
// Model is only meaningful on model targets.
func (t Target) Valid() bool {
	switch t.Kind {
	case TargetKey, TargetInstance, TargetProvider:
		return t.ID != "" && t.Model == ""
	case TargetModel:
		return t.ID != ""
	}
	return false
}

// TagAssignment binds a tag to a target.
type TagAssignment struct {
	ID         string            `json:"id" yaml:"id"`
	TagID      string            `json:"tag_id" yaml:"tag_id"`
	Target     Target            `json:"target" yaml:"target"`
	AssignedBy string            `json:"assigned_by,omitempty" yaml:"assigned_by,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	AssignedAt time.Time         `json:"assigned_at" yaml:"assigned_at"`
}

// LabelAssignment binds a label to its single target.
type LabelAssignment struct {
	ID         string            `json:"id" yaml:"id"`
	LabelID    string            `json:"label_id" yaml:"label_id"`
	Target     Target            `json:"target" yaml:"target"`
	AssignedBy string            `json:"assigned_by,omitempty" yaml:"assigned_by,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	AssignedAt time.Time         `json:"assigned_at" yaml:"assigned_at"`
}
