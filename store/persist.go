package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yairfalse/keyscout/types"
)

// Paths names the four documents the stores persist to. Callers
// direct the locations; DefaultPaths gives the standard layout under
// one directory.
type Paths struct {
	Tags             string
	TagAssignments   string
	Labels           string
	LabelAssignments string
}

// DefaultPaths lays the four documents out under dir.
func DefaultPaths(dir string) Paths {
	return Paths{
		Tags:             filepath.Join(dir, "tags.yaml"),
		TagAssignments:   filepath.Join(dir, "tag_assignments.yaml"),
		Labels:           filepath.Join(dir, "labels.yaml"),
		LabelAssignments: filepath.Join(dir, "label_assignments.yaml"),
	}
}

// tagsDoc and friends are the on-disk document shapes.
type tagsDoc struct {
	Tags []types.Tag `yaml:"tags"`
}

type tagAssignmentsDoc struct {
	Assignments []types.TagAssignment `yaml:"assignments"`
}

type labelsDoc struct {
	Labels []types.Label `yaml:"labels"`
}

type labelAssignmentsDoc struct {
	Assignments []types.LabelAssignment `yaml:"assignments"`
}

// Save writes both stores to their four YAML documents.
func Save(paths Paths, tags *TagStore, labels *LabelStore) error {
	tags.mu.RLock()
	tdoc := tagsDoc{Tags: make([]types.Tag, 0, len(tags.tags))}
	for _, t := range tags.tags {
		tdoc.Tags = append(tdoc.Tags, t)
	}
	tadoc := tagAssignmentsDoc{Assignments: make([]types.TagAssignment, 0, len(tags.assignments))}
	for _, a := range tags.assignments {
		tadoc.Assignments = append(tadoc.Assignments, a)
	}
	tags.mu.RUnlock()

	sortByName(tdoc.Tags, func(t types.Tag) string { return t.ID })
	sortByName(tadoc.Assignments, func(a types.TagAssignment) string { return a.ID })

	labels.mu.RLock()
	ldoc := labelsDoc{Labels: make([]types.Label, 0, len(labels.labels))}
	for _, l := range labels.labels {
		ldoc.Labels = append(ldoc.Labels, l)
	}
	ladoc := labelAssignmentsDoc{Assignments: make([]types.LabelAssignment, 0, len(labels.assignments))}
	for _, a := range labels.assignments {
		ladoc.Assignments = append(ladoc.Assignments, a)
	}
	labels.mu.RUnlock()

	sortByName(ldoc.Labels, func(l types.Label) string { return l.ID })
	sortByName(ladoc.Assignments, func(a types.LabelAssignment) string { return a.LabelID })

	if err := writeYAML(paths.Tags, tdoc); err != nil {
		return err
	}
	if err := writeYAML(paths.TagAssignments, tadoc); err != nil {
		return err
	}
	if err := writeYAML(paths.Labels, ldoc); err != nil {
		return err
	}
	return writeYAML(paths.LabelAssignments, ladoc)
}

// Load reads both stores back from their documents. Missing files
// yield empty stores; that is the first-run case, not an error.
func Load(paths Paths) (*TagStore, *LabelStore, error) {
	tags := NewTagStore()
	labels := NewLabelStore()

	var tdoc tagsDoc
	if err := readYAML(paths.Tags, &tdoc); err != nil {
		return nil, nil, err
	}
	var tadoc tagAssignmentsDoc
	if err := readYAML(paths.TagAssignments, &tadoc); err != nil {
		return nil, nil, err
	}
	var ldoc labelsDoc
	if err := readYAML(paths.Labels, &ldoc); err != nil {
		return nil, nil, err
	}
	var ladoc labelAssignmentsDoc
	if err := readYAML(paths.LabelAssignments, &ladoc); err != nil {
		return nil, nil, err
	}

	for _, t := range tdoc.Tags {
		tags.tags[t.ID] = t
	}
	for _, a := range tadoc.Assignments {
		tags.assignments[a.ID] = a
	}
	for _, l := range ldoc.Labels {
		labels.labels[l.ID] = l
	}
	for _, a := range ladoc.Assignments {
		// exclusivity also holds on load: last writer does not win,
		// the first assignment for a label is kept
		if _, seen := labels.assignments[a.LabelID]; seen {
			continue
		}
		labels.assignments[a.LabelID] = a
	}

	return tags, labels, nil
}

func writeYAML(path string, doc any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readYAML(path string, doc any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
