package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/yairfalse/keyscout/audit"
	"github.com/yairfalse/keyscout/store"
	"github.com/yairfalse/keyscout/types"
)

// storeSet bundles the persistent stores a tags/labels command works
// against.
type storeSet struct {
	dir     string
	paths   store.Paths
	tags    *store.TagStore
	labels  *store.LabelStore
	history *store.History
	audit   *audit.Log
}

// openStores loads the tag and label documents plus the assignment
// history from the store directory, creating it on first use. When an
// audit directory is configured, assignment events land there too.
func openStores() (*storeSet, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dir, err := resolveStoreDir(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	paths := store.DefaultPaths(dir)
	tags, labels, err := store.Load(paths)
	if err != nil {
		return nil, fmt.Errorf("failed to load stores: %w", err)
	}

	history, err := store.OpenHistory(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	var auditLog *audit.Log
	if cfg.AuditDir != "" {
		auditLog, err = audit.Open(audit.Config{Dir: cfg.AuditDir})
		if err != nil {
			_ = history.Close()
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
	}

	return &storeSet{
		dir:     dir,
		paths:   paths,
		tags:    tags,
		labels:  labels,
		history: history,
		audit:   auditLog,
	}, nil
}

// save writes both stores back to disk.
func (s *storeSet) save() error {
	if err := store.Save(s.paths, s.tags, s.labels); err != nil {
		return fmt.Errorf("failed to save stores: %w", err)
	}
	return nil
}

// close releases the history database and the audit log.
func (s *storeSet) close() {
	_ = s.history.Close()
	if s.audit != nil {
		_ = s.audit.Close()
	}
}

// record appends an assignment event to the history and, when
// configured, to the audit log. Best effort either way.
func (s *storeSet) record(kind, subjectID string, action store.HistoryAction, target types.Target, by string) {
	if _, err := s.history.Record(kind, subjectID, action, target, by); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record history: %v\n", err)
	}
	if s.audit != nil {
		_ = s.audit.Append(audit.EventAssignment, "", "", map[string]string{
			"kind":    kind,
			"subject": subjectID,
			"action":  string(action),
			"target":  target.String(),
			"by":      by,
		})
	}
}

// parseTarget turns "key:<hash>", "instance:<id>", "provider:<name>"
// or "model:<instance>@<model>" into a Target.
func parseTarget(arg string) (types.Target, error) {
	kind, id, found := strings.Cut(arg, ":")
	if !found || id == "" {
		return types.Target{}, fmt.Errorf("invalid target %q (expected kind:id, e.g. provider:openai)", arg)
	}

	target := types.Target{Kind: types.TargetKind(kind), ID: id}
	if target.Kind == types.TargetModel {
		if inst, model, ok := strings.Cut(id, "@"); ok && inst != "" && model != "" {
			target = types.ModelTarget(inst, model)
		}
	}
	if !target.Valid() {
		return types.Target{}, fmt.Errorf("invalid target kind %q (must be key, instance, provider or model)", kind)
	}
	return target, nil
}

// parseMetadata turns repeated key=value flags into a metadata map.
func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata %q (expected key=value)", pair)
		}
		meta[k] = v
	}
	return meta, nil
}
