// Package diff compares consecutive scan results and reports what
// changed: keys that appeared, moved or disappeared, and config
// instances that came and went. The watch daemon uses it to surface
// credential churn between rescans.
package diff

import (
	"time"

	"github.com/yairfalse/keyscout/types"
)

// ChangeType classifies one change between two scans.
type ChangeType string

const (
	ChangeAppeared    ChangeType = "appeared"
	ChangeModified    ChangeType = "modified"
	ChangeDisappeared ChangeType = "disappeared"
)

// KeyChange is one per-key difference between two scans. Keys are
// matched by identity (provider plus hash), so a key moving between
// files shows as modified, not as a disappear/appear pair.
type KeyChange struct {
	Identity   string
	ChangeType ChangeType
	Timestamp  time.Time
	Current    *types.DiscoveredKey
	Previous   *types.DiscoveredKey
}

// InstanceChange is one per-instance difference between two scans.
type InstanceChange struct {
	InstanceID string
	ChangeType ChangeType
	Timestamp  time.Time
	Current    *types.ConfigInstance
	Previous   *types.ConfigInstance
}

// Changes aggregates everything that differs between two scans.
type Changes struct {
	Keys      []KeyChange
	Instances []InstanceChange
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.Keys) == 0 && len(c.Instances) == 0
}

// Detect compares a current scan against the previous one. A nil
// previous result means a first scan; everything current is reported
// as appeared.
func Detect(previous, current *types.ScanResult) Changes {
	now := time.Now().UTC()

	if previous == nil {
		return allAppeared(current, now)
	}

	return Changes{
		Keys:      detectKeyChanges(previous.Keys, current.Keys, now),
		Instances: detectInstanceChanges(previous.Instances, current.Instances, now),
	}
}

func allAppeared(current *types.ScanResult, now time.Time) Changes {
	var changes Changes
	for i := range current.Keys {
		key := current.Keys[i]
		changes.Keys = append(changes.Keys, KeyChange{
			Identity:   key.Identity(),
			ChangeType: ChangeAppeared,
			Timestamp:  now,
			Current:    &key,
		})
	}
	for i := range current.Instances {
		inst := current.Instances[i]
		changes.Instances = append(changes.Instances, InstanceChange{
			InstanceID: inst.InstanceID,
			ChangeType: ChangeAppeared,
			Timestamp:  now,
			Current:    &inst,
		})
	}
	return changes
}

func detectKeyChanges(previous, current []types.DiscoveredKey, now time.Time) []KeyChange {
	previousMap := make(map[string]types.DiscoveredKey, len(previous))
	for _, k := range previous {
		previousMap[k.Identity()] = k
	}
	currentMap := make(map[string]types.DiscoveredKey, len(current))
	for _, k := range current {
		currentMap[k.Identity()] = k
	}

	var changes []KeyChange

	for identity, cur := range currentMap {
		prev, existed := previousMap[identity]
		if !existed {
			c := cur
			changes = append(changes, KeyChange{
				Identity:   identity,
				ChangeType: ChangeAppeared,
				Timestamp:  now,
				Current:    &c,
			})
			continue
		}
		if keyChanged(prev, cur) {
			p, c := prev, cur
			changes = append(changes, KeyChange{
				Identity:   identity,
				ChangeType: ChangeModified,
				Timestamp:  now,
				Current:    &c,
				Previous:   &p,
			})
		}
	}

	for identity, prev := range previousMap {
		if _, exists := currentMap[identity]; !exists {
			p := prev
			changes = append(changes, KeyChange{
				Identity:   identity,
				ChangeType: ChangeDisappeared,
				Timestamp:  now,
				Previous:   &p,
			})
		}
	}

	return changes
}

// keyChanged checks whether an identical key moved or was re-scored.
func keyChanged(previous, current types.DiscoveredKey) bool {
	if previous.Source != current.Source {
		return true
	}
	if previous.Line != current.Line || previous.Column != current.Column {
		return true
	}
	if previous.Score != current.Score || previous.Confidence != current.Confidence {
		return true
	}
	if previous.Locked != current.Locked {
		return true
	}
	return false
}

func detectInstanceChanges(previous, current []types.ConfigInstance, now time.Time) []InstanceChange {
	previousMap := make(map[string]types.ConfigInstance, len(previous))
	for _, inst := range previous {
		previousMap[inst.InstanceID] = inst
	}
	currentMap := make(map[string]types.ConfigInstance, len(current))
	for _, inst := range current {
		currentMap[inst.InstanceID] = inst
	}

	var changes []InstanceChange

	for id, cur := range currentMap {
		prev, existed := previousMap[id]
		if !existed {
			c := cur
			changes = append(changes, InstanceChange{
				InstanceID: id,
				ChangeType: ChangeAppeared,
				Timestamp:  now,
				Current:    &c,
			})
			continue
		}
		if prev.KeyCount != cur.KeyCount || prev.Format != cur.Format {
			p, c := prev, cur
			changes = append(changes, InstanceChange{
				InstanceID: id,
				ChangeType: ChangeModified,
				Timestamp:  now,
				Current:    &c,
				Previous:   &p,
			})
		}
	}

	for id, prev := range previousMap {
		if _, exists := currentMap[id]; !exists {
			p := prev
			changes = append(changes, InstanceChange{
				InstanceID: id,
				ChangeType: ChangeDisappeared,
				Timestamp:  now,
				Previous:   &p,
			})
		}
	}

	return changes
}
