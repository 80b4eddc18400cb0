package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/btree"
	"go.etcd.io/bbolt"

	"github.com/yairfalse/keyscout/types"
)

// Bucket names in bbolt
var (
	bucketEvents = []byte("events")
	bucketMeta   = []byte("meta")
)

// HistoryAction is what happened to an assignment.
type HistoryAction string

const (
	ActionAssign   HistoryAction = "assign"
	ActionUnassign HistoryAction = "unassign"
)

// HistoryEvent is one recorded assignment change.
type HistoryEvent struct {
	Revision  int64         `json:"revision"`
	Kind      string        `json:"kind"` // "tag" or "label"
	SubjectID string        `json:"subject_id"`
	Action    HistoryAction `json:"action"`
	Target    types.Target  `json:"target"`
	By        string        `json:"by,omitempty"`
	At        time.Time     `json:"at"`
}

// SubjectState tracks one tag/label in the in-memory index.
type SubjectState struct {
	Key        string // kind + ":" + subject ID
	FirstRev   int64
	LastRev    int64
	EventCount int
	LastAction HistoryAction
	LastTarget types.Target
}

// History is a revisioned log of assignment events: bbolt for the
// durable event stream, a btree index in memory for fast per-subject
// lookups. Every recorded event bumps the revision.
type History struct {
	mu sync.RWMutex

	// In-memory index for fast lookups
	index *btree.BTreeG[*SubjectState]

	// On-disk storage
	db *bbolt.DB

	// Current revision number
	currentRev int64
}

// OpenHistory opens or creates the history database in dir.
func OpenHistory(dir string) (*History, error) {
	dbPath := filepath.Join(dir, "history.db")

	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketEvents, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	h := &History{
		index: btree.NewG[*SubjectState](32, func(a, b *SubjectState) bool {
			return a.Key < b.Key
		}),
		db: db,
	}

	if err := h.loadRevision(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := h.rebuildIndex(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return h, nil
}

// Close closes the history database.
func (h *History) Close() error {
	return h.db.Close()
}

// Record appends one assignment event and returns its revision.
func (h *History) Record(kind, subjectID string, action HistoryAction, target types.Target, by string) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentRev++
	rev := h.currentRev

	event := HistoryEvent{
		Revision:  rev,
		Kind:      kind,
		SubjectID: subjectID,
		Action:    action,
		Target:    target,
		By:        by,
		At:        time.Now().UTC(),
	}

	err := h.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEvents)
		value, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if err := bucket.Put(makeEventKey(rev, kind, subjectID), value); err != nil {
			return err
		}

		metaBucket := tx.Bucket(bucketMeta)
		return metaBucket.Put([]byte("current_revision"), int64ToBytes(rev))
	})
	if err != nil {
		h.currentRev--
		return 0, err
	}

	h.updateIndex(event)
	return rev, nil
}

// EventsFor returns a subject's events in revision order.
func (h *History) EventsFor(kind, subjectID string) ([]HistoryEvent, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var events []HistoryEvent
	suffix := ":" + kind + ":" + subjectID

	err := h.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if !strings.HasSuffix(string(k), suffix) {
				continue
			}
			var event HistoryEvent
			if err := json.Unmarshal(v, &event); err != nil {
				return err
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// State returns the indexed summary for a subject.
func (h *History) State(kind, subjectID string) (*SubjectState, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	state, found := h.index.Get(&SubjectState{Key: kind + ":" + subjectID})
	return state, found
}

// CurrentRevision returns the current revision number.
func (h *History) CurrentRevision() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentRev
}

// Compact removes events older than the newest keepRevisions.
func (h *History) Compact(keepRevisions int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := h.currentRev - keepRevisions
	if cutoff <= 0 {
		return nil
	}

	return h.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEvents)
		c := bucket.Cursor()

		var toDelete [][]byte
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if parseEventRev(k) <= cutoff {
				toDelete = append(toDelete, k)
			}
		}
		for _, key := range toDelete {
			if err := bucket.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Helper functions

func (h *History) updateIndex(event HistoryEvent) {
	key := event.Kind + ":" + event.SubjectID
	existing, found := h.index.Get(&SubjectState{Key: key})
	if !found {
		existing = &SubjectState{Key: key, FirstRev: event.Revision}
	}
	existing.LastRev = event.Revision
	existing.EventCount++
	existing.LastAction = event.Action
	existing.LastTarget = event.Target
	h.index.ReplaceOrInsert(existing)
}

func (h *History) loadRevision() error {
	return h.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMeta)
		if bucket == nil {
			return nil
		}
		if data := bucket.Get([]byte("current_revision")); data != nil {
			h.currentRev = bytesToInt64(data)
		}
		return nil
	})
}

// rebuildIndex replays every stored event into the btree on open.
func (h *History) rebuildIndex() error {
	return h.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var event HistoryEvent
			if err := json.Unmarshal(v, &event); err != nil {
				return err
			}
			h.updateIndex(event)
		}
		return nil
	})
}

func makeEventKey(rev int64, kind, subjectID string) []byte {
	return []byte(fmt.Sprintf("%016d:%s:%s", rev, kind, subjectID))
}

func parseEventRev(key []byte) int64 {
	var rev int64
	_, _ = fmt.Sscanf(string(key), "%016d:", &rev)
	return rev
}

func int64ToBytes(n int64) []byte {
	return []byte(fmt.Sprintf("%d", n))
}

func bytesToInt64(b []byte) int64 {
	var n int64
	_, _ = fmt.Sscanf(string(b), "%d", &n)
	return n
}
