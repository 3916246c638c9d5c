package task

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// HistoryEntry records one previously scheduled task.
type HistoryEntry struct {
	// Kind is the source the task was resolved from.
	Kind SourceKind

	// Task is the resolved task as it was scheduled, with the substitutions
	// that were in effect at the time.
	Task *ResolvedTask

	// Seq orders entries by schedule time. ULIDs are monotonic within the
	// process, so two entries scheduled in the same millisecond still sort
	// correctly.
	Seq ulid.ULID
}

// history is a bounded record of scheduled tasks, most-recent-last. It has
// no locking of its own: the owning Inventory serializes all access.
type history struct {
	entries  []HistoryEntry
	capacity int
	entropy  *ulid.MonotonicEntropy
}

func newHistory(capacity int) *history {
	return &history{
		entries:  make([]HistoryEntry, 0, capacity),
		capacity: capacity,
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// upsert records a schedule. An entry with the same resolved ID is promoted
// to most-recent rather than duplicated; beyond capacity the oldest entry is
// dropped.
func (h *history) upsert(kind SourceKind, task *ResolvedTask) {
	for i, entry := range h.entries {
		if entry.Task.ID == task.ID {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			break
		}
	}

	h.entries = append(h.entries, HistoryEntry{
		Kind: kind,
		Task: task,
		Seq:  ulid.MustNew(ulid.Timestamp(time.Now()), h.entropy),
	})

	if len(h.entries) > h.capacity {
		h.entries = h.entries[len(h.entries)-h.capacity:]
	}
}

// remove deletes the entry with the given resolved ID. It reports whether an
// entry was removed; removing an absent ID is a no-op.
func (h *history) remove(id string) bool {
	for i, entry := range h.entries {
		if entry.Task.ID == id {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return true
		}
	}
	return false
}

// last returns the most recent entry matching filter. A nil filter matches
// everything.
func (h *history) last(filter func(HistoryEntry) bool) (HistoryEntry, bool) {
	for i := len(h.entries) - 1; i >= 0; i-- {
		if filter == nil || filter(h.entries[i]) {
			return h.entries[i], true
		}
	}
	return HistoryEntry{}, false
}

func (h *history) len() int {
	return len(h.entries)
}
