package task

import (
	"sort"
	"sync"
)

// DefaultHistoryCapacity bounds the usage history when no explicit capacity
// is configured.
const DefaultHistoryCapacity = 30

// Candidate pairs a resolved task with the kind of source it came from.
// Picker sessions operate on ordered slices of candidates.
type Candidate struct {
	Kind SourceKind
	Task *ResolvedTask
}

// Inventory owns the registered task templates, grouped by source kind, and
// the bounded history of previously scheduled tasks. It is safe for
// concurrent use; readers always observe a consistent snapshot.
type Inventory struct {
	mu        sync.RWMutex
	templates map[SourceKind][]Template
	history   *history
}

// NewInventory creates an inventory. A non-positive historyCapacity selects
// DefaultHistoryCapacity.
func NewInventory(historyCapacity int) *Inventory {
	if historyCapacity <= 0 {
		historyCapacity = DefaultHistoryCapacity
	}
	return &Inventory{
		templates: make(map[SourceKind][]Template),
		history:   newHistory(historyCapacity),
	}
}

// SetTemplates replaces the template group for a source kind. An empty slice
// removes the group.
func (inv *Inventory) SetTemplates(kind SourceKind, templates []Template) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if len(templates) == 0 {
		delete(inv.templates, kind)
		return
	}
	group := make([]Template, len(templates))
	copy(group, templates)
	inv.templates[kind] = group
}

// RemoveTemplates drops the template group for a source kind.
func (inv *Inventory) RemoveTemplates(kind SourceKind) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	delete(inv.templates, kind)
}

// Templates returns a copy of the template group for a source kind.
func (inv *Inventory) Templates(kind SourceKind) []Template {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	group := inv.templates[kind]
	if len(group) == 0 {
		return nil
	}
	out := make([]Template, len(group))
	copy(out, group)
	return out
}

// UsedAndCurrent produces the two partitions a picker session concatenates
// into its candidate list.
//
// used holds recent history entries still applicable under the current
// template set, most-recent-LAST: oneshot (user input) entries always apply;
// other entries apply only while their source group is active for the given
// worktree and location and their template is still registered.
//
// current holds every applicable template resolved against ctx. Groups are
// ordered language, worktree, then global config files; within a group,
// templates that consumed more distinct context variables come first, ties
// broken by resolved label. Tasks whose resolved ID already appears in used
// (or earlier in current) are dropped.
//
// Missing context data degrades to smaller or empty results, never an error.
func (inv *Inventory) UsedAndCurrent(worktree WorktreeID, loc Location, ctx Context) (used, current []Candidate) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	groups := inv.activeGroups(worktree, loc)
	groupSet := make(map[SourceKind]bool, len(groups))
	for _, kind := range groups {
		groupSet[kind] = true
	}

	seen := make(map[string]bool)
	for _, entry := range inv.history.entries {
		if !inv.historyEntryApplies(entry, groupSet) {
			continue
		}
		used = append(used, Candidate{Kind: entry.Kind, Task: entry.Task})
		seen[entry.Task.ID] = true
	}

	for _, kind := range groups {
		group := make([]Candidate, 0, len(inv.templates[kind]))
		for _, tmpl := range inv.templates[kind] {
			resolved, ok := Resolve(kind, tmpl, ctx)
			if !ok || seen[resolved.ID] {
				continue
			}
			seen[resolved.ID] = true
			group = append(group, Candidate{Kind: kind, Task: resolved})
		}
		sort.SliceStable(group, func(i, j int) bool {
			a, b := group[i].Task, group[j].Task
			if a.substituted != b.substituted {
				return a.substituted > b.substituted
			}
			return a.ResolvedLabel < b.ResolvedLabel
		})
		current = append(current, group...)
	}

	return used, current
}

// activeGroups returns the source kinds applicable to the given worktree and
// location, in candidate-list order. Callers hold the lock.
func (inv *Inventory) activeGroups(worktree WorktreeID, loc Location) []SourceKind {
	var groups []SourceKind

	if loc.Language != "" {
		lang := Language(loc.Language)
		if _, ok := inv.templates[lang]; ok {
			groups = append(groups, lang)
		}
	}

	wt := Worktree(worktree)
	if _, ok := inv.templates[wt]; ok {
		groups = append(groups, wt)
	}

	var global []SourceKind
	for kind := range inv.templates {
		if kind.Tag == KindAbsPath {
			global = append(global, kind)
		}
	}
	sort.Slice(global, func(i, j int) bool { return global[i].Path < global[j].Path })

	return append(groups, global...)
}

// historyEntryApplies reports whether a history entry is still resolvable
// under the active template set. Callers hold the lock.
func (inv *Inventory) historyEntryApplies(entry HistoryEntry, groupSet map[SourceKind]bool) bool {
	if entry.Kind.Tag == KindUserInput {
		return true
	}
	if !groupSet[entry.Kind] {
		return false
	}

	fingerprint := entry.Task.Template.Fingerprint()
	for _, tmpl := range inv.templates[entry.Kind] {
		if tmpl.Fingerprint() == fingerprint {
			return true
		}
	}
	return false
}

// TaskScheduled records a successful schedule. An already-present resolved
// ID is promoted to most-recent rather than duplicated.
func (inv *Inventory) TaskScheduled(kind SourceKind, task *ResolvedTask) {
	if task == nil {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.history.upsert(kind, task)
}

// DeletePreviouslyUsed permanently removes a history entry by resolved ID.
// Deleting an absent ID is a no-op.
func (inv *Inventory) DeletePreviouslyUsed(id string) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.history.remove(id)
}

// LastScheduled returns the most recent history entry matching filter. A nil
// filter matches everything.
func (inv *Inventory) LastScheduled(filter func(Candidate) bool) (Candidate, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	entry, ok := inv.history.last(func(e HistoryEntry) bool {
		return filter == nil || filter(Candidate{Kind: e.Kind, Task: e.Task})
	})
	if !ok {
		return Candidate{}, false
	}
	return Candidate{Kind: entry.Kind, Task: entry.Task}, true
}

// HistoryLen returns the number of retained history entries.
func (inv *Inventory) HistoryLen() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.history.len()
}
