package picker

import (
	"context"
	"strings"
	"sync"

	"github.com/dshills/taskpick/internal/fuzzy"
	"github.com/dshills/taskpick/internal/task"
)

// DefaultMatchLimit caps the number of matches a session computes per query.
const DefaultMatchLimit = 1000

// parallelThreshold is the candidate count above which match computation is
// spread across workers instead of running on the cached serial matcher.
const parallelThreshold = 256

// Runner dispatches a confirmed task for execution. Implementations decide
// how the process is spawned; the session only hands over the resolved task
// and whether the run should stay out of the usage history.
type Runner interface {
	ScheduleResolvedTask(kind task.SourceKind, resolved *task.ResolvedTask, omitHistory bool)
}

// Options configures a picker session.
type Options struct {
	// MatchLimit caps the number of matches kept per query. Non-positive
	// selects DefaultMatchLimit.
	MatchLimit int

	// Workers sets the parallel matcher's worker count. Non-positive selects
	// one worker per CPU.
	Workers int
}

// Session is one open picker modal: a query, a selection, the ranked
// matches, and a snapshot of the inventory's candidates. The snapshot is
// built on the first match computation and kept for the session's lifetime;
// deleting an entry edits the snapshot instead of requerying the inventory.
//
// All methods are safe for concurrent use. Match computation runs outside
// the session lock, and a generation counter discards results that were
// superseded by a newer query before they finished.
type Session struct {
	inventory *task.Inventory
	runner    Runner
	worktree  task.WorktreeID
	location  task.Location
	context   task.Context

	serial   *fuzzy.Matcher
	parallel *fuzzy.ParallelMatcher
	limit    int

	mu         sync.Mutex
	candidates []task.Candidate
	searchable []fuzzy.Candidate
	lastUsed   int
	query      string
	matches    []fuzzy.Match
	divider    int
	selected   int
	generation uint64
}

// NewSession creates a session over an inventory. The worktree, location,
// and context describe the active editing state the session was opened in;
// they are fixed for the session's lifetime. runner may be nil for a
// browse-only session, in which case Confirm and ConfirmInput do nothing.
// A nil inventory yields an empty candidate list.
func NewSession(inventory *task.Inventory, runner Runner, worktree task.WorktreeID, loc task.Location, ctx task.Context, opts Options) *Session {
	if opts.MatchLimit <= 0 {
		opts.MatchLimit = DefaultMatchLimit
	}
	serial := fuzzy.NewMatcher(fuzzy.DefaultOptions())
	return &Session{
		inventory: inventory,
		runner:    runner,
		worktree:  worktree,
		location:  loc,
		context:   ctx,
		serial:    serial,
		parallel:  fuzzy.NewParallelMatcher(serial, opts.Workers),
		limit:     opts.MatchLimit,
		lastUsed:  -1,
	}
}

// Query returns the session's current query text.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Matches returns the ranked matches for the current query.
func (s *Session) Matches() []fuzzy.Match {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]fuzzy.Match, len(s.matches))
	copy(out, s.matches)
	return out
}

// Divider returns the number of leading matches that come from the usage
// history. Zero means no history matched and no divider row is drawn.
func (s *Session) Divider() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.divider
}

// Selected returns the index of the selected match row.
func (s *Session) Selected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SetSelected moves the selection, clamped to the current match list.
func (s *Session) SetSelected(ix int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = clampSelection(ix, len(s.matches))
}

// SelectedCandidate returns the candidate behind the selected match row.
func (s *Session) SelectedCandidate() (task.Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidateAtLocked(s.selected)
}

// MatchCandidate returns the candidate behind match row ix.
func (s *Session) MatchCandidate(ix int) (task.Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidateAtLocked(ix)
}

// UpdateMatches recomputes matches for query synchronously. A canceled
// context leaves the previous matches in place.
func (s *Session) UpdateMatches(ctx context.Context, query string) {
	gen, epoch, candidates := s.beginUpdate(query)
	matches := s.search(ctx, epoch, query, candidates)
	if ctx.Err() != nil {
		return
	}
	s.applyMatches(gen, matches)
}

// UpdateMatchesAsync recomputes matches for query on a background goroutine.
// If a newer update begins before this one finishes, its result is discarded.
// done, when non-nil, is called once the computation completes; applied
// reports whether the result became the session's current matches.
func (s *Session) UpdateMatchesAsync(ctx context.Context, query string, done func(applied bool)) {
	gen, epoch, candidates := s.beginUpdate(query)
	go func() {
		matches := s.search(ctx, epoch, query, candidates)
		applied := false
		if ctx.Err() == nil {
			applied = s.applyMatches(gen, matches)
		}
		if done != nil {
			done(applied)
		}
	}()
}

// Confirm dispatches the selected task to the runner. It reports false when
// there is no selection or no runner. With omitHistory the run is dispatched
// but kept out of the usage history.
func (s *Session) Confirm(omitHistory bool) bool {
	cand, ok := s.SelectedCandidate()
	if !ok || s.runner == nil {
		return false
	}
	s.runner.ScheduleResolvedTask(cand.Kind, cand.Task, omitHistory)
	return true
}

// ConfirmInput dispatches the raw query as a oneshot task: the prompt is
// both label and command. A whitespace-only prompt does nothing.
func (s *Session) ConfirmInput(omitHistory bool) bool {
	s.mu.Lock()
	prompt := s.query
	s.mu.Unlock()

	kind, resolved, ok := spawnOneshot(prompt, s.context)
	if !ok || s.runner == nil {
		return false
	}
	s.runner.ScheduleResolvedTask(kind, resolved, omitHistory)
	return true
}

// ConfirmCompletion replaces the query with the selected candidate's full
// command line and recomputes matches, letting the user edit the command
// before running it as a oneshot. It returns the new query.
func (s *Session) ConfirmCompletion(ctx context.Context) (string, bool) {
	cand, ok := s.SelectedCandidate()
	if !ok {
		return "", false
	}
	label := cand.Task.Command.Label
	s.UpdateMatches(ctx, label)
	return label, true
}

// DeleteSelected removes the selected entry from the session and from the
// inventory's history. Only oneshot tasks and entries in the history
// partition can be deleted; anything else reports false. The remaining
// candidates are rematched against the current query.
func (s *Session) DeleteSelected(ctx context.Context) bool {
	s.mu.Lock()
	cand, ok := s.candidateAtLocked(s.selected)
	if !ok {
		s.mu.Unlock()
		return false
	}
	ix := s.matches[s.selected].CandidateID
	inHistory := ix <= s.lastUsed
	if !cand.Kind.Deletable() && !inHistory {
		s.mu.Unlock()
		return false
	}

	s.candidates = append(s.candidates[:ix], s.candidates[ix+1:]...)
	if inHistory {
		s.lastUsed--
	}
	s.rebuildSearchableLocked()

	// The old match rows index the list that just shrank. Drop them and
	// supersede any in-flight search before releasing the lock, so no
	// caller can map a stale row onto the edited snapshot.
	s.matches = nil
	s.divider = 0
	s.selected = 0
	s.generation++
	s.serial.ClearCache()
	query := s.query
	s.mu.Unlock()

	s.inventory.DeletePreviouslyUsed(cand.Task.ID)
	s.UpdateMatches(ctx, query)
	return true
}

// beginUpdate records the new query, bumps the generation, and returns the
// searchable snapshot the caller should match against. The snapshot is
// immutable; deletions replace it wholesale. The matcher's cache epoch is
// captured under the same lock that owns the snapshot, so a slow search can
// never cache results over a snapshot that a deletion already replaced.
func (s *Session) beginUpdate(query string) (uint64, uint64, []fuzzy.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.query = query
	s.generation++
	s.ensureCandidatesLocked()
	return s.generation, s.serial.CacheEpoch(), s.searchable
}

// applyMatches installs a computed result unless a newer update superseded
// it. It reports whether the result was applied.
func (s *Session) applyMatches(gen uint64, matches []fuzzy.Match) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	s.matches, s.divider = rankMatches(matches, s.lastUsed)
	s.selected = clampSelection(s.selected, len(s.matches))
	return true
}

func (s *Session) search(ctx context.Context, epoch uint64, query string, candidates []fuzzy.Candidate) []fuzzy.Match {
	if len(candidates) >= parallelThreshold {
		return s.parallel.Match(ctx, query, candidates, s.limit)
	}
	return s.serial.MatchAt(ctx, epoch, query, candidates, s.limit)
}

// ensureCandidatesLocked builds the candidate snapshot on first use: history
// entries first, most recent closest to the divider, then fresh resolutions.
func (s *Session) ensureCandidatesLocked() {
	if s.candidates != nil {
		return
	}

	if s.inventory == nil {
		s.lastUsed = -1
		s.candidates = []task.Candidate{}
		s.rebuildSearchableLocked()
		return
	}

	used, current := s.inventory.UsedAndCurrent(s.worktree, s.location, s.context)
	s.lastUsed = len(used) - 1
	s.candidates = make([]task.Candidate, 0, len(used)+len(current))
	s.candidates = append(s.candidates, used...)
	s.candidates = append(s.candidates, current...)
	s.rebuildSearchableLocked()
}

func (s *Session) rebuildSearchableLocked() {
	s.searchable = make([]fuzzy.Candidate, len(s.candidates))
	for i, cand := range s.candidates {
		s.searchable[i] = fuzzy.NewCandidate(i, cand.Task.DisplayLabel)
	}
}

func (s *Session) candidateAtLocked(matchIndex int) (task.Candidate, bool) {
	if matchIndex < 0 || matchIndex >= len(s.matches) {
		return task.Candidate{}, false
	}
	ix := s.matches[matchIndex].CandidateID
	if ix < 0 || ix >= len(s.candidates) {
		return task.Candidate{}, false
	}
	return s.candidates[ix], true
}

// spawnOneshot resolves a raw prompt into a user-input task. The prompt is
// used verbatim as both label and command; a prompt that substitutes to
// nothing yields no task.
func spawnOneshot(prompt string, ctx task.Context) (task.SourceKind, *task.ResolvedTask, bool) {
	if strings.TrimSpace(prompt) == "" {
		return task.SourceKind{}, nil, false
	}
	tmpl := task.Template{Label: prompt, Command: prompt}
	kind := task.UserInput()
	resolved, ok := task.Resolve(kind, tmpl, ctx)
	if !ok {
		return task.SourceKind{}, nil, false
	}
	return kind, resolved, true
}
