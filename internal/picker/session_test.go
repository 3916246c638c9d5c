package picker

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/dshills/taskpick/internal/fuzzy"
	"github.com/dshills/taskpick/internal/task"
)

type scheduledCall struct {
	kind        task.SourceKind
	resolved    *task.ResolvedTask
	omitHistory bool
}

// recordingRunner captures dispatches and mirrors the real scheduler's
// contract: successful runs are recorded in the inventory unless the caller
// asked to omit history.
type recordingRunner struct {
	inventory *task.Inventory
	calls     []scheduledCall
}

func (r *recordingRunner) ScheduleResolvedTask(kind task.SourceKind, resolved *task.ResolvedTask, omitHistory bool) {
	r.calls = append(r.calls, scheduledCall{kind: kind, resolved: resolved, omitHistory: omitHistory})
	if r.inventory != nil && !omitHistory {
		r.inventory.TaskScheduled(kind, resolved)
	}
}

const testWorktree = task.WorktreeID(1)

func newTestInventory(t *testing.T, labels ...string) *task.Inventory {
	t.Helper()
	inv := task.NewInventory(0)
	templates := make([]task.Template, 0, len(labels))
	for _, label := range labels {
		templates = append(templates, task.Template{Label: label, Command: "echo " + label})
	}
	if len(templates) > 0 {
		inv.SetTemplates(task.Worktree(testWorktree), templates)
	}
	return inv
}

func newTestSession(inv *task.Inventory, runner Runner) *Session {
	return NewSession(inv, runner, testWorktree, task.Location{}, nil, Options{})
}

func matchLabels(t *testing.T, s *Session) []string {
	t.Helper()
	matches := s.Matches()
	labels := make([]string, len(matches))
	for i, m := range matches {
		labels[i] = m.Text
	}
	return labels
}

func TestEmptyInventoryYieldsEmptySession(t *testing.T) {
	s := newTestSession(task.NewInventory(0), &recordingRunner{})
	s.UpdateMatches(context.Background(), "")

	if got := len(s.Matches()); got != 0 {
		t.Fatalf("expected no matches, got %d", got)
	}
	if s.Divider() != 0 {
		t.Errorf("expected no divider, got %d", s.Divider())
	}
	if s.Selected() != 0 {
		t.Errorf("expected selection reset to 0, got %d", s.Selected())
	}
	if s.Confirm(false) {
		t.Error("Confirm should report false with nothing selected")
	}
}

func TestEmptyQueryListsTemplatesAlphabetically(t *testing.T) {
	inv := newTestInventory(t, "example task", "another one")
	s := newTestSession(inv, &recordingRunner{inventory: inv})
	s.UpdateMatches(context.Background(), "")

	labels := matchLabels(t, s)
	want := []string{"another one", "example task"}
	if len(labels) != len(want) {
		t.Fatalf("expected %d matches, got %v", len(want), labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("match %d = %q, want %q", i, labels[i], want[i])
		}
	}
	if s.Divider() != 0 {
		t.Errorf("expected no divider without history, got %d", s.Divider())
	}
}

func TestQueryFiltersCandidates(t *testing.T) {
	inv := newTestInventory(t, "example task", "another one")
	s := newTestSession(inv, &recordingRunner{inventory: inv})
	s.UpdateMatches(context.Background(), "tas")

	labels := matchLabels(t, s)
	if len(labels) != 1 || labels[0] != "example task" {
		t.Fatalf("query %q should match only %q, got %v", "tas", "example task", labels)
	}
}

func TestConfirmDispatchesSelectedTaskOnce(t *testing.T) {
	inv := newTestInventory(t, "example task", "another one")
	runner := &recordingRunner{inventory: inv}
	s := newTestSession(inv, runner)
	s.UpdateMatches(context.Background(), "")
	s.SetSelected(1)

	if !s.Confirm(false) {
		t.Fatal("Confirm should succeed with a selection")
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", len(runner.calls))
	}
	call := runner.calls[0]
	if call.resolved.ResolvedLabel != "example task" {
		t.Errorf("dispatched %q, want %q", call.resolved.ResolvedLabel, "example task")
	}
	if call.omitHistory {
		t.Error("omitHistory should pass through as false")
	}
	if inv.HistoryLen() != 1 {
		t.Errorf("expected 1 history entry after confirm, got %d", inv.HistoryLen())
	}
}

func TestConfirmedTaskRanksFirstInNewSession(t *testing.T) {
	inv := newTestInventory(t, "example task", "another one")
	runner := &recordingRunner{inventory: inv}

	first := newTestSession(inv, runner)
	first.UpdateMatches(context.Background(), "")
	first.SetSelected(1)
	if !first.Confirm(false) {
		t.Fatal("Confirm failed")
	}

	second := newTestSession(inv, runner)
	second.UpdateMatches(context.Background(), "")

	labels := matchLabels(t, second)
	want := []string{"example task", "another one"}
	if len(labels) != len(want) {
		t.Fatalf("expected %v, got %v", want, labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("match %d = %q, want %q", i, labels[i], want[i])
		}
	}
	if second.Divider() != 1 {
		t.Errorf("expected divider after 1 history match, got %d", second.Divider())
	}
}

func TestConfirmWithOmitHistoryLeavesHistoryEmpty(t *testing.T) {
	inv := newTestInventory(t, "example task")
	runner := &recordingRunner{inventory: inv}
	s := newTestSession(inv, runner)
	s.UpdateMatches(context.Background(), "")

	if !s.Confirm(true) {
		t.Fatal("Confirm failed")
	}
	if len(runner.calls) != 1 || !runner.calls[0].omitHistory {
		t.Fatal("expected one dispatch with omitHistory set")
	}
	if inv.HistoryLen() != 0 {
		t.Errorf("history should stay empty, got %d entries", inv.HistoryLen())
	}
}

func TestHistoryPartitionOutranksFuzzyScore(t *testing.T) {
	inv := newTestInventory(t, "task runner", "zebra task")
	zebra, ok := task.Resolve(task.Worktree(testWorktree), task.Template{Label: "zebra task", Command: "echo zebra task"}, nil)
	if !ok {
		t.Fatal("resolve failed")
	}
	inv.TaskScheduled(task.Worktree(testWorktree), zebra)

	s := newTestSession(inv, &recordingRunner{inventory: inv})
	s.UpdateMatches(context.Background(), "task")

	labels := matchLabels(t, s)
	want := []string{"zebra task", "task runner"}
	if len(labels) != len(want) {
		t.Fatalf("expected %v, got %v", want, labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("match %d = %q, want %q", i, labels[i], want[i])
		}
	}
	if s.Divider() != 1 {
		t.Errorf("expected divider 1, got %d", s.Divider())
	}
}

func TestConfirmInputSpawnsOneshot(t *testing.T) {
	inv := task.NewInventory(0)
	runner := &recordingRunner{inventory: inv}
	s := newTestSession(inv, runner)
	s.UpdateMatches(context.Background(), "echo 4")

	if !s.ConfirmInput(false) {
		t.Fatal("ConfirmInput should dispatch a non-empty prompt")
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(runner.calls))
	}
	call := runner.calls[0]
	if call.kind.Tag != task.KindUserInput {
		t.Errorf("oneshot kind = %v, want user input", call.kind.Tag)
	}
	if call.resolved.ResolvedLabel != "echo 4" {
		t.Errorf("oneshot label = %q, want %q", call.resolved.ResolvedLabel, "echo 4")
	}
	if call.resolved.Command.Label != "echo 4" {
		t.Errorf("oneshot command label = %q, want %q", call.resolved.Command.Label, "echo 4")
	}
	if inv.HistoryLen() != 1 {
		t.Errorf("oneshot should land in history, got %d entries", inv.HistoryLen())
	}
}

func TestConfirmInputIgnoresWhitespacePrompt(t *testing.T) {
	inv := task.NewInventory(0)
	runner := &recordingRunner{inventory: inv}
	s := newTestSession(inv, runner)
	s.UpdateMatches(context.Background(), "   ")

	if s.ConfirmInput(false) {
		t.Fatal("whitespace-only prompt should not dispatch")
	}
	if len(runner.calls) != 0 {
		t.Fatalf("expected no dispatches, got %d", len(runner.calls))
	}
}

func TestConfirmCompletionReplacesQueryWithCommand(t *testing.T) {
	inv := newTestInventory(t, "example task", "another one")
	s := newTestSession(inv, &recordingRunner{inventory: inv})
	s.UpdateMatches(context.Background(), "")
	s.SetSelected(1)

	got, ok := s.ConfirmCompletion(context.Background())
	if !ok {
		t.Fatal("ConfirmCompletion should succeed with a selection")
	}
	if got != "echo example task" {
		t.Errorf("completion = %q, want %q", got, "echo example task")
	}
	if s.Query() != "echo example task" {
		t.Errorf("query = %q, want the command label", s.Query())
	}
}

func TestConfirmCompletionWithoutSelection(t *testing.T) {
	s := newTestSession(task.NewInventory(0), &recordingRunner{})
	s.UpdateMatches(context.Background(), "")

	if _, ok := s.ConfirmCompletion(context.Background()); ok {
		t.Fatal("ConfirmCompletion should fail with no matches")
	}
}

func TestDeleteSelectedRemovesHistoryEntry(t *testing.T) {
	inv := newTestInventory(t, "example task", "another one")
	runner := &recordingRunner{inventory: inv}

	first := newTestSession(inv, runner)
	first.UpdateMatches(context.Background(), "")
	first.SetSelected(1)
	if !first.Confirm(false) {
		t.Fatal("Confirm failed")
	}

	s := newTestSession(inv, runner)
	s.UpdateMatches(context.Background(), "")
	if s.Divider() != 1 {
		t.Fatalf("expected history divider, got %d", s.Divider())
	}

	s.SetSelected(0)
	if !s.DeleteSelected(context.Background()) {
		t.Fatal("DeleteSelected should remove a history entry")
	}
	if inv.HistoryLen() != 0 {
		t.Errorf("history should be empty after delete, got %d", inv.HistoryLen())
	}
	if s.Divider() != 0 {
		t.Errorf("divider should drop after delete, got %d", s.Divider())
	}

	// The session keeps its snapshot rather than requerying the inventory,
	// so the deleted entry's fresh resolution does not reappear.
	labels := matchLabels(t, s)
	if len(labels) != 1 || labels[0] != "another one" {
		t.Fatalf("expected only %q after delete, got %v", "another one", labels)
	}
}

func TestDeleteSelectedRejectsFreshTemplate(t *testing.T) {
	inv := newTestInventory(t, "example task")
	s := newTestSession(inv, &recordingRunner{inventory: inv})
	s.UpdateMatches(context.Background(), "")

	if s.DeleteSelected(context.Background()) {
		t.Fatal("fresh template resolutions must not be deletable")
	}
	if len(s.Matches()) != 1 {
		t.Fatalf("match list should be unchanged, got %v", matchLabels(t, s))
	}
}

func TestStaleMatchResultIsDiscarded(t *testing.T) {
	inv := newTestInventory(t, "example task", "another one")
	s := newTestSession(inv, &recordingRunner{inventory: inv})
	s.UpdateMatches(context.Background(), "")

	gen, epoch, candidates := s.beginUpdate("another")
	stale := s.search(context.Background(), epoch, "another", candidates)

	// A newer query lands before the older computation applies.
	s.UpdateMatches(context.Background(), "tas")

	if s.applyMatches(gen, stale) {
		t.Fatal("superseded result must not apply")
	}
	labels := matchLabels(t, s)
	if len(labels) != 1 || labels[0] != "example task" {
		t.Fatalf("newer result should win, got %v", labels)
	}
	if s.Query() != "tas" {
		t.Errorf("query = %q, want %q", s.Query(), "tas")
	}
}

func TestUpdateMatchesAsyncApplies(t *testing.T) {
	inv := newTestInventory(t, "example task", "another one")
	s := newTestSession(inv, &recordingRunner{inventory: inv})

	done := make(chan bool, 1)
	s.UpdateMatchesAsync(context.Background(), "tas", func(applied bool) { done <- applied })
	if !<-done {
		t.Fatal("uncontested async update should apply")
	}

	labels := matchLabels(t, s)
	if len(labels) != 1 || labels[0] != "example task" {
		t.Fatalf("expected %q, got %v", "example task", labels)
	}
}

func TestCanceledUpdateKeepsPreviousMatches(t *testing.T) {
	inv := newTestInventory(t, "example task", "another one")
	s := newTestSession(inv, &recordingRunner{inventory: inv})
	s.UpdateMatches(context.Background(), "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.UpdateMatches(ctx, "tas")

	if got := len(s.Matches()); got != 2 {
		t.Fatalf("canceled update should keep previous matches, got %d", got)
	}
}

// gateScorer delegates scoring but parks one chosen call until released,
// holding a match computation in flight while the test mutates the session.
type gateScorer struct {
	inner    fuzzy.Scorer
	blockOn  int32
	calls    atomic.Int32
	entered  chan struct{}
	released chan struct{}
}

func newGateScorer(blockOn int32) *gateScorer {
	return &gateScorer{
		inner:    fuzzy.DefaultWeights(),
		blockOn:  blockOn,
		entered:  make(chan struct{}),
		released: make(chan struct{}),
	}
}

func (g *gateScorer) Score(queryRunes, originalRunes, textRunes []rune, positions []int) int {
	if g.calls.Add(1) == g.blockOn {
		close(g.entered)
		<-g.released
	}
	return g.inner.Score(queryRunes, originalRunes, textRunes, positions)
}

// newHistorySession returns a session whose snapshot has "build target 00"
// in the history partition and "build target 01" as a fresh resolution.
func newHistorySession(t *testing.T) *Session {
	t.Helper()
	inv := newTestInventory(t, "build target 00", "build target 01")
	runner := &recordingRunner{inventory: inv}

	seed := newTestSession(inv, runner)
	seed.UpdateMatches(context.Background(), "")
	if !seed.Confirm(false) {
		t.Fatal("Confirm failed")
	}
	return newTestSession(inv, runner)
}

func TestSupersededSearchDoesNotPoisonQueryCache(t *testing.T) {
	s := newHistorySession(t)
	s.UpdateMatches(context.Background(), "")

	gate := newGateScorer(1)
	s.serial.SetScorer(gate)

	applied := make(chan bool, 1)
	s.UpdateMatchesAsync(context.Background(), "build", func(ok bool) { applied <- ok })
	<-gate.entered

	// The deletion replaces the snapshot and rematches while the older
	// search is still scanning the list that just shrank.
	if !s.DeleteSelected(context.Background()) {
		t.Fatal("DeleteSelected failed")
	}
	close(gate.released)
	if <-applied {
		t.Fatal("superseded search must not apply")
	}

	// A repeat query is served from the cache; its rows must index the
	// post-deletion candidate list.
	s.UpdateMatches(context.Background(), "build")
	matches := s.Matches()
	if len(matches) != 1 || matches[0].Text != "build target 01" {
		t.Fatalf("expected only %q, got %v", "build target 01", matchLabels(t, s))
	}
	cand, ok := s.MatchCandidate(0)
	if !ok {
		t.Fatal("match row has no candidate")
	}
	if cand.Task.DisplayLabel != matches[0].Text {
		t.Fatalf("row shows %q but maps to %q", matches[0].Text, cand.Task.DisplayLabel)
	}
}

func TestDeleteSelectedHidesStaleRowsDuringRematch(t *testing.T) {
	s := newHistorySession(t)
	s.UpdateMatches(context.Background(), "build")

	gate := newGateScorer(1)
	s.serial.SetScorer(gate)

	done := make(chan bool)
	go func() { done <- s.DeleteSelected(context.Background()) }()
	<-gate.entered

	// The snapshot has been edited but the rematch has not finished. No
	// reader may map the old match rows onto the shrunk candidate list.
	if cand, ok := s.SelectedCandidate(); ok {
		t.Fatalf("stale selection visible during rematch: %q", cand.Task.DisplayLabel)
	}
	close(gate.released)
	if !<-done {
		t.Fatal("DeleteSelected failed")
	}

	labels := matchLabels(t, s)
	if len(labels) != 1 || labels[0] != "build target 01" {
		t.Fatalf("expected only %q after delete, got %v", "build target 01", labels)
	}
}

func TestNilInventoryDegradesToEmpty(t *testing.T) {
	s := NewSession(nil, nil, testWorktree, task.Location{}, nil, Options{})
	s.UpdateMatches(context.Background(), "build")

	if got := len(s.Matches()); got != 0 {
		t.Fatalf("expected no matches, got %d", got)
	}
	if s.Divider() != 0 {
		t.Errorf("expected no divider, got %d", s.Divider())
	}
	if _, ok := s.SelectedCandidate(); ok {
		t.Error("no candidate should be selectable")
	}
	if s.Confirm(false) {
		t.Error("Confirm should report false")
	}
	if s.DeleteSelected(context.Background()) {
		t.Error("DeleteSelected should report false")
	}
}

func TestSelectionClamping(t *testing.T) {
	inv := newTestInventory(t, "example task", "another one")
	s := newTestSession(inv, &recordingRunner{inventory: inv})
	s.UpdateMatches(context.Background(), "")

	s.SetSelected(5)
	if s.Selected() != 1 {
		t.Errorf("selection should clamp to last row, got %d", s.Selected())
	}
	s.SetSelected(-3)
	if s.Selected() != 0 {
		t.Errorf("negative selection should clamp to 0, got %d", s.Selected())
	}

	s.SetSelected(1)
	s.UpdateMatches(context.Background(), "tas")
	if s.Selected() != 0 {
		t.Errorf("selection should clamp after the match list shrinks, got %d", s.Selected())
	}
}
