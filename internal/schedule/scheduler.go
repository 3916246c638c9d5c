package schedule

import (
	"context"
	"errors"
	"fmt"
	"os"
	osexec "os/exec"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/taskpick/internal/task"
)

// Common errors.
var (
	ErrNilTask        = errors.New("cannot schedule a nil task")
	ErrAlreadyRunning = errors.New("task is already running and does not allow concurrent runs")
)

// HistoryRecorder receives a notification for every successfully started,
// non-omitted run. *task.Inventory satisfies it.
type HistoryRecorder interface {
	TaskScheduled(kind task.SourceKind, resolved *task.ResolvedTask)
}

// Config configures a scheduler.
type Config struct {
	// Shell is the shell used to run command lines. Empty selects $SHELL,
	// falling back to /bin/sh.
	Shell string

	// WorkingDir is the directory runs execute in when the task does not
	// set its own. Empty means the scheduler process's directory.
	WorkingDir string
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return Config{Shell: shell}
}

// Scheduler spawns confirmed tasks as OS processes. Each run executes the
// task's command line through the shell, inherits the scheduler's
// environment overlaid with the task's, and is tracked until it exits.
type Scheduler struct {
	config  Config
	history HistoryRecorder

	mu     sync.RWMutex
	runs   map[string]*Run
	onExit []func(*Run)
}

// NewScheduler creates a scheduler that records successful schedules with
// history. history may be nil when no usage history is kept.
func NewScheduler(history HistoryRecorder, config Config) *Scheduler {
	if config.Shell == "" {
		config.Shell = DefaultConfig().Shell
	}
	return &Scheduler{
		config:  config,
		history: history,
		runs:    make(map[string]*Run),
	}
}

// OnRunExit registers a callback invoked after a run finishes. Callbacks run
// on the run's reaper goroutine and must not block.
func (s *Scheduler) OnRunExit(fn func(*Run)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExit = append(s.onExit, fn)
}

// Start spawns a run for a resolved task. The history recorder is notified
// exactly once, after the process starts, unless omitHistory is set. A task
// that does not allow concurrent runs fails with ErrAlreadyRunning while a
// previous run of the same resolved ID is live.
func (s *Scheduler) Start(ctx context.Context, kind task.SourceKind, resolved *task.ResolvedTask, omitHistory bool) (*Run, error) {
	if resolved == nil {
		return nil, ErrNilTask
	}
	if !resolved.Template.AllowConcurrentRuns && s.hasLiveRun(resolved.ID) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, resolved.ResolvedLabel)
	}

	runCtx, cancel := context.WithCancel(ctx)
	cmd := osexec.CommandContext(runCtx, s.config.Shell, "-c", resolved.Command.Label)
	cmd.Env = mergedEnv(resolved.Command.Env)
	if resolved.Command.Cwd != "" {
		cmd.Dir = resolved.Command.Cwd
	} else if s.config.WorkingDir != "" {
		cmd.Dir = s.config.WorkingDir
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %q: %w", resolved.Command.Label, err)
	}

	run := &Run{
		ID:        uuid.New().String(),
		Kind:      kind,
		Task:      resolved,
		StartTime: time.Now(),
		cmd:       cmd,
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     RunStateRunning,
		exitCode:  -1,
	}

	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()

	if !omitHistory && s.history != nil {
		s.history.TaskScheduled(kind, resolved)
	}

	go s.reap(runCtx, run)
	return run, nil
}

// ScheduleResolvedTask dispatches a confirmed task without handing the run
// back, satisfying the picker's runner contract. Spawn failures surface
// through the returned runs of Start; here they are dropped, matching a
// fire-and-forget confirm.
func (s *Scheduler) ScheduleResolvedTask(kind task.SourceKind, resolved *task.ResolvedTask, omitHistory bool) {
	_, _ = s.Start(context.Background(), kind, resolved, omitHistory)
}

// Run returns a run by ID.
func (s *Scheduler) Run(id string) (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}

// Runs returns all tracked runs, including finished ones, ordered by start
// time.
func (s *Scheduler) Runs() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// KillAll cancels every live run.
func (s *Scheduler) KillAll() {
	for _, run := range s.Runs() {
		run.Kill()
	}
}

func (s *Scheduler) hasLiveRun(taskID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, run := range s.runs {
		if run.Task.ID == taskID && run.State() == RunStateRunning {
			return true
		}
	}
	return false
}

func (s *Scheduler) reap(runCtx context.Context, run *Run) {
	err := run.cmd.Wait()

	exitCode := 0
	if run.cmd.ProcessState != nil {
		exitCode = run.cmd.ProcessState.ExitCode()
	}
	run.finish(runCtx.Err() != nil, exitCode, err)

	s.mu.RLock()
	listeners := make([]func(*Run), len(s.onExit))
	copy(listeners, s.onExit)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(run)
	}
}

// mergedEnv overlays the task's environment on the process environment,
// with task values sorted for deterministic command construction.
func mergedEnv(taskEnv map[string]string) []string {
	env := os.Environ()
	if len(taskEnv) == 0 {
		return env
	}

	keys := make([]string, 0, len(taskEnv))
	for k := range taskEnv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+taskEnv[k])
	}
	return env
}
