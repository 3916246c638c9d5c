// Package schedule is the execution collaborator: it spawns confirmed tasks
// as OS processes, tracks them by run ID, and records each successful
// schedule in the usage history exactly once.
package schedule

import (
	"context"
	osexec "os/exec"
	"sync"
	"time"

	"github.com/dshills/taskpick/internal/task"
)

// RunState is the lifecycle state of a scheduled run.
type RunState string

const (
	// RunStateRunning indicates the process has started and not yet exited.
	RunStateRunning RunState = "running"
	// RunStateSucceeded indicates the process exited with code 0.
	RunStateSucceeded RunState = "succeeded"
	// RunStateFailed indicates the process exited with a non-zero code.
	RunStateFailed RunState = "failed"
	// RunStateKilled indicates the run was canceled before the process exited.
	RunStateKilled RunState = "killed"
)

// Run is one scheduled task execution.
type Run struct {
	// ID uniquely identifies this run.
	ID string

	// Kind is the source kind the task was confirmed under.
	Kind task.SourceKind

	// Task is the resolved task being executed.
	Task *task.ResolvedTask

	// StartTime is when the process started.
	StartTime time.Time

	cmd    *osexec.Cmd
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.RWMutex
	state    RunState
	exitCode int
	err      error
}

// Done returns a channel closed when the run finishes.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run finishes and returns its error, if any.
func (r *Run) Wait() error {
	<-r.done
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// State returns the run's current lifecycle state.
func (r *Run) State() RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// ExitCode returns the process exit code, or -1 while the run is live.
func (r *Run) ExitCode() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exitCode
}

// Kill cancels the run, terminating the process. Killing a finished run is
// a no-op.
func (r *Run) Kill() {
	r.cancel()
}

func (r *Run) finish(canceled bool, exitCode int, err error) {
	r.mu.Lock()
	switch {
	case canceled:
		r.state = RunStateKilled
	case err != nil:
		r.state = RunStateFailed
	default:
		r.state = RunStateSucceeded
	}
	r.exitCode = exitCode
	r.err = err
	r.mu.Unlock()

	close(r.done)
}
