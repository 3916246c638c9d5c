package task

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Template is a static task definition. Label, Command, Args and Env values
// may contain substitution tokens ($NAME or ${NAME}). Templates are immutable
// once loaded; resolution never modifies them.
type Template struct {
	// Label is the human-readable name shown in the picker.
	Label string

	// Command is the program to execute.
	Command string

	// Args are the command arguments, in order.
	Args []string

	// Env are environment variables set for the task.
	Env map[string]string

	// Cwd is the working directory. Empty means the worktree root.
	Cwd string

	// AllowConcurrentRuns permits multiple simultaneous executions.
	AllowConcurrentRuns bool
}

// Fingerprint returns a stable digest of the template content. Templates
// with identical labels, commands, arguments, and environments share a
// fingerprint regardless of load order.
func (t Template) Fingerprint() string {
	h := sha256.New()
	writeField := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}

	writeField(t.Label)
	writeField(t.Command)
	for _, arg := range t.Args {
		writeField(arg)
	}

	keys := make([]string, 0, len(t.Env))
	for k := range t.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeField(k)
		writeField(t.Env[k])
	}
	writeField(t.Cwd)

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8])
}
