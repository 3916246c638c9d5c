package task

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// displayValueLimit is the maximum rune length a substituted variable value
// may occupy in a display label before its head is elided.
const displayValueLimit = 16

// CommandLine is the fully substituted, executable form of a task.
type CommandLine struct {
	// Program is the command to execute.
	Program string

	// Args are the substituted arguments, in order.
	Args []string

	// Env are the substituted environment variables.
	Env map[string]string

	// Cwd is the substituted working directory. Empty means the caller's
	// default (normally the worktree root).
	Cwd string

	// Label is the command line joined for display and completion, e.g.
	// "echo 4".
	Label string
}

// ResolvedTask is a template resolved against a context: a concrete command
// line with a stable identity. Resolution is deterministic; identical
// (kind, template, substituted values) inputs always produce the same ID.
type ResolvedTask struct {
	// ID uniquely identifies the resolved task for deduplication. It is
	// derived from the source kind's ID base, the template fingerprint, and
	// the substituted variable values.
	ID string

	// Template is the original, unresolved definition.
	Template Template

	// ResolvedLabel is the label with every token substituted in full.
	ResolvedLabel string

	// DisplayLabel is the resolved label with long substituted values elided
	// to fit the picker row. Often equal to ResolvedLabel.
	DisplayLabel string

	// Command is the executable command line.
	Command CommandLine

	// substituted is the number of distinct context variables consumed
	// during resolution; the inventory orders fresh candidates by it.
	substituted int
}

// Resolve substitutes a template against a context. It returns false when
// the substituted command trims to nothing, which is how whitespace-only
// oneshot prompts yield no task. Resolve is pure: no global state, and
// repeated calls with equal inputs return identical results.
func Resolve(kind SourceKind, tmpl Template, ctx Context) (*ResolvedTask, bool) {
	command, used := Expand(tmpl.Command, ctx)
	if strings.TrimSpace(command) == "" {
		return nil, false
	}

	label, usedLabel := Expand(tmpl.Label, ctx)
	used = mergeUsed(used, usedLabel)

	display, _ := expandWith(tmpl.Label, ctx, func(_, value string) string {
		return elideValue(value)
	})

	args := make([]string, 0, len(tmpl.Args))
	for _, arg := range tmpl.Args {
		resolved, usedArg := Expand(arg, ctx)
		used = mergeUsed(used, usedArg)
		args = append(args, resolved)
	}

	var env map[string]string
	if len(tmpl.Env) > 0 {
		env = make(map[string]string, len(tmpl.Env))
		for k, v := range tmpl.Env {
			resolved, usedEnv := Expand(v, ctx)
			used = mergeUsed(used, usedEnv)
			env[k] = resolved
		}
	}

	cwd, usedCwd := Expand(tmpl.Cwd, ctx)
	used = mergeUsed(used, usedCwd)

	return &ResolvedTask{
		ID:            resolvedID(kind, tmpl, used, ctx),
		Template:      tmpl,
		ResolvedLabel: label,
		DisplayLabel:  display,
		Command: CommandLine{
			Program: command,
			Args:    args,
			Env:     env,
			Cwd:     cwd,
			Label:   commandLabel(command, args),
		},
		substituted: len(used),
	}, true
}

// SubstitutedVariables returns how many distinct context variables this
// task consumed when it was resolved.
func (rt *ResolvedTask) SubstitutedVariables() int {
	return rt.substituted
}

// resolvedID derives the stable task identity from the source kind, the
// template content, and the substituted variable values.
func resolvedID(kind SourceKind, tmpl Template, used map[string]struct{}, ctx Context) string {
	h := sha256.New()

	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(ctx[name]))
		h.Write([]byte{0})
	}

	sum := h.Sum(nil)
	return kind.IDBase() + "_" + tmpl.Fingerprint() + "_" + hex.EncodeToString(sum[:8])
}

// elideValue truncates a long substituted value for display, keeping the
// tail: "/very/long/path/to/a.go" becomes "…long/path/to/a.go". Short values
// pass through untouched.
func elideValue(value string) string {
	runes := []rune(value)
	if len(runes) <= displayValueLimit {
		return value
	}
	return "…" + string(runes[len(runes)-displayValueLimit:])
}

// commandLabel joins a substituted command line into a single display
// string, skipping empty arguments.
func commandLabel(program string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, strings.TrimSpace(program))
	for _, arg := range args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}
