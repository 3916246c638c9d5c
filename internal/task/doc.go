// Package task provides task template resolution and history tracking for
// the Taskpick spawn picker.
//
// A Template is a static, possibly parameterized task definition loaded from
// configuration. Resolving a template against a Context (a snapshot of editor
// state such as the current file, cursor position, and worktree root) yields a
// ResolvedTask: a concrete command line with a stable identity derived from
// the template content and the substituted variable values.
//
// The Inventory owns all registered templates, grouped by SourceKind, plus a
// bounded history of previously scheduled tasks. It produces the combined,
// deduplicated candidate list a picker session works with: recently used
// tasks first, then fresh template resolutions.
//
// # Identity and deduplication
//
// Two resolved tasks are the same task when their source kind, template
// content, and substituted variable values all match. The Inventory relies
// on this when merging history into the current template set: a history
// entry always wins over an identical fresh resolution.
//
// # Thread safety
//
// The Inventory is safe for concurrent use; it is the single canonical owner
// of both templates and history. Resolution itself is pure and needs no
// synchronization.
package task
