// Package picker implements the interactive half of task selection: a modal
// session that fuzzy-matches a query against the inventory's candidates,
// keeps previously used tasks ranked ahead of fresh template resolutions,
// and dispatches the confirmed task to a runner.
//
// A Session snapshots its candidate list once, on the first match
// computation, and reuses it for the session's lifetime; deletions edit the
// snapshot in place rather than requerying the inventory. Match
// recomputation may run on a background goroutine, and a generation counter
// guarantees a superseded computation never overwrites a newer result.
package picker
