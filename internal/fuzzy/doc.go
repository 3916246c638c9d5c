// Package fuzzy provides fuzzy string matching for the task picker.
//
// Matching operates on Candidates: indexed display strings with a
// precomputed character bag used to cheaply reject strings that cannot
// possibly contain the query as a subsequence. Matches carry the rune
// positions of the matched characters for highlighting, plus a score.
//
// Results are ordered by descending score with ties broken by ascending
// candidate ID, so equal-scoring candidates keep their list order.
//
// # Scoring
//
// The scorer favors consecutive runs, matches at word boundaries (spaces,
// punctuation, camelCase transitions), query-at-prefix matches, and shorter
// texts, and penalizes gaps and late first matches.
//
// # Cancellation
//
// Match accepts a context and returns early when it is canceled; a canceled
// computation yields no results. Superseding a stale computation is the
// caller's job (the picker session guards applications with a generation
// counter).
//
// # Thread safety
//
// Matcher and ParallelMatcher are safe for concurrent use. The query cache
// is internally synchronized; callers must clear it when the candidate set
// it was built over changes.
package fuzzy
