package picker

import (
	"sort"

	"github.com/dshills/taskpick/internal/fuzzy"
)

// rankMatches orders matches so entries from the history partition of the
// candidate list come before fresh template resolutions. lastUsed is the
// index of the last history candidate, or -1 when the session has no
// history. The fuzzy ordering is preserved within each partition, so a
// lower-scoring history match still outranks every fresh match.
//
// The returned divider is the number of leading history matches; zero means
// no divider row is drawn.
func rankMatches(matches []fuzzy.Match, lastUsed int) (ranked []fuzzy.Match, divider int) {
	if lastUsed < 0 {
		return matches, 0
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CandidateID <= lastUsed && matches[j].CandidateID > lastUsed
	})
	for _, m := range matches {
		if m.CandidateID > lastUsed {
			break
		}
		divider++
	}
	return matches, divider
}

// clampSelection keeps the selected row inside the match list: an empty list
// resets the selection to zero, otherwise the selection is capped at the
// last row.
func clampSelection(selected, matchCount int) int {
	if matchCount == 0 {
		return 0
	}
	if selected < 0 {
		return 0
	}
	if selected >= matchCount {
		return matchCount - 1
	}
	return selected
}
