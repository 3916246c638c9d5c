package fuzzy

import "unicode"

// Scorer calculates match scores. Higher scores indicate better matches.
type Scorer interface {
	// Score rates a subsequence match.
	//
	// Parameters:
	//   - queryRunes: the normalized query runes
	//   - originalRunes: original text runes (preserves case)
	//   - textRunes: normalized text runes (lowercase when case-insensitive)
	//   - positions: rune indices of matched characters in the text
	Score(queryRunes, originalRunes, textRunes []rune, positions []int) int
}

// Weights is a configurable scoring algorithm.
type Weights struct {
	// BaseScore is the starting score for any match.
	BaseScore int

	// ConsecutiveBonus is added for each consecutive character match.
	ConsecutiveBonus int

	// WordBoundaryBonus is added for matches at word boundaries.
	WordBoundaryBonus int

	// PrefixBonus is added when the first match is at position 0.
	PrefixBonus int

	// ExactPrefixBonus is added when the query matches the start of the
	// text exactly.
	ExactPrefixBonus int

	// GapPenalty is subtracted per gap character between matches.
	GapPenalty int

	// LeadingPenalty is subtracted per character before the first match.
	LeadingPenalty int

	// LengthBonusThreshold grants shorter texts a bonus up to this length.
	LengthBonusThreshold int
}

// DefaultWeights returns the weights tuned for task labels.
func DefaultWeights() Weights {
	return Weights{
		BaseScore:            100,
		ConsecutiveBonus:     20,
		WordBoundaryBonus:    15,
		PrefixBonus:          25,
		ExactPrefixBonus:     50,
		GapPenalty:           2,
		LeadingPenalty:       1,
		LengthBonusThreshold: 20,
	}
}

// Score implements the Scorer interface.
func (w Weights) Score(queryRunes, originalRunes, textRunes []rune, positions []int) int {
	if len(positions) == 0 {
		return 0
	}

	score := w.BaseScore

	for i := 1; i < len(positions); i++ {
		if positions[i] == positions[i-1]+1 {
			score += w.ConsecutiveBonus
		}
	}

	for _, idx := range positions {
		if isWordBoundary(originalRunes, idx) {
			score += w.WordBoundaryBonus
		}
	}

	if positions[0] == 0 {
		score += w.PrefixBonus
	}

	if len(positions) > 1 {
		totalGap := positions[len(positions)-1] - positions[0] - len(positions) + 1
		if totalGap > 0 {
			score -= totalGap * w.GapPenalty
		}
	}

	if positions[0] > 0 {
		score -= positions[0] * w.LeadingPenalty
	}

	if len(textRunes) < w.LengthBonusThreshold {
		score += w.LengthBonusThreshold - len(textRunes)
	}

	if len(textRunes) >= len(queryRunes) {
		isPrefix := true
		for i, qr := range queryRunes {
			if textRunes[i] != qr {
				isPrefix = false
				break
			}
		}
		if isPrefix {
			score += w.ExactPrefixBonus
		}
	}

	if score < 1 {
		score = 1
	}
	return score
}

// isWordBoundary reports whether the rune at idx starts a word: the text
// start, after space or punctuation, or a camelCase transition.
func isWordBoundary(runes []rune, idx int) bool {
	if idx == 0 {
		return true
	}
	if idx >= len(runes) {
		return false
	}

	prev, curr := runes[idx-1], runes[idx]
	if unicode.IsSpace(prev) || unicode.IsPunct(prev) {
		return true
	}
	if unicode.IsLower(prev) && unicode.IsUpper(curr) {
		return true
	}
	return false
}
