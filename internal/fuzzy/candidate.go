package fuzzy

// CharBag is a bitset over the characters [a-z0-9] present in a string,
// case-folded. It answers "could this text possibly contain the query as a
// subsequence?" without scanning the text: if the query uses a letter the
// bag lacks, no match is possible. Characters outside [a-z0-9] are not
// tracked and never cause rejection.
type CharBag uint64

// NewCharBag computes the character bag for a string.
func NewCharBag(s string) CharBag {
	var bag CharBag
	for _, r := range s {
		if bit, ok := bagBit(r); ok {
			bag |= bit
		}
	}
	return bag
}

// MaySatisfy reports whether a text with this bag could contain every
// tracked character of the query bag.
func (b CharBag) MaySatisfy(query CharBag) bool {
	return b&query == query
}

func bagBit(r rune) (CharBag, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return 1 << (r - 'a'), true
	case r >= 'A' && r <= 'Z':
		return 1 << (r - 'A'), true
	case r >= '0' && r <= '9':
		return 1 << (26 + r - '0'), true
	default:
		return 0, false
	}
}

// Candidate is a searchable entry: an index into the caller's list, the
// display string to match against, and its precomputed character bag.
type Candidate struct {
	// ID is the caller's index for this candidate. Ties between
	// equal-scoring matches are broken by ascending ID.
	ID int

	// Text is the string matched and displayed.
	Text string

	// Bag is the precomputed character bag of Text.
	Bag CharBag
}

// NewCandidate builds a candidate with its character bag precomputed.
func NewCandidate(id int, text string) Candidate {
	return Candidate{ID: id, Text: text, Bag: NewCharBag(text)}
}

// Match is one scored result of a query over a candidate list.
type Match struct {
	// CandidateID is the ID of the matched candidate.
	CandidateID int

	// Text is the matched candidate's display string.
	Text string

	// Positions holds the rune indices of the matched characters, for
	// highlighting.
	Positions []int

	// Score ranks the match; higher is better.
	Score int
}
