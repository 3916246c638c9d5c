package fuzzy

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Options configures a Matcher.
type Options struct {
	// CaseSensitive enables case-sensitive matching. Default is false.
	CaseSensitive bool

	// MinScore is the minimum score for a match to be included.
	MinScore int

	// CacheSize is the maximum number of cached query results. Zero
	// disables caching.
	CacheSize int
}

// DefaultOptions returns sensible defaults for picker use.
func DefaultOptions() Options {
	return Options{
		CaseSensitive: false,
		MinScore:      0,
		CacheSize:     128,
	}
}

// Matcher performs fuzzy subsequence matching over candidate lists.
type Matcher struct {
	mu      sync.RWMutex
	scorer  Scorer
	cache   *Cache
	options Options
}

// NewMatcher creates a matcher with the given options.
func NewMatcher(opts Options) *Matcher {
	var cache *Cache
	if opts.CacheSize > 0 {
		cache = NewCache(opts.CacheSize)
	}
	return &Matcher{
		scorer:  DefaultWeights(),
		cache:   cache,
		options: opts,
	}
}

// SetScorer replaces the scoring algorithm.
func (m *Matcher) SetScorer(scorer Scorer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scorer = scorer
}

// Match finds candidates matching the query and returns results ordered by
// descending score, ties broken by ascending candidate ID. An empty query
// matches every candidate with a zero score, preserving list order. At most
// limit results are returned when limit is positive.
//
// Match returns nil when ctx is canceled before the scan completes.
func (m *Matcher) Match(ctx context.Context, query string, candidates []Candidate, limit int) []Match {
	return m.MatchAt(ctx, m.CacheEpoch(), query, candidates, limit)
}

// MatchAt behaves like Match but caches the result only when epoch still
// matches the query cache's clear generation. Callers that snapshot a
// candidate list capture the epoch alongside the snapshot, so a scan that
// outlives a ClearCache cannot re-populate the cache with match rows
// indexing the replaced list.
func (m *Matcher) MatchAt(ctx context.Context, epoch uint64, query string, candidates []Candidate, limit int) []Match {
	query = m.normalizeQuery(query)
	if query == "" {
		return emptyQueryMatches(candidates, limit)
	}

	if m.cache != nil {
		if cached := m.cache.Get(query); cached != nil {
			return applyLimit(cached, limit)
		}
	}

	queryRunes := []rune(query)
	queryBag := NewCharBag(query)

	matches := make([]Match, 0, len(candidates)/4+1)
	for i, cand := range candidates {
		if i%256 == 0 {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
		}
		if match, ok := m.matchCandidate(queryRunes, queryBag, cand); ok {
			matches = append(matches, match)
		}
	}

	sortMatches(matches)

	if m.cache != nil {
		m.cache.SetAt(epoch, query, matches)
	}

	return applyLimit(matches, limit)
}

// ClearCache drops all cached query results. Callers must do this whenever
// the candidate list the cache was built over changes.
func (m *Matcher) ClearCache() {
	if m.cache != nil {
		m.cache.Clear()
	}
}

// CacheEpoch returns the query cache's clear generation, or zero when
// caching is disabled.
func (m *Matcher) CacheEpoch() uint64 {
	if m.cache == nil {
		return 0
	}
	return m.cache.Epoch()
}

// matchCandidate scores one candidate against the query using a greedy
// left-to-right subsequence scan.
func (m *Matcher) matchCandidate(queryRunes []rune, queryBag CharBag, cand Candidate) (Match, bool) {
	if cand.Text == "" || !cand.Bag.MaySatisfy(queryBag) {
		return Match{}, false
	}

	originalRunes := []rune(cand.Text)
	textRunes := originalRunes
	if !m.options.CaseSensitive {
		textRunes = []rune(strings.ToLower(cand.Text))
	}

	positions := make([]int, 0, len(queryRunes))
	queryIdx := 0
	for i := 0; i < len(textRunes) && queryIdx < len(queryRunes); i++ {
		if textRunes[i] == queryRunes[queryIdx] {
			positions = append(positions, i)
			queryIdx++
		}
	}
	if queryIdx != len(queryRunes) {
		return Match{}, false
	}

	m.mu.RLock()
	scorer := m.scorer
	m.mu.RUnlock()

	score := scorer.Score(queryRunes, originalRunes, textRunes, positions)
	if score <= m.options.MinScore {
		return Match{}, false
	}

	return Match{
		CandidateID: cand.ID,
		Text:        cand.Text,
		Positions:   positions,
		Score:       score,
	}, true
}

func (m *Matcher) normalizeQuery(query string) string {
	if !m.options.CaseSensitive {
		query = strings.ToLower(query)
	}
	return strings.TrimSpace(query)
}

// emptyQueryMatches returns every candidate with a zero score, in order.
func emptyQueryMatches(candidates []Candidate, limit int) []Match {
	count := len(candidates)
	if limit > 0 && limit < count {
		count = limit
	}
	matches := make([]Match, count)
	for i := 0; i < count; i++ {
		matches[i] = Match{
			CandidateID: candidates[i].ID,
			Text:        candidates[i].Text,
		}
	}
	return matches
}

// sortMatches orders by score descending, candidate ID ascending.
func sortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].CandidateID < matches[j].CandidateID
	})
}

func applyLimit(matches []Match, limit int) []Match {
	if limit <= 0 || limit >= len(matches) {
		return matches
	}
	return matches[:limit]
}
