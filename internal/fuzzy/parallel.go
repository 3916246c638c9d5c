package fuzzy

import (
	"container/heap"
	"context"
	"runtime"
	"sync"
)

// ParallelMatcher spreads matching across a worker pool for large candidate
// sets. Each worker keeps a bounded top-k heap so memory stays proportional
// to the result cap, not the candidate count.
type ParallelMatcher struct {
	matcher    *Matcher
	numWorkers int
}

// NewParallelMatcher wraps a matcher with a worker pool. A non-positive
// numWorkers defaults to runtime.NumCPU(). Panics when matcher is nil.
func NewParallelMatcher(matcher *Matcher, numWorkers int) *ParallelMatcher {
	if matcher == nil {
		panic("fuzzy: NewParallelMatcher called with nil matcher")
	}
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &ParallelMatcher{matcher: matcher, numWorkers: numWorkers}
}

// Match behaves like Matcher.Match but scans candidate chunks in parallel.
// Returns nil when ctx is canceled before the merge completes.
func (p *ParallelMatcher) Match(ctx context.Context, query string, candidates []Candidate, limit int) []Match {
	query = p.matcher.normalizeQuery(query)
	if query == "" {
		return emptyQueryMatches(candidates, limit)
	}

	queryRunes := []rune(query)
	queryBag := NewCharBag(query)

	chunkSize := (len(candidates) + p.numWorkers - 1) / p.numWorkers
	minChunk := 64
	if len(candidates) < 1024 {
		minChunk = 16
	}
	if chunkSize < minChunk {
		chunkSize = minChunk
	}

	// Each worker keeps extra headroom so the merge still has the global
	// top results available after combining chunks.
	workerLimit := limit
	if workerLimit > 0 {
		workerLimit = limit * 2
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		collected []Match
	)

	for start := 0; start < len(candidates); start += chunkSize {
		end := start + chunkSize
		if end > len(candidates) {
			end = len(candidates)
		}

		wg.Add(1)
		go func(chunk []Candidate) {
			defer wg.Done()
			local := p.matchChunk(ctx, queryRunes, queryBag, chunk, workerLimit)
			mu.Lock()
			collected = append(collected, local...)
			mu.Unlock()
		}(candidates[start:end])
	}
	wg.Wait()

	select {
	case <-ctx.Done():
		return nil
	default:
	}

	sortMatches(collected)
	return applyLimit(collected, limit)
}

// matchChunk scans one chunk, keeping at most k matches in a min-heap.
func (p *ParallelMatcher) matchChunk(ctx context.Context, queryRunes []rune, queryBag CharBag, chunk []Candidate, k int) []Match {
	h := &matchHeap{}
	heap.Init(h)

	var all []Match
	for i, cand := range chunk {
		if i%256 == 0 {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
		}

		match, ok := p.matcher.matchCandidate(queryRunes, queryBag, cand)
		if !ok {
			continue
		}

		if k <= 0 {
			all = append(all, match)
			continue
		}

		if h.Len() < k {
			heap.Push(h, match)
		} else if match.Score > (*h)[0].Score {
			(*h)[0] = match
			heap.Fix(h, 0)
		}
	}

	if k <= 0 {
		return all
	}
	return h.toSlice()
}

// matchHeap is a min-heap of matches by score, used for top-k selection.
type matchHeap []Match

func (h matchHeap) Len() int           { return len(h) }
func (h matchHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h matchHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *matchHeap) Push(x any) {
	*h = append(*h, x.(Match))
}

func (h *matchHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func (h *matchHeap) toSlice() []Match {
	out := make([]Match, len(*h))
	copy(out, *h)
	return out
}
