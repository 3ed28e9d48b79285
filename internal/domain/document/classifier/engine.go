package classifier

import (
	"sync"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/normalizer"
)

// keywordRef points a matched keyword back at the pattern that owns it.
type keywordRef struct {
	pattern int
	keyword string
}

// Engine matches every keyword of every pattern in a single pass over the
// text using an Aho-Corasick automaton. Keywords shared by several patterns
// (e.g. "ESTADO DE CUENTA") are stored once and credited to each owner.
type Engine struct {
	matcher  *ahocorasick.Matcher
	keywords []string       // unique normalized keywords in matcher order
	owners   [][]keywordRef // owners[i] lists the patterns that declare keywords[i]
	totals   []int          // keyword count per pattern
	mu       sync.Mutex     // the matcher keeps per-call state
}

// NewEngine compiles patterns into a matcher.
func NewEngine(patterns []Pattern) *Engine {
	e := &Engine{}
	e.Build(patterns)
	return e
}

// Build (re)compiles the automaton. Duplicate keywords within one pattern count once.
func (e *Engine) Build(patterns []Pattern) {
	e.mu.Lock()
	defer e.mu.Unlock()

	index := make(map[string]int)
	keywords := make([]string, 0)
	owners := make([][]keywordRef, 0)
	totals := make([]int, len(patterns))

	for pi, p := range patterns {
		seen := make(map[string]struct{}, len(p.Keywords))
		for _, raw := range p.Keywords {
			kw := normalizer.Normalize(raw)
			if kw == "" {
				continue
			}
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}
			totals[pi]++

			idx, exists := index[kw]
			if !exists {
				idx = len(keywords)
				index[kw] = idx
				keywords = append(keywords, kw)
				owners = append(owners, nil)
			}
			owners[idx] = append(owners[idx], keywordRef{pattern: pi, keyword: raw})
		}
	}

	e.keywords = keywords
	e.owners = owners
	e.totals = totals

	if len(keywords) == 0 {
		e.matcher = nil
		return
	}

	byteKeywords := make([][]byte, len(keywords))
	for i, kw := range keywords {
		byteKeywords[i] = []byte(kw)
	}
	e.matcher = ahocorasick.NewMatcher(byteKeywords)
}

// Hits runs the automaton over already-normalized text and returns, per
// pattern index, the declared keywords that were found.
func (e *Engine) Hits(normalized string) map[int][]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	hits := make(map[int][]string)
	if e.matcher == nil || normalized == "" {
		return hits
	}

	seen := make(map[int]struct{})
	for _, idx := range e.matcher.Match([]byte(normalized)) {
		if idx < 0 || idx >= len(e.owners) {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		for _, ref := range e.owners[idx] {
			hits[ref.pattern] = append(hits[ref.pattern], ref.keyword)
		}
	}
	return hits
}

// Total returns how many distinct keywords pattern pi declares.
func (e *Engine) Total(pi int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pi < 0 || pi >= len(e.totals) {
		return 0
	}
	return e.totals[pi]
}
