// Package classifier assigns transcribed documents to the known document types
// by keyword evidence. Every type with at least one keyword present is reported,
// scored by how much of its vocabulary appears.
package classifier

import (
	"sort"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/document"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/extractor"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/normalizer"
)

// Result is one candidate classification of a document.
type Result struct {
	Type            document.Type     `json:"type"`
	Category        document.Category `json:"category"`
	Confidence      float64           `json:"confidence"`
	MatchedKeywords []string          `json:"matched_keywords,omitempty"`
	Details         *extractor.Fields `json:"details"`
}

// IsUnknown reports whether r is the "nothing matched" sentinel.
func (r Result) IsUnknown() bool {
	return r.Type == document.TypeUnknown
}

// Unknown is returned alone when no pattern matches.
func Unknown() Result {
	return Result{
		Type:       document.TypeUnknown,
		Category:   document.CategoryUnclassified,
		Confidence: 0,
		Details:    nil,
	}
}

// Classifier scores text against a pattern library.
type Classifier struct {
	patterns []Pattern
	engine   *Engine
}

// New builds a classifier over the given patterns.
func New(patterns []Pattern) *Classifier {
	return &Classifier{
		patterns: patterns,
		engine:   NewEngine(patterns),
	}
}

// NewDefault builds a classifier over DefaultPatterns.
func NewDefault() *Classifier {
	return New(DefaultPatterns())
}

// Classify returns every matched type sorted by descending confidence, ties in
// library order. The slice is never empty: with no match it holds Unknown().
func (c *Classifier) Classify(raw string) []Result {
	hits := c.engine.Hits(normalizer.Normalize(raw))
	if len(hits) == 0 {
		return []Result{Unknown()}
	}

	results := make([]Result, 0, len(hits))
	for pi, p := range c.patterns {
		found, ok := hits[pi]
		if !ok {
			continue
		}
		total := c.engine.Total(pi)
		if total == 0 {
			continue
		}
		results = append(results, Result{
			Type:            p.Type,
			Category:        p.Category,
			Confidence:      float64(len(found)) / float64(total) * 100,
			MatchedKeywords: found,
			Details:         extractor.Extract(raw, p.Type),
		})
	}

	if len(results) == 0 {
		return []Result{Unknown()}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results
}

// Best returns the top-ranked result, or Unknown() for an empty slice.
func Best(results []Result) Result {
	if len(results) == 0 {
		return Unknown()
	}
	return results[0]
}

// ForType builds a manually assigned classification: full confidence and
// fields extracted with the chosen type.
func ForType(raw string, t document.Type) Result {
	if t == document.TypeUnknown {
		return Unknown()
	}
	for _, p := range DefaultPatterns() {
		if p.Type == t {
			return Result{
				Type:       t,
				Category:   p.Category,
				Confidence: 100,
				Details:    extractor.Extract(raw, t),
			}
		}
	}
	return Unknown()
}
