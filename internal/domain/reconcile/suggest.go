package reconcile

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/normalizer"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
)

const (
	amountWeight = 50
	nameWeight   = 40
	dateWeight   = 10
	// shortest name token worth comparing; "DE", "LA" and the like are skipped
	minTokenLen = 3
)

// Suggestion is a near-miss offered to the user when no obligation matched.
type Suggestion struct {
	Obligation ledger.PendingObligation `json:"obligation"`
	Evidence   Evidence                 `json:"evidence"`
	// NameSimilarity is the share of name tokens found in the text, allowing one typo per token.
	NameSimilarity float64 `json:"name_similarity"`
	Score          int     `json:"score"`
}

// Suggest ranks pending obligations by partial evidence in text, best first.
// Obligations with no evidence at all are left out.
func Suggest(text string, pending []ledger.PendingObligation, limit int) []Suggestion {
	norm := normalizer.Normalize(text)
	words := strings.FieldsFunc(norm, isSeparator)

	var out []Suggestion
	for _, o := range pending {
		e := evaluate(norm, nil, o)
		similarity := nameSimilarity(o.Source.Name, words)
		if e.Name {
			similarity = 1
		}

		score := int(similarity * nameWeight)
		if e.Amount {
			score += amountWeight
		}
		if e.Date {
			score += dateWeight
		}
		if score == 0 {
			continue
		}

		out = append(out, Suggestion{
			Obligation:     o,
			Evidence:       e,
			NameSimilarity: similarity,
			Score:          score,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func nameSimilarity(name string, words []string) float64 {
	var tokens []string
	for _, t := range strings.FieldsFunc(normalizer.Normalize(name), isSeparator) {
		if len(t) >= minTokenLen {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 || len(words) == 0 {
		return 0
	}

	found := 0
	for _, token := range tokens {
		for _, w := range words {
			if fuzzy.Match(token, w) || fuzzy.LevenshteinDistance(token, w) <= 1 {
				found++
				break
			}
		}
	}
	return float64(found) / float64(len(tokens))
}

func isSeparator(r rune) bool {
	return !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != 'Ñ'
}
