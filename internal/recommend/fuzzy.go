package recommend

import (
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/bookwhisperer/bookwhisperer/internal/models"
)

// FuzzyMatcher scores book titles against a free-text query using
// token-set ratio matching, which compares the word sets of query and
// title after normalization and so tolerates reordering and partial
// overlap. It is independent of the vectorizer.
type FuzzyMatcher struct {
	floor      int
	multiplier int
}

// NewFuzzyMatcher creates a matcher. floor is the minimum ratio in
// [0, 100] a title must reach to be considered at all. multiplier
// controls how many candidates are generated per requested result
// (multiplier * topN), leaving headroom for history exclusion without
// re-querying.
func NewFuzzyMatcher(floor, multiplier int) *FuzzyMatcher {
	if floor <= 0 {
		floor = 80
	}
	if multiplier <= 0 {
		multiplier = 3
	}
	return &FuzzyMatcher{floor: floor, multiplier: multiplier}
}

type fuzzyCandidate struct {
	ScoredBook
	// literal is the plain edit ratio, used only to order candidates
	// with equal token-set ratios. Token-set matching scores a title
	// whose word set is contained in the query at 100, so "Dune" and
	// "Dune Messiah" both hit 100 for the query "dune messiah"; the
	// literal ratio puts the full title first.
	literal int
}

// Match returns up to multiplier*topN candidates whose title scores at
// least floor against query, in descending token-set ratio order. Ties
// break toward the closer literal match, then corpus order. An empty
// query matches no title perfectly and typically yields nothing.
func (m *FuzzyMatcher) Match(query string, books []*models.Book, topN int) []ScoredBook {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	candidates := make([]fuzzyCandidate, 0, len(books))
	for i, book := range books {
		ratio := fuzzy.TokenSetRatio(query, book.Title)
		if ratio < m.floor {
			continue
		}
		candidates = append(candidates, fuzzyCandidate{
			ScoredBook: ScoredBook{Index: i, Book: book, Score: float64(ratio)},
			literal:    fuzzy.Ratio(query, book.Title),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].literal > candidates[j].literal
	})

	limit := m.multiplier * topN
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	matches := make([]ScoredBook, len(candidates))
	for i, c := range candidates {
		matches[i] = c.ScoredBook
	}
	return matches
}
