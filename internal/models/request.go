package models

import (
	"errors"
	"fmt"
)

// Recommendation strategies.
const (
	// StrategyContent ranks by similarity to the reader's profile built
	// from past recommendations (or by document distinctiveness when
	// there is no history).
	StrategyContent = "content"
	// StrategyQuery ranks by similarity to a free-text query.
	StrategyQuery = "query"
	// StrategyFuzzy ranks by fuzzy title matching, falling back to
	// StrategyQuery when nothing clears the match floor.
	StrategyFuzzy = "fuzzy"
)

// ErrInvalidRequest is returned when a recommendation request fails
// boundary validation. No scoring work happens for an invalid request.
var ErrInvalidRequest = errors.New("invalid recommendation request")

// RecommendRequest is a request for recommendations.
type RecommendRequest struct {
	Strategy string `json:"strategy,omitempty"`
	Query    string `json:"query,omitempty"`
	Count    int    `json:"count,omitempty"`
}

// Validate checks the request at the boundary and sets defaults.
// An unset strategy defaults to content; an unset count defaults to 1.
// A non-positive count or an unknown strategy is rejected.
func (r *RecommendRequest) Validate() error {
	if r.Strategy == "" {
		r.Strategy = StrategyContent
	}
	switch r.Strategy {
	case StrategyContent, StrategyQuery, StrategyFuzzy:
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidRequest, r.Strategy)
	}
	if r.Count == 0 {
		r.Count = 1
	}
	if r.Count < 0 {
		return fmt.Errorf("%w: count must be at least 1, got %d", ErrInvalidRequest, r.Count)
	}
	return nil
}

// RecommendedBook is one recommendation resolved back to its catalog entry.
type RecommendedBook struct {
	Book *Book `json:"book"`
	Rank int   `json:"rank"`
}

// RecommendResponse is the response for a recommendation request.
type RecommendResponse struct {
	Strategy string             `json:"strategy"`
	Query    string             `json:"query,omitempty"`
	Count    int                `json:"count"`
	Books    []*RecommendedBook `json:"books"`
	// FellBack indicates the fuzzy strategy found no candidates above
	// the match floor and the query strategy was used instead.
	FellBack  bool  `json:"fell_back,omitempty"`
	QueryTime int64 `json:"query_time_ms"`
}
