package recommend

import (
	"errors"
	"reflect"
	"testing"

	"github.com/bookwhisperer/bookwhisperer/internal/models"
)

func newTestEngine() *Engine {
	return NewEngine(nil, nil)
}

func past(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestEngine_ContentNoHistory(t *testing.T) {
	engine := newTestEngine()
	result, err := engine.Recommend(testBooks(), nil, &models.RecommendRequest{Strategy: models.StrategyContent, Count: 1})
	if err != nil {
		t.Fatal(err)
	}
	// With no history and no query the engine ranks by distinctive
	// weight mass; B carries the extra rare term.
	if !reflect.DeepEqual(result.IDs, []string{"B"}) {
		t.Errorf("IDs = %v, want [B]", result.IDs)
	}
	if result.FellBack {
		t.Error("content strategy never falls back")
	}
}

func TestEngine_ContentWithHistory(t *testing.T) {
	engine := newTestEngine()
	result, err := engine.Recommend(testBooks(), past("A"), &models.RecommendRequest{Strategy: models.StrategyContent, Count: 1})
	if err != nil {
		t.Fatal(err)
	}
	// Profile built from A's vector; B is the most similar non-excluded book.
	if !reflect.DeepEqual(result.IDs, []string{"B"}) {
		t.Errorf("IDs = %v, want [B]", result.IDs)
	}
}

func TestEngine_Query(t *testing.T) {
	engine := newTestEngine()
	result, err := engine.Recommend(testBooks(), nil, &models.RecommendRequest{Strategy: models.StrategyQuery, Query: "romance", Count: 1})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(result.IDs, []string{"C"}) {
		t.Errorf("IDs = %v, want [C]", result.IDs)
	}
}

func TestEngine_QueryWithoutTextDegradesToContent(t *testing.T) {
	engine := newTestEngine()
	byQuery, err := engine.Recommend(testBooks(), past("A"), &models.RecommendRequest{Strategy: models.StrategyQuery, Count: 2})
	if err != nil {
		t.Fatal(err)
	}
	byContent, err := engine.Recommend(testBooks(), past("A"), &models.RecommendRequest{Strategy: models.StrategyContent, Count: 2})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(byQuery.IDs, byContent.IDs) {
		t.Errorf("query without text = %v, content = %v; want identical", byQuery.IDs, byContent.IDs)
	}
	if byQuery.Strategy != models.StrategyContent {
		t.Errorf("reported strategy = %s, want content", byQuery.Strategy)
	}
}

func TestEngine_Fuzzy(t *testing.T) {
	engine := newTestEngine()
	result, err := engine.Recommend(testBooks(), nil, &models.RecommendRequest{Strategy: models.StrategyFuzzy, Query: "dune messiah", Count: 1})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(result.IDs, []string{"B"}) {
		t.Errorf("IDs = %v, want [B]", result.IDs)
	}
	if result.FellBack {
		t.Error("fuzzy found a match, must not report fallback")
	}
}

func TestEngine_FuzzyFallsBackToQuery(t *testing.T) {
	engine := newTestEngine()
	req := &models.RecommendRequest{Strategy: models.StrategyFuzzy, Query: "xyzzy nonsense", Count: 1}
	result, err := engine.Recommend(testBooks(), nil, req)
	if err != nil {
		t.Fatal(err)
	}
	if !result.FellBack {
		t.Fatal("no candidate clears the floor; fallback must be reported")
	}
	if result.Strategy != models.StrategyQuery {
		t.Errorf("fallback strategy = %s, want query", result.Strategy)
	}

	// The fallback output equals the query-mode result for the same
	// query and exclusion set.
	direct, err := engine.Recommend(testBooks(), nil, &models.RecommendRequest{Strategy: models.StrategyQuery, Query: "xyzzy nonsense", Count: 1})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(result.IDs, direct.IDs) {
		t.Errorf("fallback = %v, query mode = %v; want identical", result.IDs, direct.IDs)
	}
	if len(result.IDs) != 1 {
		t.Errorf("fallback still returns min(N, eligible) results, got %v", result.IDs)
	}
}

func TestEngine_FuzzyFallbackRespectsExclusion(t *testing.T) {
	engine := newTestEngine()
	exclusion := past("A", "B")
	result, err := engine.Recommend(testBooks(), exclusion, &models.RecommendRequest{Strategy: models.StrategyFuzzy, Query: "dune", Count: 2})
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range result.IDs {
		if _, ok := exclusion[id]; ok {
			t.Errorf("excluded ID %s appeared in output", id)
		}
	}
}

func TestEngine_ExclusionInvariant(t *testing.T) {
	books := testBooks()
	engine := newTestEngine()
	exclusions := []map[string]struct{}{
		past("A"), past("B"), past("C"), past("A", "B"), past("A", "B", "C"),
	}
	requests := []*models.RecommendRequest{
		{Strategy: models.StrategyContent, Count: 3},
		{Strategy: models.StrategyQuery, Query: "dune herbert", Count: 3},
	}
	for _, excl := range exclusions {
		for _, base := range requests {
			req := *base
			result, err := engine.Recommend(books, excl, &req)
			if err != nil {
				t.Fatal(err)
			}
			for _, id := range result.IDs {
				if _, ok := excl[id]; ok {
					t.Errorf("strategy %s: excluded ID %s in output %v", base.Strategy, id, result.IDs)
				}
			}
			if want := len(books) - len(excl); len(result.IDs) != want {
				t.Errorf("strategy %s: output length = %d, want min(N, eligible) = %d", base.Strategy, len(result.IDs), want)
			}
		}
	}
}

func TestEngine_Determinism(t *testing.T) {
	books := testBooks()
	engine := newTestEngine()
	for _, req := range []*models.RecommendRequest{
		{Strategy: models.StrategyContent, Count: 3},
		{Strategy: models.StrategyQuery, Query: "scifi", Count: 3},
		{Strategy: models.StrategyFuzzy, Query: "dune", Count: 3},
	} {
		first, err := engine.Recommend(books, past("A"), req)
		if err != nil {
			t.Fatal(err)
		}
		second, err := engine.Recommend(books, past("A"), req)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first.IDs, second.IDs) {
			t.Errorf("strategy %s not deterministic: %v vs %v", req.Strategy, first.IDs, second.IDs)
		}
	}
}

func TestEngine_EmptyCorpus(t *testing.T) {
	engine := newTestEngine()
	for _, strategy := range []string{models.StrategyContent, models.StrategyQuery, models.StrategyFuzzy} {
		result, err := engine.Recommend(nil, past("A"), &models.RecommendRequest{Strategy: strategy, Query: "dune", Count: 5})
		if err != nil {
			t.Fatalf("strategy %s: empty corpus is not an error, got %v", strategy, err)
		}
		if len(result.IDs) != 0 {
			t.Errorf("strategy %s: IDs = %v, want empty", strategy, result.IDs)
		}
	}
}

func TestEngine_InvalidRequest(t *testing.T) {
	engine := newTestEngine()
	for _, req := range []*models.RecommendRequest{
		{Strategy: "hybrid", Count: 1},
		{Strategy: models.StrategyContent, Count: -2},
	} {
		_, err := engine.Recommend(testBooks(), nil, req)
		if !errors.Is(err, models.ErrInvalidRequest) {
			t.Errorf("request %+v: err = %v, want ErrInvalidRequest", req, err)
		}
	}
}

func TestEngine_CountBeyondEligible(t *testing.T) {
	engine := newTestEngine()
	result, err := engine.Recommend(testBooks(), past("C"), &models.RecommendRequest{Strategy: models.StrategyContent, Count: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.IDs) != 2 {
		t.Errorf("IDs = %v, want the 2 eligible books", result.IDs)
	}
	seen := make(map[string]struct{})
	for _, id := range result.IDs {
		if _, dup := seen[id]; dup {
			t.Errorf("ID %s appears more than once", id)
		}
		seen[id] = struct{}{}
	}
}
