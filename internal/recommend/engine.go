package recommend

import (
	"go.uber.org/zap"

	"github.com/bookwhisperer/bookwhisperer/internal/models"
)

// Config holds engine tunables.
type Config struct {
	// FuzzyFloor is the minimum token-set ratio for fuzzy title matches.
	FuzzyFloor int `yaml:"fuzzy_floor"`
	// FuzzyCandidateMultiplier controls fuzzy candidate headroom:
	// multiplier * count candidates are generated before history
	// exclusion.
	FuzzyCandidateMultiplier int `yaml:"fuzzy_candidate_multiplier"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{FuzzyFloor: 80, FuzzyCandidateMultiplier: 3}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.FuzzyFloor == 0 {
		c.FuzzyFloor = 80
	}
	if c.FuzzyCandidateMultiplier == 0 {
		c.FuzzyCandidateMultiplier = 3
	}
}

// Engine orchestrates vectorization, similarity ranking, and fuzzy
// matching into the recommendation policy. The engine is purely
// computational: it performs no I/O and holds no cross-call state
// beyond its configuration.
type Engine struct {
	config *Config
	fuzzy  *FuzzyMatcher
	logger *zap.Logger
}

// NewEngine creates an engine. A nil config uses defaults; a nil logger
// logs nowhere.
func NewEngine(config *Config, logger *zap.Logger) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		config: config,
		fuzzy:  NewFuzzyMatcher(config.FuzzyFloor, config.FuzzyCandidateMultiplier),
		logger: logger,
	}
}

// Result is the outcome of one recommendation call.
type Result struct {
	// IDs are the recommended book IDs in rank order, each at most once,
	// none from the exclusion set.
	IDs []string
	// Strategy is the strategy that actually produced the output.
	Strategy string
	// FellBack reports that the fuzzy strategy found no candidates above
	// the floor and query ranking was used instead.
	FellBack bool
}

// Recommend returns up to req.Count book IDs from books, excluding IDs
// in past. The corpus order is authoritative for the call: every
// internal ranking references it and score ties resolve in its favor,
// so identical inputs always yield identical output. An empty corpus
// yields an empty result, not an error.
func (e *Engine) Recommend(books []*models.Book, past map[string]struct{}, req *models.RecommendRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return &Result{Strategy: req.Strategy}, nil
	}

	strategy := req.Strategy
	if strategy == models.StrategyQuery && req.Query == "" {
		// A query strategy without query text has no signal to rank
		// against; degrade to content.
		strategy = models.StrategyContent
	}

	switch strategy {
	case models.StrategyFuzzy:
		return e.recommendFuzzy(books, past, req.Query, req.Count)
	case models.StrategyQuery:
		return e.recommendQuery(books, past, req.Query, req.Count)
	default:
		return e.recommendContent(books, past, req.Count)
	}
}

// recommendContent ranks by similarity to the profile built from past
// recommendations, or by document distinctiveness when there is no
// history.
func (e *Engine) recommendContent(books []*models.Book, past map[string]struct{}, count int) (*Result, error) {
	vectorizer := NewVectorizer()
	matrix := vectorizer.FitTransform(documents(books))

	var ranking []ScoredBook
	if pastIdx := pastIndices(books, past); len(pastIdx) > 0 {
		profile := ProfileVector(matrix, pastIdx)
		ranking = RankBySimilarity(books, matrix, profile, past)
	} else {
		ranking = RankByWeightMass(books, matrix, past)
	}

	ids := takeIDs(ranking, past, count)
	e.logger.Info("content recommendations",
		zap.Int("corpus", len(books)),
		zap.Int("excluded", len(past)),
		zap.Strings("ids", ids))
	return &Result{IDs: ids, Strategy: models.StrategyContent}, nil
}

// recommendQuery ranks by similarity to the query projected into the
// corpus vocabulary. A query sharing no vocabulary with the corpus maps
// to the zero vector and scores everything 0; the ranking then falls
// back to corpus order, which is still deterministic.
func (e *Engine) recommendQuery(books []*models.Book, past map[string]struct{}, query string, count int) (*Result, error) {
	vectorizer := NewVectorizer()
	matrix := vectorizer.FitTransform(documents(books))
	target := vectorizer.Transform(query)
	ranking := RankBySimilarity(books, matrix, target, past)

	ids := takeIDs(ranking, past, count)
	e.logger.Info("query recommendations",
		zap.String("query", query),
		zap.Int("corpus", len(books)),
		zap.Strings("ids", ids))
	return &Result{IDs: ids, Strategy: models.StrategyQuery}, nil
}

// recommendFuzzy ranks by fuzzy title matching. When no candidate
// survives the floor and history exclusion, it falls back to query
// ranking over the same query text. That is the only automatic
// strategy fallback, and it is always logged.
func (e *Engine) recommendFuzzy(books []*models.Book, past map[string]struct{}, query string, count int) (*Result, error) {
	candidates := e.fuzzy.Match(query, books, count)
	ids := takeIDs(candidates, past, count)
	if len(ids) == 0 {
		e.logger.Warn("no fuzzy matches above floor, falling back to query ranking",
			zap.String("query", query),
			zap.Int("floor", e.config.FuzzyFloor))
		result, err := e.recommendQuery(books, past, query, count)
		if err != nil {
			return nil, err
		}
		result.FellBack = true
		return result, nil
	}
	e.logger.Info("fuzzy recommendations",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)),
		zap.Strings("ids", ids))
	return &Result{IDs: ids, Strategy: models.StrategyFuzzy}, nil
}

// documents returns each book's vectorization text, index-aligned with
// the corpus.
func documents(books []*models.Book) []string {
	docs := make([]string, len(books))
	for i, book := range books {
		docs[i] = book.Document()
	}
	return docs
}

// pastIndices resolves the exclusion set to corpus indices in one pass.
func pastIndices(books []*models.Book, past map[string]struct{}) []int {
	if len(past) == 0 {
		return nil
	}
	indices := make([]int, 0, len(past))
	for i, book := range books {
		if _, ok := past[book.ID]; ok {
			indices = append(indices, i)
		}
	}
	return indices
}

// takeIDs collects up to count IDs from the ranking, skipping excluded
// books. Sentinel-scored entries are never collected because their IDs
// are in the exclusion set.
func takeIDs(ranking []ScoredBook, excluded map[string]struct{}, count int) []string {
	ids := make([]string, 0, count)
	for _, scored := range ranking {
		if _, past := excluded[scored.Book.ID]; past {
			continue
		}
		ids = append(ids, scored.Book.ID)
		if len(ids) == count {
			break
		}
	}
	return ids
}
