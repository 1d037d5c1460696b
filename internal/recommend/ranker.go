package recommend

import (
	"math"
	"sort"

	"github.com/bookwhisperer/bookwhisperer/internal/models"
)

// SentinelScore is assigned to books excluded by recommendation history.
// It sits below any attainable cosine value for non-negative TF-IDF
// vectors, so excluded books rank last regardless of tie-breaking. They
// stay in the ranking rather than being removed, keeping ranking indices
// aligned with the corpus.
const SentinelScore = -1.0

// ScoredBook pairs a corpus entry with its score. Index is the book's
// position in the corpus the ranking was produced from.
type ScoredBook struct {
	Index int
	Book  *models.Book
	Score float64
}

// CosineSimilarity returns the cosine of the angle between a and b.
// The similarity of a zero vector with anything is 0, never a division
// error. Vectors of different lengths score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ProfileVector returns the element-wise mean of the given matrix rows.
// It represents aggregate past preference when the rows are the vectors
// of previously recommended books.
func ProfileVector(matrix [][]float64, indices []int) []float64 {
	if len(matrix) == 0 || len(indices) == 0 {
		return nil
	}
	profile := make([]float64, len(matrix[0]))
	for _, idx := range indices {
		for col, w := range matrix[idx] {
			profile[col] += w
		}
	}
	for col := range profile {
		profile[col] /= float64(len(indices))
	}
	return profile
}

// RankBySimilarity scores every book by cosine similarity to target,
// forcing books whose ID is in excluded to SentinelScore, and returns
// the full ranking in descending score order with ties broken by corpus
// index.
func RankBySimilarity(books []*models.Book, matrix [][]float64, target []float64, excluded map[string]struct{}) []ScoredBook {
	ranking := make([]ScoredBook, len(books))
	for i, book := range books {
		score := CosineSimilarity(matrix[i], target)
		if _, past := excluded[book.ID]; past {
			score = SentinelScore
		}
		ranking[i] = ScoredBook{Index: i, Book: book, Score: score}
	}
	sortRanking(ranking)
	return ranking
}

// RankByWeightMass scores every book by the sum of its own normalized
// row's TF-IDF weights, a proxy for how distinctively weighted the
// document is. Used as the deterministic default when there is no
// history and no query to rank against. The same sentinel exclusion
// applies.
func RankByWeightMass(books []*models.Book, matrix [][]float64, excluded map[string]struct{}) []ScoredBook {
	ranking := make([]ScoredBook, len(books))
	for i, book := range books {
		var score float64
		for _, w := range matrix[i] {
			score += w
		}
		if _, past := excluded[book.ID]; past {
			score = SentinelScore
		}
		ranking[i] = ScoredBook{Index: i, Book: book, Score: score}
	}
	sortRanking(ranking)
	return ranking
}

// sortRanking orders by score descending; the stable sort preserves
// corpus order between equal scores, making rankings deterministic for
// identical inputs.
func sortRanking(ranking []ScoredBook) {
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Score > ranking[j].Score
	})
}
