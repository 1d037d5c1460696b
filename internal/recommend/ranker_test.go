package recommend

import (
	"math"
	"testing"

	"github.com/bookwhisperer/bookwhisperer/internal/models"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{name: "identical vectors", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, want: 1},
		{name: "orthogonal vectors", a: []float64{1, 0}, b: []float64{0, 1}, want: 0},
		{name: "zero vector", a: []float64{0, 0}, b: []float64{1, 1}, want: 0},
		{name: "both zero", a: []float64{0, 0}, b: []float64{0, 0}, want: 0},
		{name: "length mismatch", a: []float64{1}, b: []float64{1, 1}, want: 0},
		{name: "empty", a: nil, b: nil, want: 0},
		{name: "scaled vectors", a: []float64{1, 1}, b: []float64{5, 5}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestProfileVector(t *testing.T) {
	matrix := [][]float64{
		{1, 0, 3},
		{3, 2, 1},
		{100, 100, 100},
	}
	profile := ProfileVector(matrix, []int{0, 1})
	want := []float64{2, 1, 2}
	for col := range want {
		if math.Abs(profile[col]-want[col]) > 1e-9 {
			t.Errorf("profile[%d] = %f, want %f", col, profile[col], want[col])
		}
	}
	if ProfileVector(matrix, nil) != nil {
		t.Error("no indices should yield nil profile")
	}
	if ProfileVector(nil, []int{0}) != nil {
		t.Error("empty matrix should yield nil profile")
	}
}

func testBooks() []*models.Book {
	return []*models.Book{
		{ID: "A", Title: "Dune", Author: "Frank Herbert", Topic: "scifi"},
		{ID: "B", Title: "Dune Messiah", Author: "Frank Herbert", Topic: "scifi"},
		{ID: "C", Title: "Emma", Author: "Jane Austen", Topic: "romance"},
	}
}

func TestRankBySimilarity_ExclusionBySentinel(t *testing.T) {
	books := testBooks()
	matrix := NewVectorizer().FitTransform(documents(books))
	excluded := map[string]struct{}{"A": {}}

	profile := ProfileVector(matrix, []int{0})
	ranking := RankBySimilarity(books, matrix, profile, excluded)

	if len(ranking) != len(books) {
		t.Fatalf("ranking names %d books, want all %d", len(ranking), len(books))
	}
	// A is forced to the sentinel, not removed, and so ranks last.
	last := ranking[len(ranking)-1]
	if last.Book.ID != "A" || last.Score != SentinelScore {
		t.Errorf("excluded book = %s score %f, want A at sentinel", last.Book.ID, last.Score)
	}
	// B shares A's vocabulary and must outrank C.
	if ranking[0].Book.ID != "B" {
		t.Errorf("top book = %s, want B", ranking[0].Book.ID)
	}
	if ranking[0].Score <= ranking[1].Score {
		t.Errorf("B score %f should exceed C score %f", ranking[0].Score, ranking[1].Score)
	}
}

func TestRankBySimilarity_StableTieBreak(t *testing.T) {
	books := []*models.Book{
		{ID: "x", Title: "same text"},
		{ID: "y", Title: "same text"},
		{ID: "z", Title: "same text"},
	}
	matrix := NewVectorizer().FitTransform(documents(books))
	target := matrix[0]

	ranking := RankBySimilarity(books, matrix, target, nil)
	for i, want := range []string{"x", "y", "z"} {
		if ranking[i].Book.ID != want {
			t.Errorf("rank %d = %s, want %s (ties break by corpus index)", i, ranking[i].Book.ID, want)
		}
	}
}

func TestRankByWeightMass(t *testing.T) {
	books := testBooks()
	matrix := NewVectorizer().FitTransform(documents(books))

	ranking := RankByWeightMass(books, matrix, nil)
	if len(ranking) != 3 {
		t.Fatalf("ranking size = %d", len(ranking))
	}
	// B carries an extra distinctive term over A's shared vocabulary, so
	// its normalized weight mass is the largest.
	if ranking[0].Book.ID != "B" {
		t.Errorf("top book = %s, want B", ranking[0].Book.ID)
	}

	excluded := map[string]struct{}{"B": {}}
	ranking = RankByWeightMass(books, matrix, excluded)
	last := ranking[len(ranking)-1]
	if last.Book.ID != "B" || last.Score != SentinelScore {
		t.Errorf("excluded book = %s score %f, want B at sentinel", last.Book.ID, last.Score)
	}
}
