package recommend

import (
	"testing"

	"github.com/bookwhisperer/bookwhisperer/internal/models"
)

func TestFuzzyMatcher_Match(t *testing.T) {
	books := testBooks()
	matcher := NewFuzzyMatcher(80, 3)

	t.Run("exact title", func(t *testing.T) {
		matches := matcher.Match("dune messiah", books, 1)
		if len(matches) == 0 {
			t.Fatal("expected at least one match")
		}
		if matches[0].Book.ID != "B" {
			t.Errorf("top match = %s, want B", matches[0].Book.ID)
		}
		if matches[0].Score < 80 {
			t.Errorf("top score = %f, want >= floor", matches[0].Score)
		}
	})

	t.Run("word reordering tolerated", func(t *testing.T) {
		matches := matcher.Match("messiah dune", books, 1)
		if len(matches) == 0 || matches[0].Book.ID != "B" {
			t.Fatalf("reordered query should still match B, got %+v", matches)
		}
	})

	t.Run("every candidate clears the floor", func(t *testing.T) {
		matches := matcher.Match("dune", books, 3)
		for _, m := range matches {
			if m.Score < 80 {
				t.Errorf("candidate %s score %f below floor", m.Book.ID, m.Score)
			}
		}
	})

	t.Run("nonsense query yields nothing", func(t *testing.T) {
		if matches := matcher.Match("xyzzy nonsense", books, 1); len(matches) != 0 {
			t.Errorf("expected no candidates, got %d", len(matches))
		}
	})

	t.Run("empty query yields nothing", func(t *testing.T) {
		if matches := matcher.Match("", books, 1); len(matches) != 0 {
			t.Errorf("expected no candidates, got %d", len(matches))
		}
	})
}

func TestFuzzyMatcher_CandidateHeadroom(t *testing.T) {
	books := make([]*models.Book, 0, 12)
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"} {
		books = append(books, &models.Book{ID: id, Title: "Dune"})
	}
	matcher := NewFuzzyMatcher(80, 3)

	matches := matcher.Match("dune", books, 2)
	// 3x the requested count, not everything that cleared the floor.
	if len(matches) != 6 {
		t.Errorf("candidates = %d, want 6", len(matches))
	}
}

func TestNewFuzzyMatcher_Defaults(t *testing.T) {
	m := NewFuzzyMatcher(0, 0)
	if m.floor != 80 || m.multiplier != 3 {
		t.Errorf("defaults = floor %d multiplier %d, want 80 and 3", m.floor, m.multiplier)
	}
}
