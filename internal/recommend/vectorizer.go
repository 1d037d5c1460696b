// Package recommend implements the recommendation engine: TF-IDF corpus
// vectorization, cosine-similarity ranking, fuzzy title matching, and the
// policy combining them with recommendation history.
package recommend

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Tokenize lowercases text and extracts alphanumeric tokens of length >= 2,
// dropping English stop words.
func Tokenize(text string) []string {
	parts := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) < 2 {
			continue
		}
		if _, stop := englishStopWords[p]; stop {
			continue
		}
		tokens = append(tokens, p)
	}
	return tokens
}

// Vectorizer builds TF-IDF vectors over a vocabulary extracted from one
// corpus. A Vectorizer is constructed fresh per recommendation call and
// holds no cross-call state; the vocabulary is rebuilt deterministically
// from the corpus it is fitted on (columns in sorted term order).
type Vectorizer struct {
	vocabulary map[string]int
	idf        []float64
}

// NewVectorizer creates an unfitted Vectorizer.
func NewVectorizer() *Vectorizer {
	return &Vectorizer{vocabulary: make(map[string]int)}
}

// FitTransform builds the vocabulary and IDF statistics from docs and
// returns the TF-IDF matrix, one L2-normalized row per document.
// An empty corpus yields an empty matrix.
func (v *Vectorizer) FitTransform(docs []string) [][]float64 {
	tokenized := make([][]string, len(docs))
	docFreq := make(map[string]int)
	for i, doc := range docs {
		tokens := Tokenize(doc)
		tokenized[i] = tokens
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			docFreq[tok]++
		}
	}

	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(docs))
	for col, term := range terms {
		v.vocabulary[term] = col
		// Smoothed IDF: never zero, never negative.
		v.idf[col] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	matrix := make([][]float64, len(docs))
	for i, tokens := range tokenized {
		matrix[i] = v.vector(tokens)
	}
	return matrix
}

// Transform projects free text into the fitted vocabulary space. Terms
// outside the vocabulary contribute zero weight, so a query sharing no
// vocabulary with the corpus maps to the zero vector.
func (v *Vectorizer) Transform(text string) []float64 {
	return v.vector(Tokenize(text))
}

// VocabularySize returns the number of columns in the fitted vocabulary.
func (v *Vectorizer) VocabularySize() int {
	return len(v.vocabulary)
}

func (v *Vectorizer) vector(tokens []string) []float64 {
	vec := make([]float64, len(v.vocabulary))
	if len(tokens) == 0 {
		return vec
	}
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}
	for tok, count := range counts {
		col, ok := v.vocabulary[tok]
		if !ok {
			continue
		}
		tf := float64(count) / float64(len(tokens))
		vec[col] = tf * v.idf[col]
	}
	normalizeL2(vec)
	return vec
}

// normalizeL2 normalizes the vector in place to unit L2 norm.
// A zero vector is unchanged.
func normalizeL2(vec []float64) {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	if sum == 0 {
		return
	}
	norm := 1.0 / math.Sqrt(sum)
	for i := range vec {
		vec[i] *= norm
	}
}
