// Package models defines core data structures for books, recommendations, and requests.
package models

import "strings"

// Book represents a catalog entry fetched from the Calibre content server.
// A Book is immutable for the duration of a session; missing text fields
// are tolerated as empty strings.
type Book struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Topic  string `json:"topic"`
}

// Document returns the text used for vectorization: title, author, and
// topic joined by single spaces. Empty fields contribute nothing.
func (b *Book) Document() string {
	parts := make([]string, 0, 3)
	for _, f := range []string{b.Title, b.Author, b.Topic} {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

// Recommendation is one recorded recommendation, keyed by the date it was made.
type Recommendation struct {
	ID      string `json:"id"`
	RecDate string `json:"rec_date"`
	BookID  string `json:"book_id"`
}
