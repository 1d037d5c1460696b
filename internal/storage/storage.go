// Package storage defines the persistence interface for the catalog
// snapshot and the recommendation history.
package storage

import (
	"context"

	"github.com/bookwhisperer/bookwhisperer/internal/models"
)

// Storage persists the cached catalog snapshot and the recommendation
// history.
type Storage interface {
	// Snapshot operations
	CachedBookIDs(ctx context.Context) (map[string]struct{}, error)
	LoadBooks(ctx context.Context) ([]*models.Book, error)
	ReplaceBooks(ctx context.Context, books []*models.Book) error
	CountBooks(ctx context.Context) (int64, error)

	// History operations
	PastRecommendationIDs(ctx context.Context) (map[string]struct{}, error)
	RecordRecommendations(ctx context.Context, recDate string, bookIDs []string) error
	ListRecommendations(ctx context.Context, limit int) ([]*models.Recommendation, error)
	CountRecommendations(ctx context.Context) (int64, error)

	Close() error
}
