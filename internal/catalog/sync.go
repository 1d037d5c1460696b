package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bookwhisperer/bookwhisperer/internal/models"
	"github.com/bookwhisperer/bookwhisperer/internal/storage"
)

// SyncResult is the outcome of one catalog sync.
type SyncResult struct {
	// Books is the authoritative corpus for this session.
	Books []*models.Book
	// Failed holds per-item fetch failures; those books are absent from
	// Books but not from the upstream catalog.
	Failed []FetchOutcome
	// FromCache reports that the upstream ID set matched the cached
	// snapshot and the snapshot was reused verbatim.
	FromCache bool
}

// Syncer keeps the local snapshot in step with the upstream catalog.
type Syncer struct {
	source Source
	store  storage.Storage
	logger *zap.Logger
}

// NewSyncer creates a syncer.
func NewSyncer(source Source, store storage.Storage, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{source: source, store: store, logger: logger}
}

// Sync compares the upstream ID set with the cached one. When they are
// identical the cached snapshot is reused verbatim; on any difference
// every item is refetched and the entire snapshot replaced.
func (s *Syncer) Sync(ctx context.Context) (*SyncResult, error) {
	upstream, err := s.source.BookIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	cached, err := s.store.CachedBookIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cached ids: %w", err)
	}

	if sameIDSet(upstream, cached) {
		books, err := s.store.LoadBooks(ctx)
		if err != nil {
			return nil, fmt.Errorf("load cached snapshot: %w", err)
		}
		s.logger.Debug("catalog unchanged, snapshot reused", zap.Int("books", len(books)))
		return &SyncResult{Books: books, FromCache: true}, nil
	}

	s.logger.Info("catalog changed, refreshing snapshot",
		zap.Int("upstream", len(upstream)),
		zap.Int("cached", len(cached)))

	outcomes := s.source.FetchBooks(ctx, upstream)
	result := &SyncResult{Books: make([]*models.Book, 0, len(outcomes))}
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			result.Failed = append(result.Failed, outcome)
			continue
		}
		result.Books = append(result.Books, outcome.Book)
	}
	if len(result.Failed) > 0 {
		s.logger.Warn("some books omitted from snapshot",
			zap.Int("failed", len(result.Failed)),
			zap.Int("fetched", len(result.Books)))
	}

	if err := s.store.ReplaceBooks(ctx, result.Books); err != nil {
		return nil, fmt.Errorf("replace cached snapshot: %w", err)
	}
	return result, nil
}

func sameIDSet(upstream []string, cached map[string]struct{}) bool {
	if len(upstream) != len(cached) {
		return false
	}
	for _, id := range upstream {
		if _, ok := cached[id]; !ok {
			return false
		}
	}
	return true
}
