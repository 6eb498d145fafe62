// Package store defines the persistence boundary behind the exact-match
// store and an in-memory implementation of it.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lingocache/internal/model"
)

// ErrNotFound is returned by IncrementUsage for a missing key
var ErrNotFound = errors.New("record not found")

// Persistence is the keyed get/put/increment API backing the caches.
// Get returns (nil, nil) on a miss.
type Persistence interface {
	Get(ctx context.Context, key model.Key) (*model.EvaluationRecord, error)
	// Put inserts or replaces the record for rec.Key().
	Put(ctx context.Context, rec *model.EvaluationRecord) error
	// IncrementUsage atomically bumps usageCount by one, sets lastUsedAt and
	// returns the updated record.
	IncrementUsage(ctx context.Context, key model.Key, at time.Time) (*model.EvaluationRecord, error)
	// ListRecent returns up to limit records for contentID, most recently used first.
	ListRecent(ctx context.Context, contentID string, limit int) ([]*model.EvaluationRecord, error)
}

// ExactStore is the O(1) keyed lookup in front of a Persistence.
type ExactStore struct {
	backend Persistence
}

// NewExactStore wraps a persistence backend
func NewExactStore(backend Persistence) *ExactStore {
	return &ExactStore{backend: backend}
}

// Lookup returns the stored record or nil. It has no side effects; backend
// failures are wrapped in model.ErrStoreUnavailable.
func (s *ExactStore) Lookup(ctx context.Context, key model.Key) (*model.EvaluationRecord, error) {
	rec, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w: %v", key.ContentID, model.ErrStoreUnavailable, err)
	}
	return rec, nil
}

// Backend exposes the wrapped persistence
func (s *ExactStore) Backend() Persistence {
	return s.backend
}
