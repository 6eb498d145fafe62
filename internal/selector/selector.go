// Package selector finds the best stored near-match for a submission.
package selector

import (
	"context"
	"fmt"

	"lingocache/internal/model"
	"lingocache/internal/store"
)

const (
	DefaultThreshold      = 0.8
	DefaultCandidateLimit = 200

	HighTier   = 0.9
	MediumTier = 0.85
)

// PairScorer scores two normalized strings in [0,1]
type PairScorer interface {
	Score(a, b string) float64
}

// Selector scans a bounded, recency-ordered candidate set per content item.
type Selector struct {
	backend store.Persistence
	scorer  PairScorer
	limit   int
}

// New creates a selector. limit <= 0 uses DefaultCandidateLimit.
func New(backend store.Persistence, scorer PairScorer, limit int) *Selector {
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	return &Selector{backend: backend, scorer: scorer, limit: limit}
}

// SelectBest returns the highest scoring record at or above threshold, or nil.
func (s *Selector) SelectBest(ctx context.Context, contentID, normalizedInput string, threshold float64) (*model.CandidateMatch, error) {
	records, err := s.backend.ListRecent(ctx, contentID, s.limit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w: %v", model.ErrStoreUnavailable, err)
	}

	var best *model.CandidateMatch
	for _, rec := range records {
		if rec.ContentID != contentID || rec.NormalizedInput == normalizedInput {
			continue
		}
		if rec.SourceKind == model.SourceDegraded {
			continue
		}
		sim := s.scorer.Score(normalizedInput, rec.NormalizedInput)
		if sim < threshold {
			continue
		}
		if best == nil || better(rec, sim, best) {
			best = &model.CandidateMatch{Record: rec, Similarity: sim}
		}
	}
	if best == nil {
		return nil, nil
	}
	best.Tier = Tier(best.Similarity, best.Record.SourceKind)
	return best, nil
}

// better orders by similarity, then source priority, usage and recency.
func better(rec *model.EvaluationRecord, sim float64, cur *model.CandidateMatch) bool {
	if sim != cur.Similarity {
		return sim > cur.Similarity
	}
	if p, q := rec.SourceKind.Priority(), cur.Record.SourceKind.Priority(); p != q {
		return p > q
	}
	if rec.UsageCount != cur.Record.UsageCount {
		return rec.UsageCount > cur.Record.UsageCount
	}
	return rec.LastUsedAt.After(cur.Record.LastUsedAt)
}

// Tier maps a similarity to a confidence tier. Derived records never reach high.
func Tier(sim float64, kind model.SourceKind) model.ConfidenceTier {
	tier := model.TierLow
	switch {
	case sim >= HighTier:
		tier = model.TierHigh
	case sim >= MediumTier:
		tier = model.TierMedium
	}
	if tier == model.TierHigh && kind != model.SourceExternal {
		tier = model.TierMedium
	}
	return tier
}
