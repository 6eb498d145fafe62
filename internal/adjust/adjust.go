// Package adjust derives an evaluation for a new submission from a
// near-match record.
package adjust

import (
	"math"
	"time"

	"github.com/google/uuid"

	"lingocache/internal/model"
)

// Config holds the fixed adjustment constants
type Config struct {
	PenaltyScale    float64 // K: points lost per unit of dissimilarity
	Floor           int     // minimum score
	AcceptThreshold int     // minimum score for isAcceptable
}

// DefaultConfig returns K=25, floor 10, acceptable at 70
func DefaultConfig() Config {
	return Config{PenaltyScale: 25, Floor: 10, AcceptThreshold: 70}
}

var qualifiers = map[model.ConfidenceTier]string{
	model.TierHigh:   "This answer is very close to one we have already reviewed, so the feedback below is adapted from that review.",
	model.TierMedium: "This answer resembles one we have already reviewed; the feedback below is adapted from it and may not cover every difference.",
	model.TierLow:    "This feedback is approximated from a different answer and may not fully apply to yours.",
}

// Adjuster turns a CandidateMatch into an adjusted record
type Adjuster struct {
	cfg Config
}

func New(cfg Config) *Adjuster {
	return &Adjuster{cfg: cfg}
}

// Penalty returns round((1-similarity)*K)
func (a *Adjuster) Penalty(similarity float64) int {
	return int(math.Round((1 - similarity) * a.cfg.PenaltyScale))
}

// Adjust builds the record stored for normalizedInput. It never mutates match.
func (a *Adjuster) Adjust(match *model.CandidateMatch, normalizedInput string, now time.Time) *model.EvaluationRecord {
	base := match.Record
	score := max(a.cfg.Floor, base.Score-a.Penalty(match.Similarity))

	return &model.EvaluationRecord{
		ID:              uuid.NewString(),
		ContentID:       base.ContentID,
		NormalizedInput: normalizedInput,
		Score:           score,
		IsAcceptable:    score >= a.cfg.AcceptThreshold && match.Tier != model.TierLow,
		FeedbackText:    Qualifier(match.Tier) + " " + base.FeedbackText,
		ImprovementList: append([]string(nil), base.ImprovementList...),
		ErrorTags:       append([]string(nil), base.ErrorTags...),
		SourceKind:      model.SourceAdjusted,
		DerivedFrom:     base.ID,
		Similarity:      match.Similarity,
		UsageCount:      1,
		CreatedAt:       now,
		LastUsedAt:      now,
	}
}

// Qualifier is the sentence prefixed to adjusted feedback
func Qualifier(tier model.ConfidenceTier) string {
	if q, ok := qualifiers[tier]; ok {
		return q
	}
	return qualifiers[model.TierLow]
}
