package adjust

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lingocache/internal/model"
)

func match(score int, sim float64, tier model.ConfidenceTier) *model.CandidateMatch {
	return &model.CandidateMatch{
		Record: &model.EvaluationRecord{
			ID: "base", ContentID: "S1", NormalizedInput: "bebo cafe", Score: score,
			FeedbackText: "Good.", ImprovementList: []string{"accent on café"},
			SourceKind: model.SourceExternal, UsageCount: 12,
		},
		Similarity: sim,
		Tier:       tier,
	}
}

func TestAdjustScore(t *testing.T) {
	a := New(DefaultConfig())
	now := time.Now()

	tests := []struct {
		name       string
		score      int
		sim        float64
		tier       model.ConfidenceTier
		want       int
		acceptable bool
	}{
		{"low tier at threshold", 95, 0.8, model.TierLow, 90, false},
		{"high tier", 95, 0.92, model.TierHigh, 93, true},
		{"floor", 12, 0.8, model.TierMedium, 10, false},
		{"threshold edge", 72, 0.92, model.TierHigh, 70, true},
		{"medium acceptable", 88, 0.86, model.TierMedium, 84, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.Adjust(match(tt.score, tt.sim, tt.tier), "tomo cafe", now)
			assert.Equal(t, tt.want, rec.Score)
			assert.Equal(t, tt.acceptable, rec.IsAcceptable)
		})
	}
}

func TestAdjustRecordShape(t *testing.T) {
	m := match(95, 0.9, model.TierHigh)
	rec := New(DefaultConfig()).Adjust(m, "tomo cafe", time.Now())

	assert.Equal(t, model.SourceAdjusted, rec.SourceKind)
	assert.Equal(t, "tomo cafe", rec.NormalizedInput)
	assert.Equal(t, "base", rec.DerivedFrom)
	assert.Equal(t, int64(1), rec.UsageCount)
	assert.True(t, strings.HasPrefix(rec.FeedbackText, Qualifier(model.TierHigh)))
	assert.True(t, strings.HasSuffix(rec.FeedbackText, "Good."))

	rec.ImprovementList[0] = "changed"
	assert.Equal(t, "accent on café", m.Record.ImprovementList[0])
	assert.Equal(t, 95, m.Record.Score)
}

func TestQualifierPerTier(t *testing.T) {
	seen := map[string]bool{}
	for _, tier := range []model.ConfidenceTier{model.TierHigh, model.TierMedium, model.TierLow} {
		q := Qualifier(tier)
		assert.NotEmpty(t, q)
		seen[q] = true
	}
	assert.Len(t, seen, 3)
}
