package gateway

import (
	"context"
	"math"
	"time"

	"lingocache/internal/model"
	"lingocache/internal/similarity"
	"lingocache/internal/textnorm"
)

// MockEvaluator grades by token overlap with the reference forms. It is used
// when no provider is configured.
type MockEvaluator struct {
	Latency time.Duration
}

// MockProvider is the provider name stamped on mock responses
const MockProvider = "mock"

func (e *MockEvaluator) Name() string { return MockProvider }

func (e *MockEvaluator) Evaluate(ctx context.Context, req Request) (*Response, error) {
	if e.Latency > 0 {
		select {
		case <-time.After(e.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if len(req.ReferenceForms) == 0 {
		return nil, model.ErrUpstreamError
	}

	got := textnorm.Tokens(textnorm.Fold(req.Input))
	best := 0.0
	for _, f := range req.ReferenceForms {
		best = math.Max(best, similarity.Jaccard(got, textnorm.Tokens(textnorm.Fold(f))))
	}
	score := int(math.Round(best * 100))

	resp := &Response{
		Score:           score,
		FeedbackText:    "Mock evaluation based on word overlap with the expected answer.",
		ImprovementList: []string{},
		Provider:        e.Name(),
	}
	if score < 100 {
		resp.ImprovementList = append(resp.ImprovementList, "Compare your wording with the expected answer.")
		resp.ErrorTags = []string{"vocabulary"}
	}
	return resp, nil
}
