// Package gateway is the boundary to the external natural-language
// evaluator: provider adapters plus the layered timeout and retry policy.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lingocache/internal/model"
)

// Budget is consulted before each external call and charged after it
type Budget interface {
	Allow(units float64) bool
	Spend(units float64)
}

// Options tune the timeout policy
type Options struct {
	SoftTimeout    time.Duration // first attempt
	HardTimeout    time.Duration // whole call including the retry
	MinRetryBudget time.Duration // retry only if this much hard budget remains
	EstimatedUnits float64       // cost reserved against the budget per attempt
}

// DefaultOptions returns 3s soft, 8s hard, 1.5s minimum retry window
func DefaultOptions() Options {
	return Options{
		SoftTimeout:    3 * time.Second,
		HardTimeout:    8 * time.Second,
		MinRetryBudget: 1500 * time.Millisecond,
		EstimatedUnits: 400,
	}
}

// Gateway wraps an Evaluator with timeouts, one retry and a cost budget
type Gateway struct {
	evaluator Evaluator
	budget    Budget
	opts      Options
	logger    *slog.Logger
}

// New creates a gateway. budget may be nil.
func New(evaluator Evaluator, budget Budget, opts Options, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{evaluator: evaluator, budget: budget, opts: opts, logger: logger}
}

// Provider names the wrapped evaluator
func (g *Gateway) Provider() string {
	return g.evaluator.Name()
}

// Evaluate calls the evaluator under the soft timeout and, on timeout or
// upstream error, retries once with whatever hard budget remains. Errors
// wrap model.ErrUpstreamTimeout, model.ErrUpstreamError or
// model.ErrBudgetExhausted.
func (g *Gateway) Evaluate(ctx context.Context, req Request) (*Response, error) {
	hardCtx, cancel := context.WithTimeout(ctx, g.opts.HardTimeout)
	defer cancel()
	deadline, _ := hardCtx.Deadline()

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		if g.budget != nil && !g.budget.Allow(g.opts.EstimatedUnits) {
			return nil, fmt.Errorf("%w: %s", model.ErrBudgetExhausted, req.ContentID)
		}

		attemptCtx, attemptCancel := hardCtx, context.CancelFunc(func() {})
		if attempt == 1 {
			attemptCtx, attemptCancel = context.WithTimeout(hardCtx, g.opts.SoftTimeout)
		}
		start := time.Now()
		resp, err := g.evaluator.Evaluate(attemptCtx, req)
		attemptCancel()

		if err == nil {
			if g.budget != nil {
				g.budget.Spend(resp.CostUnits)
			}
			return resp, nil
		}
		lastErr = classify(err, attemptCtx)

		remaining := time.Until(deadline)
		g.logger.Warn("external evaluation attempt failed",
			"provider", g.evaluator.Name(),
			"contentId", req.ContentID,
			"attempt", attempt,
			"elapsed", time.Since(start),
			"remaining", remaining,
			"error", lastErr,
		)
		if ctx.Err() != nil || remaining < g.opts.MinRetryBudget {
			break
		}
	}
	return nil, lastErr
}

func classify(err error, attemptCtx context.Context) error {
	switch {
	case errors.Is(err, model.ErrUpstreamError), errors.Is(err, model.ErrUpstreamTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", model.ErrUpstreamTimeout, err)
	default:
		return fmt.Errorf("%w: %v", model.ErrUpstreamError, err)
	}
}
