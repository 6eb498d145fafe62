package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingocache/internal/model"
	"lingocache/internal/telemetry"
)

// scripted returns one step per call; a zero step blocks until ctx ends.
type scripted struct {
	mu    sync.Mutex
	steps []func(ctx context.Context) (*Response, error)
	calls atomic.Int32
}

func (s *scripted) Name() string { return "scripted" }

func (s *scripted) Evaluate(ctx context.Context, _ Request) (*Response, error) {
	n := int(s.calls.Add(1)) - 1
	s.mu.Lock()
	step := s.steps[min(n, len(s.steps)-1)]
	s.mu.Unlock()
	return step(ctx)
}

func ok(score int) func(context.Context) (*Response, error) {
	return func(context.Context) (*Response, error) {
		return &Response{Score: score, FeedbackText: "fine", CostUnits: 10}, nil
	}
}

func hang(ctx context.Context) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func fail(context.Context) (*Response, error) {
	return nil, errors.New("boom")
}

type countingBudget struct {
	allow bool
	spent float64
}

func (b *countingBudget) Allow(float64) bool { return b.allow }
func (b *countingBudget) Spend(u float64)    { b.spent += u }

func fastOpts() Options {
	return Options{SoftTimeout: 20 * time.Millisecond, HardTimeout: 200 * time.Millisecond, MinRetryBudget: 50 * time.Millisecond}
}

func TestGatewaySuccess(t *testing.T) {
	ev := &scripted{steps: []func(context.Context) (*Response, error){ok(88)}}
	budget := &countingBudget{allow: true}
	resp, err := New(ev, budget, fastOpts(), nil).Evaluate(context.Background(), Request{ContentID: "42"})
	require.NoError(t, err)
	assert.Equal(t, 88, resp.Score)
	assert.Equal(t, int32(1), ev.calls.Load())
	assert.Equal(t, 10.0, budget.spent)
}

func TestGatewayRetriesAfterSoftTimeout(t *testing.T) {
	ev := &scripted{steps: []func(context.Context) (*Response, error){hang, ok(70)}}
	resp, err := New(ev, nil, fastOpts(), nil).Evaluate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 70, resp.Score)
	assert.Equal(t, int32(2), ev.calls.Load())
}

func TestGatewayRetriesAfterUpstreamError(t *testing.T) {
	ev := &scripted{steps: []func(context.Context) (*Response, error){fail, ok(60)}}
	resp, err := New(ev, nil, fastOpts(), nil).Evaluate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 60, resp.Score)
}

func TestGatewayHardTimeout(t *testing.T) {
	ev := &scripted{steps: []func(context.Context) (*Response, error){hang}}
	start := time.Now()
	_, err := New(ev, nil, fastOpts(), nil).Evaluate(context.Background(), Request{})
	assert.ErrorIs(t, err, model.ErrUpstreamTimeout)
	assert.Equal(t, int32(2), ev.calls.Load())
	assert.Less(t, time.Since(start), time.Second)
}

func TestGatewayNoRetryWithoutBudget(t *testing.T) {
	opts := Options{SoftTimeout: 30 * time.Millisecond, HardTimeout: 40 * time.Millisecond, MinRetryBudget: 50 * time.Millisecond}
	ev := &scripted{steps: []func(context.Context) (*Response, error){hang}}
	_, err := New(ev, nil, opts, nil).Evaluate(context.Background(), Request{})
	assert.ErrorIs(t, err, model.ErrUpstreamTimeout)
	assert.Equal(t, int32(1), ev.calls.Load())
}

func TestGatewayPersistentError(t *testing.T) {
	ev := &scripted{steps: []func(context.Context) (*Response, error){fail}}
	_, err := New(ev, nil, fastOpts(), nil).Evaluate(context.Background(), Request{})
	assert.ErrorIs(t, err, model.ErrUpstreamError)
	assert.Equal(t, int32(2), ev.calls.Load())
}

func TestGatewayBudgetExhausted(t *testing.T) {
	ev := &scripted{steps: []func(context.Context) (*Response, error){ok(90)}}
	_, err := New(ev, &countingBudget{allow: false}, fastOpts(), nil).Evaluate(context.Background(), Request{})
	assert.ErrorIs(t, err, model.ErrBudgetExhausted)
	assert.Zero(t, ev.calls.Load())
}

func TestGatewayLowRateBudgetAllowsFirstCall(t *testing.T) {
	ev := &scripted{steps: []func(context.Context) (*Response, error){ok(75)}}
	opts := fastOpts()
	opts.EstimatedUnits = 400
	gw := New(ev, telemetry.NewBudget(1, 0), opts, nil)

	resp, err := gw.Evaluate(context.Background(), Request{ContentID: "42"})
	require.NoError(t, err)
	assert.Equal(t, 75, resp.Score)
	assert.Equal(t, int32(1), ev.calls.Load())
}

func TestParseVerdict(t *testing.T) {
	resp, err := parseVerdict("```json\n{\"score\": 92.4, \"feedback\": \"Bien.\", \"errorClassifications\": [\"missing_diacritic\"]}\n```", "test")
	require.NoError(t, err)
	assert.Equal(t, 92, resp.Score)
	assert.Equal(t, []string{}, resp.ImprovementList)
	assert.Equal(t, []string{"missing_diacritic"}, resp.ErrorTags)

	for _, raw := range []string{
		`not json`,
		`{"feedback": "x"}`,
		`{"score": 140, "feedback": "x"}`,
		`{"score": -1, "feedback": "x"}`,
		`{"score": 50, "feedback": " "}`,
	} {
		_, err := parseVerdict(raw, "test")
		assert.ErrorIs(t, err, model.ErrUpstreamError, raw)
	}
}

func TestMockEvaluator(t *testing.T) {
	m := &MockEvaluator{}
	resp, err := m.Evaluate(context.Background(), Request{Input: "bebo café", ReferenceForms: []string{"Bebo café"}})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Score)

	resp, err = m.Evaluate(context.Background(), Request{Input: "bebo leche", ReferenceForms: []string{"bebo café"}})
	require.NoError(t, err)
	assert.Equal(t, 33, resp.Score)

	_, err = m.Evaluate(context.Background(), Request{Input: "x"})
	assert.ErrorIs(t, err, model.ErrUpstreamError)
}
