package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"lingocache/internal/adjust"
	"lingocache/internal/gateway"
	"lingocache/internal/model"
	"lingocache/internal/rules"
	"lingocache/internal/selector"
	"lingocache/internal/store"
	"lingocache/internal/textnorm"
)

// State is a step of the evaluation pipeline
type State int

const (
	ExactLookup State = iota
	SimilarityLookup
	TemplateAttempt
	ExternalCall
	Persisted
)

func (s State) String() string {
	switch s {
	case ExactLookup:
		return "exact_lookup"
	case SimilarityLookup:
		return "similarity_lookup"
	case TemplateAttempt:
		return "template_attempt"
	case ExternalCall:
		return "external_call"
	case Persisted:
		return "persisted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// FailureNoProvider labels results answered by the mock evaluator because
// no external provider is configured
const FailureNoProvider = "no_provider"

// ExternalEvaluator is the gateway as seen by the orchestrator
type ExternalEvaluator interface {
	Evaluate(ctx context.Context, req gateway.Request) (*gateway.Response, error)
}

// Outcome is the traced result of one orchestration
type Outcome struct {
	Result   *model.EvaluationResult
	Record   *model.EvaluationRecord
	States   []State
	Degraded bool
	Failure  error // gateway failure that forced a degrade
	Shared   bool  // result came from another caller's in-flight evaluation
}

func (o *Outcome) clone() *Outcome {
	c := *o
	res := *o.Result
	res.ImprovementList = append([]string{}, o.Result.ImprovementList...)
	if o.Result.Similarity != nil {
		sim := *o.Result.Similarity
		res.Similarity = &sim
	}
	c.Result = &res
	c.Record = o.Record.Clone()
	c.States = append([]State(nil), o.States...)
	return &c
}

// Options holds orchestration policy
type Options struct {
	Threshold       float64
	MaxInputRunes   int
	AcceptThreshold int
}

// DefaultOptions returns threshold 0.8, 500 runes, acceptable at 70
func DefaultOptions() Options {
	return Options{Threshold: selector.DefaultThreshold, MaxInputRunes: 500, AcceptThreshold: 70}
}

// EvaluationService sequences exact lookup, similarity reuse, rule
// templates and the external evaluator, with one in-flight miss per key.
type EvaluationService struct {
	exact     *store.ExactStore
	selector  *selector.Selector
	adjuster  *adjust.Adjuster
	templates *rules.Evaluator
	external  ExternalEvaluator
	content   ContentSource
	writer    *CacheWriter
	opts      Options
	logger    *slog.Logger
	now       func() time.Time

	flights singleflight.Group
}

// Deps bundles the collaborators of EvaluationService
type Deps struct {
	Exact     *store.ExactStore
	Selector  *selector.Selector
	Adjuster  *adjust.Adjuster
	Templates *rules.Evaluator
	External  ExternalEvaluator
	Content   ContentSource
	Writer    *CacheWriter
}

// NewEvaluationService creates the orchestrator
func NewEvaluationService(deps Deps, opts Options, logger *slog.Logger) *EvaluationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationService{
		exact:     deps.Exact,
		selector:  deps.Selector,
		adjuster:  deps.Adjuster,
		templates: deps.Templates,
		external:  deps.External,
		content:   deps.Content,
		writer:    deps.Writer,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// Evaluate judges rawInput for contentID. Only *model.InputError is
// returned for bad submissions; every other failure degrades to some
// evaluation. A cancelled ctx returns ctx.Err() without aborting the
// shared computation.
func (s *EvaluationService) Evaluate(ctx context.Context, contentID, rawInput string) (*model.EvaluationResult, error) {
	out, err := s.EvaluateTrace(ctx, contentID, rawInput)
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}

// EvaluateTrace is Evaluate with the visited states attached
func (s *EvaluationService) EvaluateTrace(ctx context.Context, contentID, rawInput string) (*Outcome, error) {
	start := s.now()
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return nil, &model.InputError{Reason: "contentId is required"}
	}
	if strings.TrimSpace(rawInput) == "" {
		return nil, &model.InputError{Reason: "input is empty"}
	}
	if s.opts.MaxInputRunes > 0 && utf8.RuneCountInString(rawInput) > s.opts.MaxInputRunes {
		return nil, &model.InputError{Reason: fmt.Sprintf("input exceeds %d characters", s.opts.MaxInputRunes)}
	}
	input := textnorm.Normalize(rawInput)
	if input == "" {
		return nil, &model.InputError{Reason: "input has no words"}
	}

	forms, err := s.referenceForms(ctx, contentID)
	if err != nil {
		return nil, err
	}
	key := model.Key{ContentID: contentID, Input: input}

	if out := s.exactHit(ctx, key, start, nil); out != nil {
		return out, nil
	}

	// the miss path outlives any single caller so waiters still get a result
	flightCtx := context.WithoutCancel(ctx)
	owner := false
	ch := s.flights.DoChan(key.String(), func() (interface{}, error) {
		owner = true
		return s.resolve(flightCtx, key, forms, start)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		out := r.Val.(*Outcome).clone()
		out.Shared = r.Shared
		if !owner {
			s.recordWaiter(ctx, key, out, start)
		}
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// recordWaiter accounts for a caller served by another caller's flight. The
// owner already persisted the record and was charged any external cost.
func (s *EvaluationService) recordWaiter(ctx context.Context, key model.Key, out *Outcome, start time.Time) {
	ev := s.event(key.ContentID, out.Result.ResponseSource, out.Result.SourceKind, start)
	ev.Degraded = out.Degraded
	ev.Failure = model.FailureLabel(out.Failure)
	s.writer.Observe(ctx, ev)
}

func (s *EvaluationService) referenceForms(ctx context.Context, contentID string) ([]string, error) {
	item, err := s.content.GetContent(ctx, contentID)
	if err != nil {
		// keep evaluating without reference forms
		s.logger.Warn("content source unavailable", "contentId", contentID, "error", err)
		return nil, nil
	}
	if item == nil {
		return nil, &model.InputError{Reason: fmt.Sprintf("unknown contentId %q", contentID)}
	}
	return item.ReferenceForms, nil
}

// exactHit bumps usage on a stored record. nil means miss.
func (s *EvaluationService) exactHit(ctx context.Context, key model.Key, start time.Time, states []State) *Outcome {
	rec, err := s.exact.Lookup(ctx, key)
	if err != nil {
		s.logger.Warn("exact lookup failed, treating as miss", "contentId", key.ContentID, "error", err)
		return nil
	}
	if rec == nil {
		return nil
	}
	ev := s.event(key.ContentID, model.ResponseExact, rec.SourceKind, start)
	updated := s.writer.Touch(ctx, rec, ev)
	return &Outcome{
		Result: model.NewResult(updated, model.ResponseExact),
		Record: updated,
		States: append(states, ExactLookup, Persisted),
	}
}

// resolve runs once per key at a time: SimilarityLookup, TemplateAttempt,
// ExternalCall, then Persisted.
func (s *EvaluationService) resolve(ctx context.Context, key model.Key, forms []string, start time.Time) (*Outcome, error) {
	// a previous flight for this key may have just written it
	if out := s.exactHit(ctx, key, start, nil); out != nil {
		return out, nil
	}
	states := []State{ExactLookup, SimilarityLookup}

	match, err := s.selector.SelectBest(ctx, key.ContentID, key.Input, s.opts.Threshold)
	if err != nil {
		s.logger.Warn("similarity lookup failed", "contentId", key.ContentID, "error", err)
	}
	if match != nil {
		rec := s.adjuster.Adjust(match, key.Input, s.now())
		s.writer.Persist(ctx, rec, s.event(key.ContentID, model.ResponseSimilarity, rec.SourceKind, start))
		return s.finish(rec, model.ResponseSimilarity, append(states, Persisted)), nil
	}

	states = append(states, TemplateAttempt)
	tmpl := s.templates.TryTemplate(key.Input, forms)
	if tmpl.Record != nil {
		rec := s.stamp(tmpl.Record, key)
		s.writer.Persist(ctx, rec, s.event(key.ContentID, model.ResponseTemplate, rec.SourceKind, start))
		return s.finish(rec, model.ResponseTemplate, append(states, Persisted)), nil
	}

	states = append(states, ExternalCall)
	resp, err := s.external.Evaluate(ctx, gateway.Request{
		ContentID:      key.ContentID,
		Input:          key.Input,
		ReferenceForms: forms,
	})
	if err == nil && resp.Provider == gateway.MockProvider {
		return s.local(ctx, key, resp, start, append(states, Persisted)), nil
	}
	if err == nil {
		rec := s.stamp(&model.EvaluationRecord{
			NormalizedInput: key.Input,
			Score:           resp.Score,
			IsAcceptable:    resp.Score >= s.opts.AcceptThreshold,
			FeedbackText:    resp.FeedbackText,
			ImprovementList: resp.ImprovementList,
			ErrorTags:       resp.ErrorTags,
			SourceKind:      model.SourceExternal,
		}, key)
		ev := s.event(key.ContentID, model.ResponseExternal, rec.SourceKind, start)
		cost := resp.CostUnits
		ev.CostUnits = &cost
		s.writer.Persist(ctx, rec, ev)
		return s.finish(rec, model.ResponseExternal, append(states, Persisted)), nil
	}

	// degrade: partial template result if any rule fired, naive comparison otherwise
	source := model.ResponseTemplate
	fallback := tmpl.Partial
	if fallback == nil {
		fallback = s.templates.Naive(key.Input, forms)
		source = model.ResponseDegraded
	}
	rec := s.stamp(fallback, key)
	ev := s.event(key.ContentID, source, rec.SourceKind, start)
	ev.Degraded = true
	ev.Failure = model.FailureLabel(err)
	s.logger.Warn("external evaluation unavailable, degraded",
		"contentId", key.ContentID,
		"fallback", rec.SourceKind,
		"error", err,
	)
	s.writer.Persist(ctx, rec, ev)

	out := s.finish(rec, source, append(states, Persisted))
	out.Degraded = true
	out.Failure = err
	return out, nil
}

// local handles a verdict from the offline mock evaluator. It is served as
// a degraded result so it never becomes a similarity anchor or a cached
// external judgment.
func (s *EvaluationService) local(ctx context.Context, key model.Key, resp *gateway.Response, start time.Time, states []State) *Outcome {
	rec := s.stamp(&model.EvaluationRecord{
		NormalizedInput: key.Input,
		Score:           resp.Score,
		IsAcceptable:    resp.Score >= s.opts.AcceptThreshold,
		FeedbackText:    resp.FeedbackText,
		ImprovementList: resp.ImprovementList,
		ErrorTags:       resp.ErrorTags,
		SourceKind:      model.SourceDegraded,
	}, key)
	ev := s.event(key.ContentID, model.ResponseDegraded, rec.SourceKind, start)
	ev.Degraded = true
	ev.Failure = FailureNoProvider
	s.writer.Persist(ctx, rec, ev)

	out := s.finish(rec, model.ResponseDegraded, states)
	out.Degraded = true
	return out
}

func (s *EvaluationService) finish(rec *model.EvaluationRecord, source model.ResponseSource, states []State) *Outcome {
	return &Outcome{
		Result: model.NewResult(rec, source),
		Record: rec,
		States: states,
	}
}

func (s *EvaluationService) stamp(rec *model.EvaluationRecord, key model.Key) *model.EvaluationRecord {
	now := s.now()
	rec.ID = uuid.NewString()
	rec.ContentID = key.ContentID
	rec.NormalizedInput = key.Input
	rec.UsageCount = 1
	rec.CreatedAt = now
	rec.LastUsedAt = now
	return rec
}

func (s *EvaluationService) event(contentID string, source model.ResponseSource, kind model.SourceKind, start time.Time) model.TelemetryEvent {
	return model.TelemetryEvent{
		ContentID:  contentID,
		Source:     source,
		SourceKind: kind,
		LatencyMS:  float64(s.now().Sub(start).Microseconds()) / 1000,
		Timestamp:  s.now(),
	}
}

// IsInputError reports whether err should be shown to the caller as a rejection
func IsInputError(err error) bool {
	return errors.Is(err, model.ErrInput)
}
