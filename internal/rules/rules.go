// Package rules evaluates submissions against known-correct forms using a
// fixed catalog of error patterns, without calling the external evaluator.
package rules

import (
	"fmt"
	"math"
	"strings"

	"lingocache/internal/model"
	"lingocache/internal/similarity"
	"lingocache/internal/textnorm"
)

const (
	PerfectScore = 100

	// charged per discrepancy no rule could classify, for partial results
	unclassifiedDeduction = 15
)

// Config holds scoring policy shared with the adjuster
type Config struct {
	Floor           int
	AcceptThreshold int
}

// Outcome is the result of a template attempt. Record is set only when every
// discrepancy was classified. Partial is a best-effort record when at least
// one was.
type Outcome struct {
	Record       *model.EvaluationRecord
	Partial      *model.EvaluationRecord
	Fired        []Kind
	Unclassified []Discrepancy
}

// Evaluator applies the rule catalog
type Evaluator struct {
	catalog  []Rule
	synonyms *similarity.SynonymTable
	cfg      Config
}

// New creates an evaluator. A nil catalog uses DefaultCatalog.
func New(catalog []Rule, synonyms *similarity.SynonymTable, cfg Config) *Evaluator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Evaluator{catalog: catalog, synonyms: synonyms, cfg: cfg}
}

type firing struct {
	rule   *Rule
	tokens []string
}

// TryTemplate diffs normalizedInput against the closest known-correct form
// and classifies each discrepancy with the first matching rule.
func (e *Evaluator) TryTemplate(normalizedInput string, knownCorrectForms []string) Outcome {
	reference, ok := closest(normalizedInput, knownCorrectForms)
	if !ok {
		return Outcome{}
	}
	discrepancies := diff(normalizedInput, reference)
	if len(discrepancies) == 0 {
		rec := e.record(normalizedInput, PerfectScore, "Correct! Your translation matches the expected answer.", nil, nil)
		return Outcome{Record: rec}
	}

	var order []Kind
	fired := make(map[Kind]*firing)
	var unclassified []Discrepancy
	for _, d := range discrepancies {
		rule := e.classify(d)
		if rule == nil {
			unclassified = append(unclassified, d)
			continue
		}
		f, seen := fired[rule.Kind]
		if !seen {
			f = &firing{rule: rule}
			fired[rule.Kind] = f
			order = append(order, rule.Kind)
		}
		if rule.Kind == AcceptedVariant {
			f.tokens = append(f.tokens, fmt.Sprintf("%q", d.Got))
		} else {
			f.tokens = append(f.tokens, describe(d))
		}
	}
	if len(order) == 0 {
		return Outcome{Unclassified: unclassified}
	}

	// each rule is charged once however many tokens it covers
	deduction := 0
	var feedback, improvements []string
	for _, k := range order {
		f := fired[k]
		deduction += f.rule.Deduction
		list := strings.Join(f.tokens, ", ")
		feedback = append(feedback, fmt.Sprintf(f.rule.Feedback, list))
		if f.rule.Improvement != "" {
			improvements = append(improvements, fmt.Sprintf(f.rule.Improvement, list))
		}
	}

	out := Outcome{Fired: order, Unclassified: unclassified}
	if len(unclassified) == 0 {
		score := max(e.cfg.Floor, PerfectScore-deduction)
		text := strings.Join(feedback, " ")
		if deduction == 0 {
			text = "Correct! " + text
		}
		out.Record = e.record(normalizedInput, score, text, improvements, order)
		return out
	}

	score := max(e.cfg.Floor, PerfectScore-deduction-unclassifiedDeduction*len(unclassified))
	others := make([]string, len(unclassified))
	for i, d := range unclassified {
		others[i] = describe(d)
	}
	feedback = append(feedback, fmt.Sprintf("Other differences from the expected answer %q: %s.", reference, strings.Join(others, ", ")))
	out.Partial = e.record(normalizedInput, score, strings.Join(feedback, " "), improvements, order)
	return out
}

func (e *Evaluator) classify(d Discrepancy) *Rule {
	for i := range e.catalog {
		if e.catalog[i].Detect(d, e.synonyms) {
			return &e.catalog[i]
		}
	}
	return nil
}

func (e *Evaluator) record(input string, score int, feedback string, improvements []string, fired []Kind) *model.EvaluationRecord {
	tags := make([]string, len(fired))
	for i, k := range fired {
		tags[i] = string(k)
	}
	if improvements == nil {
		improvements = []string{}
	}
	return &model.EvaluationRecord{
		NormalizedInput: input,
		Score:           score,
		IsAcceptable:    score >= e.cfg.AcceptThreshold,
		FeedbackText:    feedback,
		ImprovementList: improvements,
		ErrorTags:       tags,
		SourceKind:      model.SourceTemplate,
	}
}

// Naive is the last-resort comparison used when neither the catalog nor the
// external evaluator produced a result.
func (e *Evaluator) Naive(normalizedInput string, knownCorrectForms []string) *model.EvaluationRecord {
	rec := &model.EvaluationRecord{
		NormalizedInput: normalizedInput,
		SourceKind:      model.SourceDegraded,
		ImprovementList: []string{},
	}
	reference, ok := closest(normalizedInput, knownCorrectForms)
	if !ok {
		rec.Score = e.cfg.Floor
		rec.FeedbackText = "We could not review this answer right now. Please try again in a moment."
		return rec
	}
	if reference == normalizedInput {
		rec.Score = PerfectScore
	} else {
		overlap := similarity.Jaccard(textnorm.Tokens(textnorm.Fold(normalizedInput)), textnorm.Tokens(textnorm.Fold(reference)))
		rec.Score = max(e.cfg.Floor, int(math.Round(overlap*PerfectScore)))
		rec.ImprovementList = []string{fmt.Sprintf("Compare your answer with %q.", reference)}
	}
	rec.IsAcceptable = rec.Score >= e.cfg.AcceptThreshold
	rec.FeedbackText = "Detailed review is temporarily unavailable, so this score is a rough comparison with the expected answer."
	return rec
}
