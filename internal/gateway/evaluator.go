package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"lingocache/internal/model"
)

// Request is what the external evaluator is asked to judge
type Request struct {
	ContentID      string
	Input          string // normalized submission
	ReferenceForms []string
}

// Response is a parsed verdict from the external evaluator
type Response struct {
	Score           int
	FeedbackText    string
	ImprovementList []string
	ErrorTags       []string
	CostUnits       float64
	Provider        string
}

// Evaluator is one external evaluation provider
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, req Request) (*Response, error)
}

// verdict is the JSON document every provider is asked to return
type verdict struct {
	Score           *float64 `json:"score"`
	Feedback        string   `json:"feedback"`
	Improvements    []string `json:"improvements"`
	Classifications []string `json:"errorClassifications"`
}

func buildPrompt(req Request) string {
	forms := "- " + strings.Join(req.ReferenceForms, "\n- ")
	if len(req.ReferenceForms) == 0 {
		forms = "(none provided)"
	}
	return fmt.Sprintf(`You are grading a Spanish translation exercise. Return ONLY valid JSON matching this schema:
{
  "score": 0 to 100,
  "feedback": "two or three sentences addressed to the learner",
  "improvements": ["concrete suggestion"],
  "errorClassifications": ["missing_diacritic", "gender_agreement", "number_agreement", "word_order", "spelling", "vocabulary", "grammar"]
}

Exercise: %s
Accepted translations:
%s
Learner's answer: %s

Score 100 means fully correct. Minor accent slips cost about 5 points. Meaning errors cost much more.
Only list classifications that apply.`,
		req.ContentID, forms, req.Input)
}

// parseVerdict decodes a provider payload. Markdown fences are tolerated.
func parseVerdict(raw, provider string) (*Response, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var v verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil {
		return nil, fmt.Errorf("%w: %s returned malformed JSON: %v", model.ErrUpstreamError, provider, err)
	}
	if v.Score == nil || *v.Score < 0 || *v.Score > 100 {
		return nil, fmt.Errorf("%w: %s returned an out of range score", model.ErrUpstreamError, provider)
	}
	if strings.TrimSpace(v.Feedback) == "" {
		return nil, fmt.Errorf("%w: %s returned empty feedback", model.ErrUpstreamError, provider)
	}
	if v.Improvements == nil {
		v.Improvements = []string{}
	}
	return &Response{
		Score:           int(*v.Score + 0.5),
		FeedbackText:    v.Feedback,
		ImprovementList: v.Improvements,
		ErrorTags:       v.Classifications,
		Provider:        provider,
	}, nil
}

// estimateUnits approximates token usage when a provider reports none.
func estimateUnits(prompt, completion string) float64 {
	return float64(len(prompt)+len(completion)) / 4
}
