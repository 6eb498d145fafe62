package model

import "time"

// SourceKind records how an evaluation was produced
type SourceKind string

const (
	SourceExternal SourceKind = "external" // Fresh judgment from the external evaluator
	SourceTemplate SourceKind = "template" // Rule catalog match
	SourceAdjusted SourceKind = "adjusted" // Derived from a near-match record
	SourceDegraded SourceKind = "degraded" // Naive local comparison, evaluator unavailable
)

// Priority ranks sources as similarity targets. Higher wins ties.
func (k SourceKind) Priority() int {
	switch k {
	case SourceExternal:
		return 3
	case SourceTemplate:
		return 2
	case SourceAdjusted:
		return 1
	default:
		return 0
	}
}

// ResponseSource labels which pipeline stage answered a request
type ResponseSource string

const (
	ResponseExact      ResponseSource = "exact"
	ResponseSimilarity ResponseSource = "similarity"
	ResponseTemplate   ResponseSource = "template"
	ResponseExternal   ResponseSource = "external"
	ResponseDegraded   ResponseSource = "degraded" // naive local comparison
)

// ConfidenceTier qualifies a near-match
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// EvaluationRecord is one stored judgment for a (contentId, normalizedInput) pair
type EvaluationRecord struct {
	ID              string     `json:"id" bson:"recordId"`
	ContentID       string     `json:"contentId" bson:"contentId"`
	NormalizedInput string     `json:"normalizedInput" bson:"normalizedInput"`
	Score           int        `json:"score" bson:"score"` // 0-100
	IsAcceptable    bool       `json:"isAcceptable" bson:"isAcceptable"`
	FeedbackText    string     `json:"feedbackText" bson:"feedbackText"`
	ImprovementList []string   `json:"improvementList,omitempty" bson:"improvementList,omitempty"`
	ErrorTags       []string   `json:"errorTags,omitempty" bson:"errorTags,omitempty"` // Classifications (rule kinds or evaluator tags)
	SourceKind      SourceKind `json:"sourceKind" bson:"sourceKind"`
	DerivedFrom     string     `json:"derivedFrom,omitempty" bson:"derivedFrom,omitempty"` // Base record ID for adjusted records
	Similarity      float64    `json:"similarity,omitempty" bson:"similarity,omitempty"`   // Set on adjusted records
	UsageCount      int64      `json:"usageCount" bson:"usageCount"`
	CreatedAt       time.Time  `json:"createdAt" bson:"createdAt"`
	LastUsedAt      time.Time  `json:"lastUsedAt" bson:"lastUsedAt"`
}

// Key returns the exact-match key of the record
func (r *EvaluationRecord) Key() Key {
	return Key{ContentID: r.ContentID, Input: r.NormalizedInput}
}

// Clone returns a deep copy safe to hand to another caller
func (r *EvaluationRecord) Clone() *EvaluationRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.ImprovementList != nil {
		c.ImprovementList = append([]string(nil), r.ImprovementList...)
	}
	if r.ErrorTags != nil {
		c.ErrorTags = append([]string(nil), r.ErrorTags...)
	}
	return &c
}

// Key identifies a record in the exact-match store
type Key struct {
	ContentID string
	Input     string // Normalized input
}

func (k Key) String() string {
	return k.ContentID + "\x1f" + k.Input
}

// CandidateMatch is a transient scoring of one stored record against an input
type CandidateMatch struct {
	Record     *EvaluationRecord
	Similarity float64
	Tier       ConfidenceTier
}

// EvaluationResult is what callers of Evaluate receive
type EvaluationResult struct {
	Score           int            `json:"score"`
	IsAcceptable    bool           `json:"isAcceptable"`
	FeedbackText    string         `json:"feedbackText"`
	ImprovementList []string       `json:"improvementList"`
	SourceKind      SourceKind     `json:"sourceKind"`
	Similarity      *float64       `json:"similarity,omitempty"` // Only for similarity-derived answers
	ResponseSource  ResponseSource `json:"responseSource"`
	UsageCount      int64          `json:"usageCount"`
}

// NewResult builds a caller-facing result from a record
func NewResult(rec *EvaluationRecord, source ResponseSource) *EvaluationResult {
	improvements := rec.ImprovementList
	if improvements == nil {
		improvements = []string{}
	}
	res := &EvaluationResult{
		Score:           rec.Score,
		IsAcceptable:    rec.IsAcceptable,
		FeedbackText:    rec.FeedbackText,
		ImprovementList: append([]string(nil), improvements...),
		SourceKind:      rec.SourceKind,
		ResponseSource:  source,
		UsageCount:      rec.UsageCount,
	}
	if rec.SourceKind == SourceAdjusted {
		sim := rec.Similarity
		res.Similarity = &sim
	}
	return res
}
