package model

import "time"

// TelemetryEvent is a fire-and-forget usage/cost record
type TelemetryEvent struct {
	ID         string         `json:"id" bson:"_id"`
	ContentID  string         `json:"contentId" bson:"contentId"`
	Source     ResponseSource `json:"source" bson:"source"`
	SourceKind SourceKind     `json:"sourceKind" bson:"sourceKind"`
	LatencyMS  float64        `json:"latencyMs" bson:"latencyMs"`
	CostUnits  *float64       `json:"costUnits,omitempty" bson:"costUnits,omitempty"` // Only for external calls
	Degraded   bool           `json:"degraded,omitempty" bson:"degraded,omitempty"`
	Failure    string         `json:"failure,omitempty" bson:"failure,omitempty"` // timeout, upstream_error, budget_exhausted, store_write
	Timestamp  time.Time      `json:"timestamp" bson:"timestamp"`
}

// TelemetrySnapshot aggregates recorded events
type TelemetrySnapshot struct {
	Events        int64                      `json:"events"`
	Dropped       int64                      `json:"dropped"`
	BySource      map[ResponseSource]int64   `json:"bySource"`
	Degraded      int64                      `json:"degraded"`
	CostUnits     float64                    `json:"costUnits"`
	AvgLatencyMS  map[ResponseSource]float64 `json:"avgLatencyMs"`
	ExternalRatio float64                    `json:"externalRatio"` // External calls / all events
}
