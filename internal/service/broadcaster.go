package service

import (
	"context"

	"lingocache/internal/model"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	Broadcast(msgType string, payload interface{})
}

// BroadcastSink forwards telemetry events to live websocket subscribers
type BroadcastSink struct {
	b Broadcaster
}

func NewBroadcastSink(b Broadcaster) *BroadcastSink {
	return &BroadcastSink{b: b}
}

func (s *BroadcastSink) Name() string { return "websocket" }

func (s *BroadcastSink) Record(_ context.Context, ev model.TelemetryEvent) error {
	s.b.Broadcast("evaluation", ev)
	return nil
}
