package store

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"lingocache/internal/model"
)

// Memory is a process-local Persistence. Records are copied on the way in
// and out so callers never share mutable state with the store.
type Memory struct {
	mu        sync.RWMutex
	records   map[model.Key]*model.EvaluationRecord
	byContent map[string][]model.Key
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		records:   make(map[model.Key]*model.EvaluationRecord),
		byContent: make(map[string][]model.Key),
	}
}

func (m *Memory) Get(ctx context.Context, key model.Key) (*model.EvaluationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[key].Clone(), nil
}

func (m *Memory) Put(ctx context.Context, rec *model.EvaluationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := rec.Key()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[key]; !ok {
		m.byContent[key.ContentID] = append(m.byContent[key.ContentID], key)
	}
	m.records[key] = rec.Clone()
	return nil
}

func (m *Memory) IncrementUsage(ctx context.Context, key model.Key, at time.Time) (*model.EvaluationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	rec.UsageCount++
	rec.LastUsedAt = at
	return rec.Clone(), nil
}

func (m *Memory) ListRecent(ctx context.Context, contentID string, limit int) ([]*model.EvaluationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	keys := m.byContent[contentID]
	if limit <= 0 || limit > len(keys) {
		limit = len(keys)
	}
	// min-heap of the limit most recent records, oldest on top
	h := make(recencyHeap, 0, limit)
	for i, k := range keys {
		e := recent{rec: m.records[k], seq: i}
		if len(h) < limit {
			heap.Push(&h, e)
		} else if h.newer(e, h[0]) {
			h[0] = e
			heap.Fix(&h, 0)
		}
	}
	out := make([]*model.EvaluationRecord, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(recent).rec.Clone()
	}
	m.mu.RUnlock()
	return out, nil
}

type recent struct {
	rec *model.EvaluationRecord
	seq int // insertion order breaks ties, earlier first
}

type recencyHeap []recent

func (h recencyHeap) newer(a, b recent) bool {
	if !a.rec.LastUsedAt.Equal(b.rec.LastUsedAt) {
		return a.rec.LastUsedAt.After(b.rec.LastUsedAt)
	}
	return a.seq < b.seq
}

func (h recencyHeap) Len() int           { return len(h) }
func (h recencyHeap) Less(i, j int) bool { return h.newer(h[j], h[i]) }
func (h recencyHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *recencyHeap) Push(x any)        { *h = append(*h, x.(recent)) }
func (h *recencyHeap) Pop() any {
	old := *h
	e := old[len(old)-1]
	*h = old[:len(old)-1]
	return e
}

// Len returns the number of stored records
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
