package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingocache/internal/model"
)

func TestMemoryCopiesRecords(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	rec := &model.EvaluationRecord{ContentID: "c", NormalizedInput: "x", Score: 50, ImprovementList: []string{"a"}}
	require.NoError(t, m.Put(ctx, rec))

	rec.ImprovementList[0] = "mutated"
	got, err := m.Get(ctx, rec.Key())
	require.NoError(t, err)
	assert.Equal(t, "a", got.ImprovementList[0])

	got.Score = 1
	again, _ := m.Get(ctx, rec.Key())
	assert.Equal(t, 50, again.Score)
	assert.Equal(t, 1, m.Len())
}

type failingBackend struct{ Persistence }

func (failingBackend) Get(context.Context, model.Key) (*model.EvaluationRecord, error) {
	return nil, errors.New("connection refused")
}

func TestExactStoreWrapsBackendErrors(t *testing.T) {
	s := NewExactStore(failingBackend{})
	_, err := s.Lookup(context.Background(), model.Key{ContentID: "c", Input: "x"})
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)

	ok := NewExactStore(NewMemory())
	rec, err := ok.Lookup(context.Background(), model.Key{ContentID: "c", Input: "x"})
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory().IncrementUsage(ctx, model.Key{}, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryListRecentTopN(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// insertion order unrelated to recency
	const n = 500
	for i := 0; i < n; i++ {
		minute := (i * 7919) % n
		require.NoError(t, m.Put(ctx, &model.EvaluationRecord{
			ContentID:       "c",
			NormalizedInput: fmt.Sprintf("input %d", minute),
			LastUsedAt:      base.Add(time.Duration(minute) * time.Minute),
		}))
	}

	got, err := m.ListRecent(ctx, "c", 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, rec := range got {
		assert.Equal(t, fmt.Sprintf("input %d", n-1-i), rec.NormalizedInput)
	}

	all, err := m.ListRecent(ctx, "c", 0)
	require.NoError(t, err)
	assert.Len(t, all, n)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].LastUsedAt.After(all[i-1].LastUsedAt))
	}
}

func TestMemoryListRecentTiesKeepInsertionOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"a", "b", "c", "d"} {
		require.NoError(t, m.Put(ctx, &model.EvaluationRecord{ContentID: "c", NormalizedInput: in, LastUsedAt: at}))
	}

	got, err := m.ListRecent(ctx, "c", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].NormalizedInput)
	assert.Equal(t, "b", got[1].NormalizedInput)
	assert.Equal(t, "c", got[2].NormalizedInput)
}
