// Package storetest holds a conformance suite shared by every
// store.Persistence implementation.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingocache/internal/model"
	"lingocache/internal/store"
)

// Record builds a minimal external-origin record.
func Record(contentID, input string, score int, usedAt time.Time) *model.EvaluationRecord {
	return &model.EvaluationRecord{
		ID:              contentID + "/" + input,
		ContentID:       contentID,
		NormalizedInput: input,
		Score:           score,
		IsAcceptable:    score >= 70,
		FeedbackText:    "ok",
		ImprovementList: []string{"tip"},
		SourceKind:      model.SourceExternal,
		UsageCount:      1,
		CreatedAt:       usedAt,
		LastUsedAt:      usedAt,
	}
}

// Run exercises p. The backend must start empty.
func Run(t *testing.T, p store.Persistence) {
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("miss", func(t *testing.T) {
		rec, err := p.Get(ctx, model.Key{ContentID: "none", Input: "nothing"})
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("put get upsert", func(t *testing.T) {
		rec := Record("c1", "bebo café", 90, base)
		require.NoError(t, p.Put(ctx, rec))

		got, err := p.Get(ctx, rec.Key())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 90, got.Score)
		assert.Equal(t, []string{"tip"}, got.ImprovementList)
		assert.True(t, got.LastUsedAt.Equal(base))

		rec.Score = 80
		require.NoError(t, p.Put(ctx, rec))
		got, err = p.Get(ctx, rec.Key())
		require.NoError(t, err)
		assert.Equal(t, 80, got.Score)

		list, err := p.ListRecent(ctx, "c1", 10)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("increment", func(t *testing.T) {
		key := model.Key{ContentID: "c1", Input: "bebo café"}
		at := base.Add(time.Hour)
		got, err := p.IncrementUsage(ctx, key, at)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.UsageCount)
		assert.True(t, got.LastUsedAt.Equal(at))

		_, err = p.IncrementUsage(ctx, model.Key{ContentID: "c1", Input: "missing"}, at)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("concurrent increments", func(t *testing.T) {
		rec := Record("c2", "tomo té", 70, base)
		require.NoError(t, p.Put(ctx, rec))

		var wg sync.WaitGroup
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := p.IncrementUsage(ctx, rec.Key(), base.Add(time.Minute))
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := p.Get(ctx, rec.Key())
		require.NoError(t, err)
		assert.Equal(t, int64(41), got.UsageCount)
	})

	t.Run("list recent", func(t *testing.T) {
		for i, in := range []string{"uno", "dos", "tres"} {
			require.NoError(t, p.Put(ctx, Record("c3", in, 50, base.Add(time.Duration(i)*time.Minute))))
		}
		require.NoError(t, p.Put(ctx, Record("other", "uno", 50, base)))

		list, err := p.ListRecent(ctx, "c3", 2)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "tres", list[0].NormalizedInput)
		assert.Equal(t, "dos", list[1].NormalizedInput)

		all, err := p.ListRecent(ctx, "c3", 0)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}
