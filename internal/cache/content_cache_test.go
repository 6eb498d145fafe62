package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingocache/internal/model"
)

type countingLoader struct {
	items map[string]*model.ContentItem
	calls int
}

func (l *countingLoader) GetContent(_ context.Context, id string) (*model.ContentItem, error) {
	l.calls++
	return l.items[id], nil
}

func TestContentCacheReadThrough(t *testing.T) {
	_, client := newRedis(t)
	loader := &countingLoader{items: map[string]*model.ContentItem{
		"42": {ContentID: "42", ReferenceForms: []string{"Bebo café cada mañana"}},
	}}
	c := NewContentCache(client, loader, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		item, err := c.GetContent(ctx, "42")
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, []string{"Bebo café cada mañana"}, item.ReferenceForms)
	}
	assert.Equal(t, 1, loader.calls)

	require.NoError(t, c.Invalidate(ctx, "42"))
	_, err := c.GetContent(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls)

	missing, err := c.GetContent(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestContentCacheRedisDown(t *testing.T) {
	mr, client := newRedis(t)
	loader := &countingLoader{items: map[string]*model.ContentItem{"1": {ContentID: "1"}}}
	c := NewContentCache(client, loader, nil)
	mr.Close()

	item, err := c.GetContent(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "1", item.ContentID)
}

// memoryContent is a loader that can also be written to
type memoryContent struct {
	countingLoader
}

func (m *memoryContent) Upsert(_ context.Context, item *model.ContentItem) error {
	m.items[item.ContentID] = item
	return nil
}

func TestContentCachePublishRefreshesCachedItem(t *testing.T) {
	_, client := newRedis(t)
	src := &memoryContent{countingLoader{items: map[string]*model.ContentItem{
		"42": {ContentID: "42", ReferenceForms: []string{"Bebo café"}},
	}}}
	c := NewContentCache(client, src, nil)
	ctx := context.Background()

	item, err := c.GetContent(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bebo café"}, item.ReferenceForms)

	require.NoError(t, c.Publish(ctx, src, &model.ContentItem{
		ContentID: "42", ReferenceForms: []string{"Bebo café", "Tomo café"},
	}))

	item, err = c.GetContent(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bebo café", "Tomo café"}, item.ReferenceForms)
	assert.Equal(t, 2, src.calls)
}
