package service

import (
	"context"
	"sync"

	"lingocache/internal/model"
)

// ContentSource supplies reference forms by content id. A nil item with a
// nil error means the id is unknown.
type ContentSource interface {
	GetContent(ctx context.Context, contentID string) (*model.ContentItem, error)
}

// StaticContent is an in-memory ContentSource
type StaticContent struct {
	mu    sync.RWMutex
	items map[string]*model.ContentItem
}

func NewStaticContent(items ...*model.ContentItem) *StaticContent {
	s := &StaticContent{items: make(map[string]*model.ContentItem, len(items))}
	for _, it := range items {
		s.items[it.ContentID] = it
	}
	return s
}

func (s *StaticContent) GetContent(_ context.Context, contentID string) (*model.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[contentID]
	if !ok {
		return nil, nil
	}
	cp := *it
	cp.ReferenceForms = append([]string(nil), it.ReferenceForms...)
	return &cp, nil
}

// Put adds or replaces an item
func (s *StaticContent) Put(item *model.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ContentID] = item
}

// SampleContent is the starter catalog served in memory mode and written by cmd/seed
func SampleContent() []*model.ContentItem {
	return []*model.ContentItem{
		{ContentID: "42", Prompt: "I drink coffee every morning.", Language: "es",
			ReferenceForms: []string{"Bebo café cada mañana", "Tomo café todas las mañanas"}},
		{ContentID: "43", Prompt: "The cats are here.", Language: "es",
			ReferenceForms: []string{"Los gatos están aquí"}},
		{ContentID: "44", Prompt: "I have a dog.", Language: "es",
			ReferenceForms: []string{"Tengo un perro"}},
		{ContentID: "45", Prompt: "We eat bread in the afternoon.", Language: "es",
			ReferenceForms: []string{"Comemos pan por la tarde", "Comemos pan en la tarde"}},
		{ContentID: "46", Prompt: "My car is new.", Language: "es",
			ReferenceForms: []string{"Mi coche es nuevo", "Mi carro es nuevo"}},
		{ContentID: "47", Prompt: "She wants a juice now.", Language: "es",
			ReferenceForms: []string{"Ella quiere un zumo ahora", "Ella quiere un jugo ahora"}},
	}
}
