package similarity

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheOrderIndependent(t *testing.T) {
	c := NewCache(10)
	calls := 0
	compute := func(a, b string) float64 { calls++; return 0.5 }

	assert.Equal(t, 0.5, c.GetOrCompute("a", "b", "v1", compute))
	assert.Equal(t, 0.5, c.GetOrCompute("b", "a", "v1", compute))
	assert.Equal(t, 1, calls)

	c.GetOrCompute("a", "b", "v2", compute)
	assert.Equal(t, 2, calls)
	assert.Equal(t, PairKey("x", "y", "v"), PairKey("y", "x", "v"))
}

func TestCacheEvictsLRU(t *testing.T) {
	c := NewCache(2)
	compute := func(a, b string) float64 { return 0.1 }
	c.GetOrCompute("a", "1", "v", compute)
	c.GetOrCompute("b", "1", "v", compute)
	c.GetOrCompute("a", "1", "v", compute) // touch a
	c.GetOrCompute("c", "1", "v", compute) // evicts b

	stats := c.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, int64(1), stats.Hits)

	_, ok := c.get(PairKey("b", "1", "v"))
	assert.False(t, ok)
	_, ok = c.get(PairKey("a", "1", "v"))
	assert.True(t, ok)
}

func TestCachedScorerMatchesCold(t *testing.T) {
	scorer := NewScorer(DefaultSynonyms())
	cached := NewCachedScorer(scorer, NewCache(4))
	inputs := []string{"bebo café", "tomo café", "bebo té", "la casa", "el coche rojo", "el carro rojo"}

	for round := 0; round < 3; round++ {
		for _, a := range inputs {
			for _, b := range inputs {
				require.Equal(t, scorer.Score(a, b), cached.Score(a, b))
			}
		}
	}
	assert.Positive(t, cached.Stats().Evictions)
}

func TestCacheConcurrent(t *testing.T) {
	scorer := NewScorer(DefaultSynonyms())
	cached := NewCachedScorer(scorer, NewCache(16))
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				a := fmt.Sprintf("bebo café %d", j%20)
				b := fmt.Sprintf("tomo café %d", (i+j)%20)
				assert.Equal(t, scorer.Score(a, b), cached.Score(a, b))
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, cached.Stats().Size, 16)
}
