package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreIdentity(t *testing.T) {
	s := NewScorer(DefaultSynonyms())
	for _, in := range []string{"", "bebo café", "la casa es roja"} {
		assert.Equal(t, 1.0, s.Score(in, in))
	}
}

func TestScoreSymmetric(t *testing.T) {
	s := NewScorer(DefaultSynonyms())
	pairs := [][2]string{
		{"bebo cafe cada manana", "tomo cafe cada manana"},
		{"el perro", "la perra grande"},
		{"", "algo"},
		{"todas las mañanas bebo café", "bebo café cada mañana"},
	}
	for _, p := range pairs {
		assert.Equal(t, s.Score(p[0], p[1]), s.Score(p[1], p[0]), "pair %v", p)
	}
}

func TestScoreBounds(t *testing.T) {
	s := NewScorer(DefaultSynonyms())
	low := s.Score("bebo café cada mañana", "xyzq wvut")
	assert.GreaterOrEqual(t, low, 0.0)
	assert.Less(t, low, 0.2)

	high := s.Score("bebo café", "bebo cafe")
	assert.LessOrEqual(t, high, 1.0)
	assert.Greater(t, high, 0.9)
}

func TestScoreDomainSynonym(t *testing.T) {
	s := NewScorer(DefaultSynonyms())
	got := s.Score("bebo cafe cada manana", "tomo cafe cada manana")
	// edit 1-3/21, token 3/5, domain 1
	want := 0.2*(1-3.0/21) + 0.3*0.6 + 0.5
	assert.InDelta(t, want, got, 1e-9)
	assert.GreaterOrEqual(t, got, 0.85)
}

func TestScoreTimePhrase(t *testing.T) {
	s := NewScorer(DefaultSynonyms())
	withTable := s.Score("bebo café cada mañana", "bebo café todas las mañanas")
	without := NewScorer(nil).Score("bebo café cada mañana", "bebo café todas las mañanas")
	assert.Greater(t, withTable, without)
}

func TestCanonicalLongestPhrase(t *testing.T) {
	tbl := DefaultSynonyms()
	got := tbl.Canonical([]string{"tomo", "jugo", "todas", "las", "mananas"})
	assert.Equal(t, []string{"⟨drink:1s⟩", "⟨juice⟩", "⟨every_morning⟩"}, got)
	assert.True(t, tbl.Equivalent("bebo", "tomo"))
	assert.False(t, tbl.Equivalent("bebo", "bebes"))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, Levenshtein([]rune(""), []rune("")))
	assert.Equal(t, 3, Levenshtein([]rune("kitten"), []rune("sitting")))
	assert.Equal(t, 1, Levenshtein([]rune("café"), []rune("cafe")))
	assert.Equal(t, 1, Levenshtein([]string{"a", "b"}, []string{"b"}))
}

func TestVersionChangesWithTable(t *testing.T) {
	a := NewScorer(DefaultSynonyms())
	b := NewScorer(NewSynonymTable(map[string][]string{"x": {"uno", "one"}}))
	assert.NotEqual(t, a.Version(), b.Version())
	assert.Equal(t, a.Version(), NewScorer(DefaultSynonyms()).Version())
}
