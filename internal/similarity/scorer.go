// Package similarity scores how alike two normalized submissions are and
// memoizes pairwise scores.
package similarity

import (
	"fmt"

	"lingocache/internal/textnorm"
)

const (
	EditWeight   = 0.2
	TokenWeight  = 0.3
	DomainWeight = 0.5
)

// Scorer combines edit distance, token overlap and synonym-aware overlap.
type Scorer struct {
	synonyms *SynonymTable
	version  string
}

// NewScorer creates a scorer. A nil table disables domain rewriting.
func NewScorer(synonyms *SynonymTable) *Scorer {
	var fp uint32
	if synonyms != nil {
		fp = synonyms.fingerprint()
	}
	return &Scorer{
		synonyms: synonyms,
		version:  fmt.Sprintf("v1/%.2f-%.2f-%.2f/%08x", EditWeight, TokenWeight, DomainWeight, fp),
	}
}

// Version identifies the weights and synonym table in use.
func (s *Scorer) Version() string { return s.version }

// Synonyms returns the table backing the domain sub-score.
func (s *Scorer) Synonyms() *SynonymTable { return s.synonyms }

// Score returns a similarity in [0,1]. Inputs are expected to be normalized.
func (s *Scorer) Score(a, b string) float64 {
	if a == b {
		return 1
	}
	fa := textnorm.Tokens(textnorm.Fold(a))
	fb := textnorm.Tokens(textnorm.Fold(b))

	edit := EditScore(a, b)
	token := Jaccard(fa, fb)
	domain := Jaccard(s.synonyms.Canonical(fa), s.synonyms.Canonical(fb))

	return clamp(EditWeight*edit + TokenWeight*token + DomainWeight*domain)
}

// EditScore is 1 - lev(a,b)/max(len) over runes.
func EditScore(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(ra, rb))/float64(longest)
}

// Levenshtein is the classic two-row edit distance.
func Levenshtein[T comparable](a, b []T) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Jaccard is |A∩B| / |A∪B| over token sets. Two empty sets are identical.
func Jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
