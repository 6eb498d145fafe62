package rules

import (
	"slices"

	"lingocache/internal/similarity"
	"lingocache/internal/textnorm"
)

// DiscrepancyKind is the alignment operation that produced a discrepancy
type DiscrepancyKind string

const (
	Substituted DiscrepancyKind = "substituted" // Got in place of Want
	Missing     DiscrepancyKind = "missing"     // Want absent from the input
	Extra       DiscrepancyKind = "extra"       // Got not in the reference
	Reordered   DiscrepancyKind = "reordered"   // same tokens, different order
)

// Discrepancy is one difference between a submission and a reference form
type Discrepancy struct {
	Kind DiscrepancyKind
	Got  string
	Want string
}

// closest returns the form with the smallest rune edit distance to input.
func closest(input string, forms []string) (string, bool) {
	best, bestDist, found := "", 0, false
	in := []rune(input)
	for _, f := range forms {
		f = textnorm.Normalize(f)
		if f == "" {
			continue
		}
		d := similarity.Levenshtein(in, []rune(f))
		if !found || d < bestDist {
			best, bestDist, found = f, d, true
		}
	}
	return best, found
}

// diff aligns input tokens against reference tokens.
func diff(input, reference string) []Discrepancy {
	got := textnorm.Tokens(input)
	want := textnorm.Tokens(reference)
	if slices.Equal(got, want) {
		return nil
	}
	if sameMultiset(got, want) {
		return []Discrepancy{{Kind: Reordered, Got: input, Want: reference}}
	}
	return align(got, want)
}

func sameMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

// align runs a token-level Levenshtein and walks the table back into
// substitutions, insertions and deletions, in reading order.
func align(got, want []string) []Discrepancy {
	n, m := len(got), len(want)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
		dp[i][0] = i
	}
	for j := 0; j <= m; j++ {
		dp[0][j] = j
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			cost := 1
			if got[i-1] == want[j-1] {
				cost = 0
			}
			dp[i][j] = min(dp[i-1][j]+1, dp[i][j-1]+1, dp[i-1][j-1]+cost)
		}
	}

	var out []Discrepancy
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && got[i-1] == want[j-1] && dp[i][j] == dp[i-1][j-1]:
			i, j = i-1, j-1
		case i > 0 && j > 0 && dp[i][j] == dp[i-1][j-1]+1:
			out = append(out, Discrepancy{Kind: Substituted, Got: got[i-1], Want: want[j-1]})
			i, j = i-1, j-1
		case i > 0 && dp[i][j] == dp[i-1][j]+1:
			out = append(out, Discrepancy{Kind: Extra, Got: got[i-1]})
			i--
		default:
			out = append(out, Discrepancy{Kind: Missing, Want: want[j-1]})
			j--
		}
	}
	slices.Reverse(out)
	return out
}
