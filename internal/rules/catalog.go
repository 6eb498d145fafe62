package rules

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"lingocache/internal/similarity"
	"lingocache/internal/textnorm"
)

// Kind names a rule in the catalog
type Kind string

const (
	AcceptedVariant    Kind = "accepted_variant"
	MissingDiacritic   Kind = "missing_diacritic"
	MisplacedDiacritic Kind = "misplaced_diacritic"
	GenderAgreement    Kind = "gender_agreement"
	NumberAgreement    Kind = "number_agreement"
	MissingArticle     Kind = "missing_article"
	ExtraArticle       Kind = "extra_article"
	Spelling           Kind = "spelling"
	WordOrder          Kind = "word_order"
)

// Rule is one catalog entry. Detect sees a single discrepancy; Feedback and
// Improvement are formatted with the affected tokens.
type Rule struct {
	Kind        Kind
	Deduction   int
	Detect      func(d Discrepancy, syn *similarity.SynonymTable) bool
	Feedback    string
	Improvement string
}

var articles = map[string]bool{
	"el": true, "la": true, "los": true, "las": true,
	"un": true, "una": true, "unos": true, "unas": true,
	"lo": true, "al": true, "del": true,
}

var genderPairs = pairSet(
	"el", "la", "los", "las", "un", "una", "unos", "unas",
	"este", "esta", "estos", "estas", "ese", "esa", "esos", "esas",
	"aquel", "aquella", "aquellos", "aquellas", "nuestro", "nuestra",
)

var numberPairs = pairSet(
	"el", "los", "la", "las", "un", "unos", "una", "unas",
	"este", "estos", "esta", "estas", "ese", "esos", "esa", "esas",
)

func pairSet(words ...string) map[[2]string]bool {
	s := make(map[[2]string]bool, len(words))
	for i := 0; i+1 < len(words); i += 2 {
		s[[2]string{words[i], words[i+1]}] = true
		s[[2]string{words[i+1], words[i]}] = true
	}
	return s
}

// DefaultCatalog returns the rules in priority order.
func DefaultCatalog() []Rule {
	return []Rule{
		{
			Kind:      AcceptedVariant,
			Deduction: 0,
			Detect: func(d Discrepancy, syn *similarity.SynonymTable) bool {
				return d.Kind == Substituted && syn.Equivalent(d.Got, d.Want)
			},
			Feedback: "Good choice of words: %s is also correct.",
		},
		{
			Kind:      MissingDiacritic,
			Deduction: 5,
			Detect: func(d Discrepancy, _ *similarity.SynonymTable) bool {
				return d.Kind == Substituted && sameLetters(d) && marks(d.Got) < marks(d.Want)
			},
			Feedback:    "Watch the accents: %s.",
			Improvement: "Add the missing accent marks (%s).",
		},
		{
			Kind:      MisplacedDiacritic,
			Deduction: 4,
			Detect: func(d Discrepancy, _ *similarity.SynonymTable) bool {
				return d.Kind == Substituted && sameLetters(d)
			},
			Feedback:    "Check where the accent goes: %s.",
			Improvement: "Place the accent on the right letter (%s).",
		},
		{
			Kind:      GenderAgreement,
			Deduction: 10,
			Detect: func(d Discrepancy, _ *similarity.SynonymTable) bool {
				return d.Kind == Substituted && genderSwap(fold(d.Got), fold(d.Want))
			},
			Feedback:    "Check gender agreement: %s.",
			Improvement: "Make articles and adjectives agree in gender with the noun (%s).",
		},
		{
			Kind:      NumberAgreement,
			Deduction: 8,
			Detect: func(d Discrepancy, _ *similarity.SynonymTable) bool {
				return d.Kind == Substituted && numberSwap(fold(d.Got), fold(d.Want))
			},
			Feedback:    "Check singular and plural agreement: %s.",
			Improvement: "Match the number of the noun (%s).",
		},
		{
			Kind:      MissingArticle,
			Deduction: 5,
			Detect: func(d Discrepancy, _ *similarity.SynonymTable) bool {
				return d.Kind == Missing && articles[fold(d.Want)]
			},
			Feedback:    "An article is missing: %s.",
			Improvement: "Spanish usually needs the article here (%s).",
		},
		{
			Kind:      ExtraArticle,
			Deduction: 5,
			Detect: func(d Discrepancy, _ *similarity.SynonymTable) bool {
				return d.Kind == Extra && articles[fold(d.Got)]
			},
			Feedback:    "There is an extra article: %s.",
			Improvement: "Drop the article (%s).",
		},
		{
			Kind:      Spelling,
			Deduction: 3,
			Detect: func(d Discrepancy, _ *similarity.SynonymTable) bool {
				if d.Kind != Substituted || len([]rune(d.Want)) < 4 {
					return false
				}
				return similarity.Levenshtein([]rune(fold(d.Got)), []rune(fold(d.Want))) == 1
			},
			Feedback:    "Small spelling slip: %s.",
			Improvement: "Double-check the spelling (%s).",
		},
		{
			Kind:      WordOrder,
			Deduction: 10,
			Detect: func(d Discrepancy, _ *similarity.SynonymTable) bool {
				return d.Kind == Reordered
			},
			Feedback:    "The words are right but the order is off: %s.",
			Improvement: "Follow the expected word order (%s).",
		},
	}
}

func fold(tok string) string {
	return textnorm.FoldToken(tok)
}

func sameLetters(d Discrepancy) bool {
	return d.Got != d.Want && fold(d.Got) == fold(d.Want)
}

// marks counts combining marks in the decomposed token.
func marks(tok string) int {
	n := 0
	for _, r := range norm.NFD.String(tok) {
		if unicode.Is(unicode.Mn, r) {
			n++
		}
	}
	return n
}

func genderSwap(got, want string) bool {
	if genderPairs[[2]string{got, want}] {
		return true
	}
	if len(got) != len(want) || len(got) < 3 {
		return false
	}
	for _, pair := range [][2]string{{"o", "a"}, {"os", "as"}} {
		for _, p := range [][2]string{pair, {pair[1], pair[0]}} {
			if strings.HasSuffix(got, p[0]) && strings.HasSuffix(want, p[1]) &&
				strings.TrimSuffix(got, p[0]) == strings.TrimSuffix(want, p[1]) {
				return true
			}
		}
	}
	return false
}

func numberSwap(got, want string) bool {
	if numberPairs[[2]string{got, want}] {
		return true
	}
	for _, suffix := range []string{"s", "es"} {
		if got+suffix == want || want+suffix == got {
			return true
		}
	}
	return false
}

func describe(d Discrepancy) string {
	switch d.Kind {
	case Missing:
		return fmt.Sprintf("%q", d.Want)
	case Extra:
		return fmt.Sprintf("%q", d.Got)
	case Reordered:
		return fmt.Sprintf("expected %q", d.Want)
	default:
		return fmt.Sprintf("%q should be %q", d.Got, d.Want)
	}
}
