package similarity

import (
	"hash/fnv"
	"sort"
	"strings"

	"lingocache/internal/textnorm"
)

// SynonymTable rewrites interchangeable words and phrases to shared
// canonical tokens. Keys are folded, space separated phrases.
type SynonymTable struct {
	entries map[string]string
	maxLen  int // longest phrase, in tokens
}

// NewSynonymTable builds a table from canonical -> variants.
func NewSynonymTable(groups map[string][]string) *SynonymTable {
	t := &SynonymTable{entries: make(map[string]string)}
	for canonical, variants := range groups {
		for _, v := range variants {
			key := textnorm.Fold(v)
			if key == "" {
				continue
			}
			t.entries[key] = canonical
			if n := len(textnorm.Tokens(key)); n > t.maxLen {
				t.maxLen = n
			}
		}
	}
	return t
}

// DefaultSynonyms covers common Spanish interchangeable verb forms and
// time expressions.
func DefaultSynonyms() *SynonymTable {
	return NewSynonymTable(map[string][]string{
		"⟨drink:1s⟩":      {"bebo", "tomo"},
		"⟨drink:2s⟩":      {"bebes", "tomas"},
		"⟨drink:3s⟩":      {"bebe", "toma"},
		"⟨drink:1p⟩":      {"bebemos", "tomamos"},
		"⟨want:1s⟩":       {"quiero", "deseo"},
		"⟨want:3s⟩":       {"quiere", "desea"},
		"⟨car⟩":           {"coche", "carro", "auto", "automóvil"},
		"⟨computer⟩":      {"computadora", "ordenador", "computador"},
		"⟨cellphone⟩":     {"móvil", "celular"},
		"⟨juice⟩":         {"zumo", "jugo"},
		"⟨now⟩":           {"ahora", "ahorita", "en este momento"},
		"⟨every_morning⟩": {"cada mañana", "todas las mañanas"},
		"⟨every_day⟩":     {"cada día", "todos los días", "diariamente"},
		"⟨every_night⟩":   {"cada noche", "todas las noches"},
		"⟨every_week⟩":    {"cada semana", "todas las semanas", "semanalmente"},
		"⟨in_morning⟩":    {"por la mañana", "en la mañana"},
		"⟨in_afternoon⟩":  {"por la tarde", "en la tarde"},
		"⟨in_evening⟩":    {"por la noche", "en la noche"},
		"⟨often⟩":         {"a menudo", "con frecuencia", "frecuentemente"},
	})
}

// Canonical rewrites folded tokens, matching the longest phrase first.
func (t *SynonymTable) Canonical(tokens []string) []string {
	if t == nil || len(t.entries) == 0 {
		return tokens
	}
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		matched := false
		for n := min(t.maxLen, len(tokens)-i); n >= 1; n-- {
			phrase := strings.Join(tokens[i:i+n], " ")
			if c, ok := t.entries[phrase]; ok {
				out = append(out, c)
				i += n
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, tokens[i])
			i++
		}
	}
	return out
}

// Equivalent reports whether two single tokens share a canonical form.
func (t *SynonymTable) Equivalent(a, b string) bool {
	if t == nil {
		return false
	}
	ca, okA := t.entries[textnorm.FoldToken(a)]
	cb, okB := t.entries[textnorm.FoldToken(b)]
	return okA && okB && ca == cb
}

func (t *SynonymTable) fingerprint() uint32 {
	keys := make([]string, 0, len(t.entries))
	for k, v := range t.entries {
		keys = append(keys, k+"="+v)
	}
	sort.Strings(keys)
	h := fnv.New32a()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
	}
	return h.Sum32()
}
