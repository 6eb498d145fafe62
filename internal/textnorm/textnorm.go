// Package textnorm canonicalizes learner submissions into comparison keys.
//
// Normalize keeps diacritics and is the form stored on evaluation records.
// Fold additionally strips combining marks and is only used for matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases, drops punctuation and control characters and
// collapses whitespace. It is pure, total and idempotent.
func Normalize(raw string) string {
	s := norm.NFC.String(raw)
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return ' '
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			return ' '
		}
		return unicode.ToLower(r)
	}, s)
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// Fold returns Normalize(s) with diacritics removed ("café" -> "cafe").
// A token made only of combining marks disappears entirely.
func Fold(s string) string {
	s = Normalize(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(folded), " ")
}

// Tokens splits a normalized string on whitespace.
func Tokens(s string) []string {
	return strings.Fields(s)
}

// FoldToken folds a single token without re-normalizing it.
func FoldToken(tok string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, tok)
	if err != nil {
		return tok
	}
	return folded
}
