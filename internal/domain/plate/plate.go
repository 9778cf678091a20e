// Package plate finds Korean vehicle license plates in free-form text.
//
// The grammar is a heuristic: an optional 1-2 syllable Hangul region/class
// prefix, an optional space, 2-3 digits, one Hangul class syllable, an
// optional space and exactly 4 digits. It covers the old
// "region + 2 digits + letter + 4 digits" plates and the newer
// "3 digits + letter + 4 digits" plates. It is not validated against any
// registry and will both miss unusual plates and match coincidental text.
// The optional spaces accept ASCII whitespace and any Unicode space
// separator, so ideographic and no-break spaces from OCR output match too.
package plate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const grammar = `(?:[가-힣]{1,2})?[\s\p{Zs}]?[0-9]{2,3}[가-힣][\s\p{Zs}]?[0-9]{4}`

var (
	pattern = regexp.MustCompile(grammar)
	full    = regexp.MustCompile(`^` + grammar + `$`)
)

// ExtractAll returns every non-overlapping grammar match in text, left to
// right. Matches keep their inner spacing; the optional space the grammar
// allows in front of the digits is trimmed when no prefix precedes it.
func ExtractAll(text string) []string {
	matches := pattern.FindAllString(text, -1)
	for i, m := range matches {
		matches[i] = trim(m)
	}
	return matches
}

// Extract returns the most plausible plate in text, normalized. When text
// holds several candidates the longest raw match wins, counting the space
// the grammar may take in front of the digits, and ties go to the first
// occurrence. In space-joined OCR text every candidate after the first
// carries that space, so of two equally long plates the later one wins.
// This is a tie-break, not a verification: two real plates in one photo and
// OCR noise look the same to it.
func Extract(text string) (string, bool) {
	best, ok := selectLongest(pattern.FindAllString(text, -1))
	if !ok {
		return "", false
	}
	return Normalize(best), true
}

func selectLongest(candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	best, bestLen := candidates[0], utf8.RuneCountInString(candidates[0])
	for _, c := range candidates[1:] {
		if n := utf8.RuneCountInString(c); n > bestLen {
			best, bestLen = c, n
		}
	}
	return best, true
}

func trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || unicode.Is(unicode.Zs, r)
}

// Normalize removes all whitespace and upper-cases the rest, giving the
// canonical form used for comparisons.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Equal compares two plates after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Matches reports whether s, once normalized, is exactly one plate.
func Matches(s string) bool {
	return full.MatchString(Normalize(s))
}
