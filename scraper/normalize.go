package scraper

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Length bounds applied to extracted strings.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 300
	MaxLocationLen    = 50
)

// NormalizePrice turns price text into an integer amount. All non-digit
// characters are dropped; a "million" or "thousand"/"mille" unit word
// multiplies the result. Unparseable text yields 0.
func NormalizePrice(text string) int64 {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}

	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "million"):
		n *= 1_000_000
	case strings.Contains(lower, "thousand"), strings.Contains(lower, "mille"):
		n *= 1_000
	}
	if n < 0 {
		return 0
	}
	return n
}

// PriceInRange reports whether p lies in the accepted XPF window.
func PriceInRange(p, min, max int64) bool {
	return p >= min && p <= max
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max]))
}

// CollapseSpace trims s and folds internal whitespace runs into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips diacritics so keyword tables can be written
// in plain ASCII ("meuble" matches "meublé").
func Fold(s string) string {
	out, _, err := transform.String(accentFolder, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// Atoi parses a leading integer, 0 when absent.
func Atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
