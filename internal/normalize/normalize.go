// Package normalize cleans catalog input: ISBNs, free text, HTML descriptions and
// accent-insensitive sort keys.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)
	whitespace     = regexp.MustCompile(`\s+`)
	leadingArticle = regexp.MustCompile(`^(the|a|an) `)
)

// ISBN normalizes an ISBN-10 or ISBN-13 to its ISBN-13 digit string.
// Hyphens and spaces are ignored. ok is false when the checksum does not match.
func ISBN(raw string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == 'x' || r == 'X':
			return 'X'
		case r == '-' || unicode.IsSpace(r):
			return -1
		default:
			return '?'
		}
	}, raw)

	switch len(digits) {
	case 10:
		if !validISBN10(digits) {
			return "", false
		}
		return toISBN13(digits[:9]), true
	case 13:
		if !validISBN13(digits) {
			return "", false
		}
		return digits, true
	default:
		return "", false
	}
}

func validISBN10(s string) bool {
	sum := 0
	for i := range 10 {
		c := s[i]
		var v int
		switch {
		case c == 'X' && i == 9:
			v = 10
		case c >= '0' && c <= '9':
			v = int(c - '0')
		default:
			return false
		}
		sum += v * (10 - i)
	}
	return sum%11 == 0
}

func validISBN13(s string) bool {
	if strings.ContainsAny(s, "X?") {
		return false
	}
	return isbn13Check(s[:12]) == s[12]
}

func isbn13Check(first12 string) byte {
	sum := 0
	for i := range 12 {
		d := int(first12[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10)
}

func toISBN13(first9 string) string {
	body := "978" + first9
	return body + string(isbn13Check(body))
}

// Text trims s, drops NUL bytes and collapses runs of whitespace to one space.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Note trims free-form text and drops NUL bytes. Line breaks and inner
// spacing survive.
func Note(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// Fold lowercases s and strips diacritics, so "Les Misérables" and
// "les miserables" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(Text(folded))
}

// SortKey folds a title and drops a leading English article.
func SortKey(title string) string {
	return leadingArticle.ReplaceAllString(Fold(title), "")
}

// Description converts an HTML description to markdown. Plain text passes through.
func Description(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !htmlTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}
