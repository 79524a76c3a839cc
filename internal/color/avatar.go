// Package color derives stable avatar colors and initials for members.
package color

import (
	"hash/fnv"
	"strings"
	"unicode"
)

// palette holds muted colors that keep white initials readable.
var palette = [...]string{
	"#C0504D", "#D9822B", "#C9A227", "#7A9A3A",
	"#3A9A6E", "#2E8B99", "#3B73B9", "#5B5FC7",
	"#8456B8", "#B04E9B", "#A0525F", "#6B7A8F",
}

// ForUser returns the avatar color for userID. The same ID always gets the same color.
func ForUser(userID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return palette[h.Sum32()%uint32(len(palette))]
}

// Initials returns up to two uppercase initials from a display name,
// e.g. "Ursula K. Le Guin" gives "UG".
func Initials(displayName string) string {
	fields := strings.FieldsFunc(displayName, func(r rune) bool {
		return unicode.IsSpace(r) || r == '.' || r == '-'
	})
	if len(fields) == 0 {
		return "?"
	}

	first := []rune(fields[0])[0]
	if len(fields) == 1 {
		return strings.ToUpper(string(first))
	}
	last := []rune(fields[len(fields)-1])[0]
	return strings.ToUpper(string([]rune{first, last}))
}
