// Package phone canonicalizes free-form phone numbers into identity keys.
package phone

import "strings"

// Normalize strips every non-digit and drops the Russian trunk prefix (7 or 8)
// from 11-digit numbers. Empty input yields "".
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) == 11 && (digits[0] == '7' || digits[0] == '8') {
		return digits[1:]
	}
	return digits
}

// Equal reports whether two raw numbers normalize to the same non-empty key.
func Equal(a, b string) bool {
	na := Normalize(a)
	return na != "" && na == Normalize(b)
}
