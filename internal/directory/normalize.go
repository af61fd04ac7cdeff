package directory

import "strings"

// Normalize strips every non-digit character and keeps the last 10 digits.
// It is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 10 {
		return digits[len(digits)-10:]
	}
	return digits
}
