package redact

import (
	"regexp"
	"strings"
)

// keepDigits is how many trailing digits Mask leaves readable.
const keepDigits = 2

// patterns holds personal-data regexes in priority order.
var patterns = []*regexp.Regexp{
	// Passport series and number: "4500 123456" or "4500123456"
	regexp.MustCompile(`\b\d{4}\s?\d{6}\b`),
	// Phone numbers with optional leading +. Dots are not separators so
	// dd.mm.yyyy dates stay readable.
	regexp.MustCompile(`\+?\d[\d\s()-]{8,}\d`),
}

// Mask hides every digit in s except the last two. Non-digit characters
// are kept so the shape of the value stays recognisable.
func Mask(s string) string {
	total := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			total++
		}
	}
	var sb strings.Builder
	seen := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			seen++
			if seen <= total-keepDigits {
				sb.WriteByte('*')
				continue
			}
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Redact masks passport numbers and phone numbers found in free text.
// The output has the same length in runes as the input.
func Redact(input string) string {
	for _, re := range patterns {
		input = re.ReplaceAllStringFunc(input, Mask)
	}
	return input
}
