package capture

import (
	"regexp"
	"strings"
)

// PrivacyFilter detects payment-card numbers so sensitive captures are never
// hashed, stored or logged. Any match rejects the whole capture; there is no
// partial redaction.
//
// TODO: suppress capture entirely while the focused field is a secure text
// entry, once a portable way to detect that exists.
type PrivacyFilter struct{}

func NewPrivacyFilter() *PrivacyFilter {
	return &PrivacyFilter{}
}

// Card-number patterns for the four major networks, checked against the text
// with spaces and hyphens stripped. Each pattern encodes the network's prefix
// and digit-count rules and is bounded by non-digits so it cannot match
// inside a longer digit run.
var cardPatterns = []*regexp.Regexp{
	// Visa: prefix 4, 13/16/19 digits.
	regexp.MustCompile(`(?:^|[^0-9])(4\d{12}(?:\d{3})?(?:\d{3})?)(?:[^0-9]|$)`),
	// Mastercard: 51-55 or 2221-2720, 16 digits.
	regexp.MustCompile(`(?:^|[^0-9])((?:5[1-5]\d{2}|222[1-9]|22[3-9]\d|2[3-6]\d{2}|27[01]\d|2720)\d{12})(?:[^0-9]|$)`),
	// American Express: 34 or 37, 15 digits.
	regexp.MustCompile(`(?:^|[^0-9])(3[47]\d{13})(?:[^0-9]|$)`),
	// Discover: 6011, 65, or 644-649, 16 digits.
	regexp.MustCompile(`(?:^|[^0-9])((?:6011|65\d{2}|64[4-9]\d)\d{12})(?:[^0-9]|$)`),
}

var separatorStripper = strings.NewReplacer(" ", "", "-", "")

func (f *PrivacyFilter) ContainsSensitiveData(text string) bool {
	stripped := separatorStripper.Replace(text)

	for _, p := range cardPatterns {
		if p.MatchString(stripped) {
			return true
		}
	}

	return false
}
