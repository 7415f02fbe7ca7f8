// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultCountryCode = "34"
	defaultRegion      = "ES"
	minNormalizedLen   = 9
)

// Normalize canonicalizes a raw phone number. It keeps digits and a leading
// '+', infers +34 for numbers already starting with 34 and for 9-digit
// national numbers starting with 6, 7, 8 or 9, and rejects anything shorter
// than 9 characters. The boolean is false when the number was rejected.
func Normalize(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	for i, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	if !strings.HasPrefix(cleaned, "+") {
		switch {
		case strings.HasPrefix(cleaned, defaultCountryCode):
			cleaned = "+" + cleaned
		case len(cleaned) == 9 && strings.ContainsRune("6789", rune(cleaned[0])):
			cleaned = "+" + defaultCountryCode + cleaned
		}
	}

	if len(cleaned) < minNormalizedLen {
		return "", false
	}
	return cleaned, true
}

// NormalizePtr is Normalize for optional values; nil means absent or rejected.
func NormalizePtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	normalized, ok := Normalize(*raw)
	if !ok {
		return nil
	}
	return &normalized
}

// Region returns the ISO region code for a normalized number, or the default
// region when the number cannot be parsed.
func Region(number string) string {
	parsed, err := phonenumbers.Parse(number, defaultRegion)
	if err != nil {
		return defaultRegion
	}
	region := phonenumbers.GetRegionCodeForNumber(parsed)
	if region == "" || region == "ZZ" {
		return defaultRegion
	}
	return region
}
