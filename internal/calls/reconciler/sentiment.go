package reconciler

import (
	"strings"

	"leadcall_backend/internal/summarizer"
)

// MapSentiment translates the provider's sentiment label. Unknown or missing
// labels map to neutral.
func MapSentiment(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "positive":
		return summarizer.SentimientoPositivo
	case "negative":
		return summarizer.SentimientoNegativo
	default:
		return summarizer.SentimientoNeutral
	}
}
