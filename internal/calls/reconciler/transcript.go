package reconciler

import (
	"math"
	"strings"
	"time"

	"leadcall_backend/internal/calls/transport"
)

// FlattenTranscript renders speaker turns as "Agente: ..." / "Cliente: ..."
// lines. Without turns it falls back to the provider's plain transcript.
func FlattenTranscript(turns []transport.TranscriptTurn, plain string) string {
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		lines = append(lines, speakerLabel(turn.Role)+": "+content)
	}
	if len(lines) == 0 {
		return strings.TrimSpace(plain)
	}
	return strings.Join(lines, "\n")
}

func speakerLabel(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "agent":
		return "Agente"
	case "user":
		return "Cliente"
	case "":
		return "Desconocido"
	default:
		return role
	}
}

// DurationSeconds prefers the provider's duration in milliseconds, rounded to
// the nearest second, and otherwise uses end minus start.
func DurationSeconds(durationMs *int64, startedAt, endedAt *time.Time) *int {
	if durationMs != nil && *durationMs >= 0 {
		seconds := int(math.Round(float64(*durationMs) / 1000))
		return &seconds
	}
	if startedAt != nil && endedAt != nil && !endedAt.Before(*startedAt) {
		seconds := int(math.Round(endedAt.Sub(*startedAt).Seconds()))
		return &seconds
	}
	return nil
}

func fromMillis(ms *int64) *time.Time {
	if ms == nil || *ms <= 0 {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}
