package reconciler

import (
	"testing"
	"time"

	"leadcall_backend/internal/calls/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenTranscript(t *testing.T) {
	turns := []transport.TranscriptTurn{
		{Role: "agent", Content: " Hola "},
		{Role: "user", Content: "Buenas"},
		{Role: "user", Content: "   "},
		{Role: "transfer_target", Content: "Le paso"},
	}
	assert.Equal(t, "Agente: Hola\nCliente: Buenas\ntransfer_target: Le paso", FlattenTranscript(turns, "ignored"))
	assert.Equal(t, "plain text", FlattenTranscript(nil, "  plain text "))
	assert.Empty(t, FlattenTranscript(nil, ""))
}

func TestDurationSeconds(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(95*time.Second + 600*time.Millisecond)

	ms := int64(1499)
	got := DurationSeconds(&ms, &start, &end)
	require.NotNil(t, got)
	assert.Equal(t, 1, *got)

	got = DurationSeconds(nil, &start, &end)
	require.NotNil(t, got)
	assert.Equal(t, 96, *got)

	assert.Nil(t, DurationSeconds(nil, nil, &end))
	assert.Nil(t, DurationSeconds(nil, &end, &start))
}

func TestMapSentiment(t *testing.T) {
	assert.Equal(t, "positivo", MapSentiment("Positive"))
	assert.Equal(t, "negativo", MapSentiment("negative"))
	assert.Equal(t, "neutral", MapSentiment("neutral"))
	assert.Equal(t, "neutral", MapSentiment("Unknown"))
	assert.Equal(t, "neutral", MapSentiment(""))
}
