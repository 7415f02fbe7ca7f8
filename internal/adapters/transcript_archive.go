package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leadcall_backend/internal/adapters/storage"
	"leadcall_backend/internal/calls/reconciler"
	"leadcall_backend/internal/calls/transport"
)

// TranscriptArchive stores call transcripts as JSON objects.
type TranscriptArchive struct {
	storage storage.StorageService
	bucket  string
	now     func() time.Time
}

// NewTranscriptArchive creates a transcript archive writing to bucket.
func NewTranscriptArchive(storageSvc storage.StorageService, bucket string) *TranscriptArchive {
	return &TranscriptArchive{storage: storageSvc, bucket: bucket, now: time.Now}
}

type transcriptDocument struct {
	CallID     string                     `json:"callId"`
	Transcript string                     `json:"transcript"`
	Turns      []transport.TranscriptTurn `json:"turns,omitempty"`
	ArchivedAt time.Time                  `json:"archivedAt"`
}

// TranscriptKey is the object key for a call's transcript.
func TranscriptKey(providerCallID string) string {
	return fmt.Sprintf("calls/%s/transcript.json", providerCallID)
}

// ArchiveTranscript uploads the transcript and returns its object key.
func (a *TranscriptArchive) ArchiveTranscript(ctx context.Context, providerCallID string, flattened string, turns []transport.TranscriptTurn) (string, error) {
	body, err := json.Marshal(transcriptDocument{
		CallID:     providerCallID,
		Transcript: flattened,
		Turns:      turns,
		ArchivedAt: a.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	return a.storage.PutObject(ctx, a.bucket, TranscriptKey(providerCallID), "application/json", bytes.NewReader(body), int64(len(body)))
}

// Compile-time check.
var _ reconciler.TranscriptArchive = (*TranscriptArchive)(nil)
