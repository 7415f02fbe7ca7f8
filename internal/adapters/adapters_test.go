package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"leadcall_backend/internal/calls/transport"
	leadsrepo "leadcall_backend/internal/leads/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLeadReader struct {
	byID    map[uuid.UUID]leadsrepo.Lead
	byPhone map[string]leadsrepo.Lead
	err     error
}

func (s stubLeadReader) GetByID(_ context.Context, id uuid.UUID) (leadsrepo.Lead, error) {
	if s.err != nil {
		return leadsrepo.Lead{}, s.err
	}
	lead, ok := s.byID[id]
	if !ok {
		return leadsrepo.Lead{}, leadsrepo.ErrNotFound
	}
	return lead, nil
}

func (s stubLeadReader) FindByPhone(_ context.Context, phone string) (leadsrepo.Lead, error) {
	if s.err != nil {
		return leadsrepo.Lead{}, s.err
	}
	lead, ok := s.byPhone[phone]
	if !ok {
		return leadsrepo.Lead{}, leadsrepo.ErrNotFound
	}
	return lead, nil
}

func TestCallLeadResolver(t *testing.T) {
	lead := leadsrepo.Lead{ID: uuid.New()}
	resolver := NewCallLeadResolver(stubLeadReader{
		byID:    map[uuid.UUID]leadsrepo.Lead{lead.ID: lead},
		byPhone: map[string]leadsrepo.Lead{"+34600111222": lead},
	})
	ctx := context.Background()

	got, err := resolver.LeadByID(ctx, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, lead.ID, *got)

	got, err = resolver.LeadByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = resolver.LeadByPhone(ctx, "+34600111222")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, lead.ID, *got)

	got, err = resolver.LeadByPhone(ctx, "+34999999999")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCallLeadResolverPropagatesErrors(t *testing.T) {
	resolver := NewCallLeadResolver(stubLeadReader{err: errors.New("db down")})
	_, err := resolver.LeadByPhone(context.Background(), "+34600111222")
	require.Error(t, err)
}

type memoryStorage struct {
	bucket, key, contentType string
	body                     []byte
}

func (m *memoryStorage) PutObject(_ context.Context, bucket, key, contentType string, reader io.Reader, _ int64) (string, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	m.bucket, m.key, m.contentType, m.body = bucket, key, contentType, body
	return key, nil
}

func (m *memoryStorage) EnsureBucketExists(context.Context, string) error { return nil }

func TestTranscriptArchiveWritesJSONDocument(t *testing.T) {
	store := &memoryStorage{}
	archive := NewTranscriptArchive(store, "call-transcripts")
	archive.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	turns := []transport.TranscriptTurn{{Role: "agent", Content: "Hola"}, {Role: "user", Content: "Buenas"}}
	key, err := archive.ArchiveTranscript(context.Background(), "call_123", "Agente: Hola\nCliente: Buenas", turns)
	require.NoError(t, err)

	assert.Equal(t, "calls/call_123/transcript.json", key)
	assert.Equal(t, "call-transcripts", store.bucket)
	assert.Equal(t, "application/json", store.contentType)

	var doc transcriptDocument
	require.NoError(t, json.Unmarshal(store.body, &doc))
	assert.Equal(t, "call_123", doc.CallID)
	assert.Equal(t, "Agente: Hola\nCliente: Buenas", doc.Transcript)
	assert.Len(t, doc.Turns, 2)
	assert.Equal(t, 2026, doc.ArchivedAt.Year())
}
