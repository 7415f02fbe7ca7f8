package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"sync"
	"time"

	callrepo "leadcall_backend/internal/calls/repository"
	"leadcall_backend/internal/calls/transport"
	"leadcall_backend/internal/events"
	"leadcall_backend/internal/summarizer"

	"github.com/google/uuid"
)

// memoryCalls mirrors the repository's upsert semantics in memory, including
// the analyzed_at guard on UpsertEnded.
type memoryCalls struct {
	mu      sync.Mutex
	rows    map[string]*callrepo.Call
	fail    error
	upserts int
}

func newMemoryCalls() *memoryCalls {
	return &memoryCalls{rows: map[string]*callrepo.Call{}}
}

func (m *memoryCalls) CreateStarted(_ context.Context, p callrepo.StartParams) (callrepo.Call, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return callrepo.Call{}, false, m.fail
	}
	if existing, ok := m.rows[p.ProviderCallID]; ok {
		return *existing, false, nil
	}
	started := p.StartedAt
	row := &callrepo.Call{
		ID:             uuid.New(),
		ProviderCallID: p.ProviderCallID,
		AgentID:        p.AgentID,
		LeadID:         p.LeadID,
		Direction:      p.Direction,
		FromNumber:     p.FromNumber,
		ToNumber:       p.ToNumber,
		Status:         callrepo.StatusInProgress,
		StartedAt:      &started,
		Metadata:       p.Metadata,
	}
	m.rows[p.ProviderCallID] = row
	return *row, true, nil
}

func (m *memoryCalls) UpsertEnded(_ context.Context, p callrepo.EndParams) (callrepo.Call, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return callrepo.Call{}, m.fail
	}
	m.upserts++
	row, ok := m.rows[p.ProviderCallID]
	if !ok {
		row = &callrepo.Call{ID: uuid.New(), ProviderCallID: p.ProviderCallID}
		m.rows[p.ProviderCallID] = row
	}
	row.AgentID = coalesce(p.AgentID, row.AgentID)
	if p.LeadID != nil {
		row.LeadID = p.LeadID
	}
	row.Direction = coalesce(p.Direction, row.Direction)
	row.FromNumber = coalesce(p.FromNumber, row.FromNumber)
	row.ToNumber = coalesce(p.ToNumber, row.ToNumber)
	row.Status = p.Status
	if p.StartedAt != nil {
		row.StartedAt = p.StartedAt
	}
	ended := p.EndedAt
	row.EndedAt = &ended
	if p.DurationSeconds != nil {
		row.DurationSeconds = p.DurationSeconds
	}
	row.RecordingURL = coalesce(p.RecordingURL, row.RecordingURL)
	if p.TranscriptObject != nil {
		row.TranscriptObject, _ = json.Marshal(p.TranscriptObject)
	}
	row.Transcript = coalesce(p.Transcript, row.Transcript)
	row.TranscriptKey = coalesce(p.TranscriptKey, row.TranscriptKey)
	row.Intencion = &p.Intencion
	row.Resultado = &p.Resultado
	if row.AnalyzedAt != nil {
		row.Resumen = coalesce(row.Resumen, &p.Resumen)
		row.Sentimiento = coalesce(row.Sentimiento, &p.Sentimiento)
		merged := map[string]any{}
		maps.Copy(merged, p.DatosExtraidos)
		maps.Copy(merged, row.DatosExtraidos)
		row.DatosExtraidos = merged
		row.CallSuccessful = coalesce(row.CallSuccessful, p.CallSuccessful)
	} else {
		row.Resumen = &p.Resumen
		row.Sentimiento = &p.Sentimiento
		row.DatosExtraidos = p.DatosExtraidos
		row.CallSuccessful = coalesce(p.CallSuccessful, row.CallSuccessful)
	}
	if p.Metadata != nil {
		row.Metadata = p.Metadata
	}
	return *row, nil
}

func (m *memoryCalls) UpdateAnalysis(_ context.Context, id string, p callrepo.AnalysisParams) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return false, m.fail
	}
	row, ok := m.rows[id]
	if !ok {
		return false, nil
	}
	row.Resumen = coalesce(p.Resumen, row.Resumen)
	row.Sentimiento = coalesce(p.Sentimiento, row.Sentimiento)
	if p.DatosExtraidos != nil {
		merged := map[string]any{}
		maps.Copy(merged, row.DatosExtraidos)
		maps.Copy(merged, p.DatosExtraidos)
		row.DatosExtraidos = merged
	}
	if p.CallSuccessful != nil {
		row.CallSuccessful = p.CallSuccessful
	}
	analyzedAt := time.Now()
	row.AnalyzedAt = &analyzedAt
	return true, nil
}

func (m *memoryCalls) FindByProviderCallID(_ context.Context, id string) (callrepo.Call, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return callrepo.Call{}, callrepo.ErrNotFound
	}
	return *row, nil
}

func (m *memoryCalls) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func coalesce[T any](next, current *T) *T {
	if next != nil {
		return next
	}
	return current
}

type stubLeads struct {
	byID    map[uuid.UUID]bool
	byPhone map[string]uuid.UUID
	err     error
}

func (s stubLeads) LeadByID(_ context.Context, id uuid.UUID) (*uuid.UUID, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !s.byID[id] {
		return nil, nil
	}
	return &id, nil
}

func (s stubLeads) LeadByPhone(_ context.Context, phone string) (*uuid.UUID, error) {
	if s.err != nil {
		return nil, s.err
	}
	id, ok := s.byPhone[phone]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

type stubSummarizer struct {
	analysis summarizer.Analysis
	calls    int
	got      string
}

func (s *stubSummarizer) Summarize(_ context.Context, transcript string) summarizer.Analysis {
	s.calls++
	s.got = transcript
	return s.analysis
}

type failingCompleter struct{}

func (failingCompleter) Complete(context.Context, string, string) (string, error) {
	return "", errors.New("provider unavailable")
}

type stubArchive struct {
	keys []string
	err  error
}

func (s *stubArchive) ArchiveTranscript(_ context.Context, callID, _ string, _ []transport.TranscriptTurn) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	key := "calls/" + callID + "/transcript.json"
	s.keys = append(s.keys, key)
	return key, nil
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, evt events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, evt)
}

func (b *recordingBus) PublishSync(ctx context.Context, evt events.Event) error {
	b.Publish(ctx, evt)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) snapshot() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.published...)
}

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
