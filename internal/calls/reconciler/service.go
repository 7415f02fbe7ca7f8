// Package reconciler applies voice-provider call events to the call record:
// one row per provider call id, built up from started, ended and analyzed
// events that may arrive in any order.
package reconciler

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"
	"unicode/utf8"

	callrepo "leadcall_backend/internal/calls/repository"
	"leadcall_backend/internal/calls/transport"
	"leadcall_backend/internal/events"
	"leadcall_backend/internal/summarizer"
	"leadcall_backend/platform/apperr"
	"leadcall_backend/platform/logger"
	"leadcall_backend/platform/metrics"
	"leadcall_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	// StatusEnded is used when the provider does not report a status on call_ended.
	StatusEnded = "ended"
	// MetadataLeadID is the metadata key the dialer sets on outbound calls.
	MetadataLeadID = "lead_id"

	minSummarizeChars = 50
)

// ErrMissingCallID is returned for a known event without a call id.
var ErrMissingCallID = errors.New("call.call_id is required")

// LeadLookup resolves the lead a call belongs to. Both methods return nil
// without error when no lead matches.
type LeadLookup interface {
	LeadByID(ctx context.Context, id uuid.UUID) (*uuid.UUID, error)
	LeadByPhone(ctx context.Context, phone string) (*uuid.UUID, error)
}

// Summarizer produces the AI analysis of a transcript and never fails.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) summarizer.Analysis
}

// TranscriptArchive stores the full transcript outside the database and
// returns the object key.
type TranscriptArchive interface {
	ArchiveTranscript(ctx context.Context, providerCallID string, flattened string, turns []transport.TranscriptTurn) (string, error)
}

// Service reconciles provider call events.
type Service struct {
	calls      callrepo.CallStore
	leads      LeadLookup
	summarizer Summarizer
	archive    TranscriptArchive
	bus        events.Bus
	now        func() time.Time
	log        *logger.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithArchive enables transcript archiving.
func WithArchive(archive TranscriptArchive) Option {
	return func(s *Service) { s.archive = archive }
}

// WithEventBus publishes CallReconciled after each applied event.
func WithEventBus(bus events.Bus) Option {
	return func(s *Service) { s.bus = bus }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a reconciler.
func New(calls callrepo.CallStore, leads LeadLookup, sum Summarizer, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		calls:      calls,
		leads:      leads,
		summarizer: sum,
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle applies one provider event. Unknown event kinds and analysis for
// unknown calls are logged and ignored. Only storage failures and a missing
// call id are returned.
func (s *Service) Handle(ctx context.Context, evt transport.WebhookEvent) error {
	log := s.log.WithContext(ctx).With("event", evt.Event, "callId", evt.Call.CallID)

	switch evt.Event {
	case transport.EventCallStarted, transport.EventCallEnded, transport.EventCallAnalyzed:
	default:
		metrics.CallEvents.WithLabelValues("unknown", "ignored").Inc()
		log.Info("ignoring unknown call event")
		return nil
	}

	if strings.TrimSpace(evt.Call.CallID) == "" {
		metrics.CallEvents.WithLabelValues(evt.Event, "invalid").Inc()
		return ErrMissingCallID
	}

	var err error
	switch evt.Event {
	case transport.EventCallStarted:
		err = s.callStarted(ctx, evt.Call)
	case transport.EventCallEnded:
		err = s.callEnded(ctx, evt.Call)
	case transport.EventCallAnalyzed:
		err = s.callAnalyzed(ctx, evt.Call)
	}
	if err != nil {
		metrics.CallEvents.WithLabelValues(evt.Event, "error").Inc()
		return err
	}
	metrics.CallEvents.WithLabelValues(evt.Event, "ok").Inc()
	return nil
}

func (s *Service) callStarted(ctx context.Context, call transport.ProviderCall) error {
	startedAt := s.now().UTC()
	if ts := fromMillis(call.StartTimestamp); ts != nil {
		startedAt = *ts
	}

	leadID := s.resolveLead(ctx, call)
	row, created, err := s.calls.CreateStarted(ctx, callrepo.StartParams{
		ProviderCallID: call.CallID,
		AgentID:        optional(call.AgentID),
		LeadID:         leadID,
		Direction:      optional(call.Direction),
		FromNumber:     optional(call.FromNumber),
		ToNumber:       optional(call.ToNumber),
		StartedAt:      startedAt,
		Metadata:       call.Metadata,
	})
	if err != nil {
		return s.storageError("calls.CreateStarted", err)
	}
	if !created {
		s.log.Info("call_started for existing call left unchanged", "callId", call.CallID, "status", row.Status)
		return nil
	}

	s.publish(ctx, call.CallID, transport.EventCallStarted, row.LeadID, "")
	return nil
}

func (s *Service) callEnded(ctx context.Context, call transport.ProviderCall) error {
	startedAt := fromMillis(call.StartTimestamp)
	endedAt := s.now().UTC()
	if ts := fromMillis(call.EndTimestamp); ts != nil {
		endedAt = *ts
	}

	flattened := FlattenTranscript(call.TranscriptObject, call.Transcript)
	analysis := s.analyze(ctx, call.CallID, flattened)
	analysis = overlayProviderAnalysis(analysis, call.CallAnalysis)

	status := strings.TrimSpace(call.CallStatus)
	if status == "" {
		status = StatusEnded
	}

	params := callrepo.EndParams{
		ProviderCallID:  call.CallID,
		AgentID:         optional(call.AgentID),
		LeadID:          s.resolveLead(ctx, call),
		Direction:       optional(call.Direction),
		FromNumber:      optional(call.FromNumber),
		ToNumber:        optional(call.ToNumber),
		Status:          status,
		StartedAt:       startedAt,
		EndedAt:         endedAt,
		DurationSeconds: DurationSeconds(call.DurationMs, startedAt, &endedAt),
		RecordingURL:    optional(call.RecordingURL),
		Transcript:      optional(flattened),
		Resumen:         analysis.Resumen,
		Sentimiento:     analysis.Sentimiento,
		Intencion:       analysis.Intencion,
		DatosExtraidos:  analysis.DatosExtraidos,
		Resultado:       analysis.Resultado,
		Metadata:        call.Metadata,
	}
	if len(call.TranscriptObject) > 0 {
		params.TranscriptObject = call.TranscriptObject
	}
	if call.CallAnalysis != nil {
		params.CallSuccessful = call.CallAnalysis.CallSuccessful
	}
	params.TranscriptKey = s.archiveTranscript(ctx, call, flattened)

	row, err := s.calls.UpsertEnded(ctx, params)
	if err != nil {
		return s.storageError("calls.UpsertEnded", err)
	}

	s.publish(ctx, call.CallID, transport.EventCallEnded, row.LeadID, analysis.Resultado)
	return nil
}

func (s *Service) callAnalyzed(ctx context.Context, call transport.ProviderCall) error {
	ca := call.CallAnalysis
	if ca == nil {
		s.log.Info("call_analyzed without analysis ignored", "callId", call.CallID)
		return nil
	}

	params := callrepo.AnalysisParams{
		Resumen:        optional(ca.CallSummary),
		DatosExtraidos: ca.CustomAnalysisData,
		CallSuccessful: ca.CallSuccessful,
	}
	if strings.TrimSpace(ca.UserSentiment) != "" {
		mapped := MapSentiment(ca.UserSentiment)
		params.Sentimiento = &mapped
	}

	found, err := s.calls.UpdateAnalysis(ctx, call.CallID, params)
	if err != nil {
		return s.storageError("calls.UpdateAnalysis", err)
	}
	if !found {
		s.log.Info("call_analyzed for unknown call ignored", "callId", call.CallID)
		return nil
	}

	s.publish(ctx, call.CallID, transport.EventCallAnalyzed, nil, "")
	return nil
}

// storageError logs a failed write and returns it as an internal error so
// the webhook answers 5xx and the provider redelivers.
func (s *Service) storageError(op string, err error) error {
	s.log.DatabaseError(op, err)
	return apperr.Wrap(apperr.KindInternal, "failed to record call event", err).WithOp(op)
}

func (s *Service) analyze(ctx context.Context, callID, flattened string) summarizer.Analysis {
	if s.summarizer == nil || utf8.RuneCountInString(flattened) <= minSummarizeChars {
		return summarizer.Neutral()
	}
	analysis := s.summarizer.Summarize(ctx, flattened)
	if analysis.DatosExtraidos == nil {
		analysis.DatosExtraidos = map[string]any{}
	}
	s.log.Debug("transcript summarized", "callId", callID, "resultado", analysis.Resultado)
	return analysis
}

// overlayProviderAnalysis lets the provider's own summary, sentiment and
// custom data win over the AI result.
func overlayProviderAnalysis(analysis summarizer.Analysis, ca *transport.CallAnalysis) summarizer.Analysis {
	if ca == nil {
		return analysis
	}
	if summary := strings.TrimSpace(ca.CallSummary); summary != "" {
		analysis.Resumen = summary
	}
	if strings.TrimSpace(ca.UserSentiment) != "" {
		analysis.Sentimiento = MapSentiment(ca.UserSentiment)
	}
	if len(ca.CustomAnalysisData) > 0 {
		merged := make(map[string]any, len(analysis.DatosExtraidos)+len(ca.CustomAnalysisData))
		maps.Copy(merged, analysis.DatosExtraidos)
		maps.Copy(merged, ca.CustomAnalysisData)
		analysis.DatosExtraidos = merged
	}
	return analysis
}

// resolveLead tries the dialer's lead_id metadata, then the caller's number,
// then the dialed number for outbound calls. Lookup failures leave the call
// unassociated.
func (s *Service) resolveLead(ctx context.Context, call transport.ProviderCall) *uuid.UUID {
	if s.leads == nil {
		return nil
	}

	if raw, ok := call.Metadata[MetadataLeadID].(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			leadID, err := s.leads.LeadByID(ctx, id)
			if err != nil {
				s.log.Warn("lead lookup for call failed", "callId", call.CallID, "error", err)
			} else if leadID != nil {
				return leadID
			}
		}
	}

	numbers := []string{call.FromNumber}
	if strings.EqualFold(call.Direction, "outbound") {
		numbers = append(numbers, call.ToNumber)
	}
	for _, raw := range numbers {
		normalized, ok := phone.Normalize(raw)
		if !ok {
			continue
		}
		leadID, err := s.leads.LeadByPhone(ctx, normalized)
		if err != nil {
			s.log.Warn("lead lookup for call failed", "callId", call.CallID, "error", err)
			continue
		}
		if leadID != nil {
			return leadID
		}
	}
	return nil
}

func (s *Service) archiveTranscript(ctx context.Context, call transport.ProviderCall, flattened string) *string {
	if s.archive == nil || flattened == "" {
		return nil
	}
	key, err := s.archive.ArchiveTranscript(ctx, call.CallID, flattened, call.TranscriptObject)
	if err != nil {
		s.log.Warn("transcript archive failed", "callId", call.CallID, "error", err)
		return nil
	}
	return &key
}

func (s *Service) publish(ctx context.Context, callID, event string, leadID *uuid.UUID, resultado string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.CallReconciled{
		BaseEvent:      events.NewBaseEvent(),
		ProviderCallID: callID,
		Event:          event,
		LeadID:         leadID,
		Resultado:      resultado,
	})
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
