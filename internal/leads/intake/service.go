// Package intake turns enrichment batches into leads: it normalizes each
// record, runs the dedup gate, assigns the outbound status and schedule, and
// signals the outbound scheduler once per batch.
package intake

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"leadcall_backend/internal/events"
	"leadcall_backend/internal/leads/domain"
	"leadcall_backend/internal/leads/repository"
	"leadcall_backend/internal/leads/transport"
	"leadcall_backend/platform/logger"
	"leadcall_backend/platform/metrics"
	"leadcall_backend/platform/phone"
	"leadcall_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	// LeadSource tags leads created through the ingestion webhook.
	LeadSource = "enrichment_webhook"

	placeholderEmailDomain = "sin-email.local"
	previewLimit           = 10
)

// Repository is the persistence the intake needs.
type Repository interface {
	repository.DuplicateFinder
	repository.LeadWriter
}

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeDuplicate
)

type recordResult struct {
	outcome outcome
	lead    repository.Lead
	match   string
}

// Service is the intake orchestrator.
type Service struct {
	repo   Repository
	gate   *Gate
	bus    events.Bus
	window domain.DelayWindow
	now    func() time.Time
	rnd    domain.IntN
	log    *logger.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand replaces the random source used for the call delay.
func WithRand(rnd domain.IntN) Option {
	return func(s *Service) { s.rnd = rnd }
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// New creates an intake service. bus may be nil, in which case no scheduler
// signal is emitted.
func New(repo Repository, bus events.Bus, window domain.DelayWindow, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		gate:   NewGate(repo),
		bus:    bus,
		window: window,
		now:    time.Now,
		rnd:    globalRand{},
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest processes every record of an already-validated batch. Record
// failures are counted and reported, never returned as an error.
func (s *Service) Ingest(ctx context.Context, req transport.IngestLeadsRequest) transport.IngestLeadsResponse {
	start := s.now()

	batchID := strings.TrimSpace(req.BatchID)
	if batchID == "" {
		batchID = uuid.NewString()
	}
	ctx = context.WithValue(ctx, logger.BatchIDKey, batchID)
	log := s.log.WithContext(ctx)

	resp := transport.IngestLeadsResponse{
		Success:        true,
		BatchID:        batchID,
		ProcessedLeads: make([]transport.ProcessedLead, 0),
	}
	resp.Stats.Total = len(req.Leads)
	metrics.IntakeBatches.Inc()

	for i, rec := range req.Leads {
		res, err := s.processRecord(ctx, rec, req.Source, batchID)
		if err != nil {
			resp.Stats.Errors++
			metrics.IntakeRecords.WithLabelValues("error", "").Inc()
			log.Warn("lead intake record failed", "index", i, "error", err)
			if len(resp.ErrorDetails) < previewLimit {
				resp.ErrorDetails = append(resp.ErrorDetails, transport.RecordError{
					Index:    i,
					FullName: rec.FullName,
					Error:    err.Error(),
				})
			}
			continue
		}

		if res.outcome == outcomeDuplicate {
			resp.Stats.Duplicates++
			metrics.IntakeRecords.WithLabelValues("duplicate", "").Inc()
			log.Debug("duplicate lead skipped", "index", i, "matchedOn", res.match)
			continue
		}

		resp.Stats.Created++
		switch res.lead.OutboundStatus {
		case domain.StatusNew:
			resp.Stats.Scheduled++
		case domain.StatusIncomplete:
			resp.Stats.Incomplete++
		}
		metrics.IntakeRecords.WithLabelValues("created", string(res.lead.OutboundStatus)).Inc()

		if len(resp.ProcessedLeads) < previewLimit {
			resp.ProcessedLeads = append(resp.ProcessedLeads, toProcessedLead(res.lead))
		}
	}

	if resp.Stats.Scheduled > 0 && s.bus != nil {
		s.bus.Publish(ctx, events.OutboundLeadsScheduled{
			BaseEvent: events.NewBaseEvent(),
			BatchID:   batchID,
			Source:    strings.TrimSpace(req.Source),
			Scheduled: resp.Stats.Scheduled,
		})
	}

	resp.Message = fmt.Sprintf("Processed %d leads: %d created, %d duplicates, %d errors",
		resp.Stats.Total, resp.Stats.Created, resp.Stats.Duplicates, resp.Stats.Errors)
	resp.Duration = fmt.Sprintf("%dms", s.now().Sub(start).Milliseconds())

	log.Info("lead batch processed",
		"total", resp.Stats.Total,
		"created", resp.Stats.Created,
		"duplicates", resp.Stats.Duplicates,
		"incomplete", resp.Stats.Incomplete,
		"scheduled", resp.Stats.Scheduled,
		"errors", resp.Stats.Errors,
	)
	return resp
}

func (s *Service) processRecord(ctx context.Context, rec transport.IncomingLead, batchSource, batchID string) (res recordResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	name := domain.ResolveName(sanitize.Text(rec.FullName), sanitize.Text(rec.FirstName), sanitize.Text(rec.LastName))
	if name.Given == "" {
		return recordResult{}, errors.New("fullName is empty")
	}

	normalizedPhone := phone.NormalizePtr(optional(rec.Phone))
	keys := repository.DedupKeys{
		LinkedinURL: NormalizeLinkedinURL(rec.LinkedinURL),
		Phone:       normalizedPhone,
		Email:       NormalizeEmail(rec.Email),
	}

	match, err := s.gate.Check(ctx, keys)
	if err != nil {
		return recordResult{}, fmt.Errorf("dedup check: %w", err)
	}
	if match != nil {
		return recordResult{outcome: outcomeDuplicate, match: match.Key}, nil
	}

	status := domain.IntakeStatus(normalizedPhone)
	var scheduledAt *time.Time
	if status == domain.StatusNew {
		at := s.window.ScheduleAt(s.now(), s.rnd)
		scheduledAt = &at
	}

	id := uuid.New()
	email := fmt.Sprintf("lead-%s@%s", id, placeholderEmailDomain)
	if keys.Email != nil {
		email = *keys.Email
	}

	enrichmentSource := optional(rec.Source)
	if enrichmentSource == nil {
		enrichmentSource = optional(batchSource)
	}
	sourceDetail := "batch:" + batchID

	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		ID:                      id,
		LinkedinURL:             keys.LinkedinURL,
		Phone:                   normalizedPhone,
		Email:                   email,
		FirstName:               name.Given,
		LastName:                name.Family,
		Company:                 sanitize.Optional(rec.Company),
		CompanySize:             sanitize.Optional(rec.CompanySize),
		Industry:                sanitize.Optional(rec.Industry),
		Role:                    sanitize.Optional(rec.Role),
		City:                    sanitize.Optional(rec.Location),
		Source:                  LeadSource,
		SourceDetail:            &sourceDetail,
		EnrichmentData:          rec.EnrichmentData,
		EnrichmentSource:        enrichmentSource,
		OutboundStatus:          status,
		OutboundCallScheduledAt: scheduledAt,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return recordResult{outcome: outcomeDuplicate, match: "constraint"}, nil
	}
	if err != nil {
		return recordResult{}, fmt.Errorf("create lead: %w", err)
	}

	return recordResult{outcome: outcomeCreated, lead: lead}, nil
}

func toProcessedLead(lead repository.Lead) transport.ProcessedLead {
	item := transport.ProcessedLead{
		ID:     lead.ID.String(),
		Status: string(lead.OutboundStatus),
		Phone:  lead.Phone,
	}
	if lead.OutboundCallScheduledAt != nil {
		at := lead.OutboundCallScheduledAt.UTC().Format(time.RFC3339)
		item.ScheduledAt = &at
	}
	return item
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
