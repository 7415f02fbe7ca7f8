package scheduler

import (
	"context"

	"leadcall_backend/internal/calls/transport"
	"leadcall_backend/internal/events"
	"leadcall_backend/platform/logger"

	"github.com/google/uuid"
)

// LeadCallSettler closes the outbound cycle of a lead once its call ended.
type LeadCallSettler interface {
	MarkCalled(ctx context.Context, id uuid.UUID) error
}

// Subscriber connects domain events to the outbound queue.
type Subscriber struct {
	trigger ScanTrigger
	leads   LeadCallSettler
	log     *logger.Logger
}

func NewSubscriber(trigger ScanTrigger, leads LeadCallSettler, log *logger.Logger) *Subscriber {
	return &Subscriber{trigger: trigger, leads: leads, log: log}
}

// RegisterHandlers subscribes to intake and call events.
func (s *Subscriber) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.OutboundLeadsScheduled{}.EventName(), s)
	bus.Subscribe(events.CallReconciled{}.EventName(), s)
}

// Handle routes events. Errors are logged by the bus and never reach the
// publisher.
func (s *Subscriber) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.OutboundLeadsScheduled:
		return s.handleLeadsScheduled(ctx, e)
	case events.CallReconciled:
		return s.handleCallReconciled(ctx, e)
	}
	return nil
}

func (s *Subscriber) handleLeadsScheduled(ctx context.Context, e events.OutboundLeadsScheduled) error {
	if s.trigger == nil {
		return nil
	}
	err := s.trigger.TriggerOutboundScan(ctx, OutboundScanPayload{Reason: "intake", BatchID: e.BatchID})
	if err != nil {
		s.log.Warn("outbound scan trigger failed", "batchId", e.BatchID, "scheduled", e.Scheduled, "error", err)
	}
	return err
}

func (s *Subscriber) handleCallReconciled(ctx context.Context, e events.CallReconciled) error {
	if s.leads == nil || e.Event != transport.EventCallEnded || e.LeadID == nil {
		return nil
	}
	if err := s.leads.MarkCalled(ctx, *e.LeadID); err != nil {
		s.log.Warn("mark lead called failed", "leadId", *e.LeadID, "callId", e.ProviderCallID, "error", err)
		return err
	}
	return nil
}
