package events

import (
	"leadcall_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Intake Events
// =============================================================================

// OutboundLeadsScheduled is published once per ingestion batch that
// scheduled at least one lead for an outbound call.
type OutboundLeadsScheduled struct {
	BaseEvent
	BatchID   string `json:"batchId"`
	Source    string `json:"source"`
	Scheduled int    `json:"scheduled"`
}

func (e OutboundLeadsScheduled) EventName() string { return "leads.outbound.scheduled" }

// =============================================================================
// Call Events
// =============================================================================

// CallReconciled is published after a provider call event was applied.
type CallReconciled struct {
	BaseEvent
	ProviderCallID string     `json:"providerCallId"`
	Event          string     `json:"event"`
	LeadID         *uuid.UUID `json:"leadId,omitempty"`
	Resultado      string     `json:"resultado,omitempty"`
}

func (e CallReconciled) EventName() string { return "calls.reconciled" }
