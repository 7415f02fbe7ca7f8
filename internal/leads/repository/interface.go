package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// DuplicateFinder runs the dedup gate query.
type DuplicateFinder interface {
	FindDuplicate(ctx context.Context, keys DedupKeys) (*DuplicateMatch, error)
}

// LeadWriter creates leads.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
}

// LeadReader looks up existing leads.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	FindByPhone(ctx context.Context, phone string) (Lead, error)
}

// OutboundQueue is used by the dialer to claim and settle leads.
type OutboundQueue interface {
	ClaimDueForCall(ctx context.Context, now time.Time, limit int) ([]Lead, error)
	RecordDialAttempt(ctx context.Context, id uuid.UUID) error
	RescheduleAfterFailure(ctx context.Context, id uuid.UUID, nextAt time.Time, reason string) error
	MarkCallFailed(ctx context.Context, id uuid.UUID, reason string) error
	MarkCalled(ctx context.Context, id uuid.UUID) error
}

// LeadsRepository composes every lead persistence capability.
type LeadsRepository interface {
	DuplicateFinder
	LeadWriter
	LeadReader
	OutboundQueue
}

var _ LeadsRepository = (*Repository)(nil)
