package adapters

import (
	"context"
	"errors"

	"leadcall_backend/internal/calls/reconciler"
	leadsrepo "leadcall_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// CallLeadResolver adapts the leads repository for call-to-lead association.
type CallLeadResolver struct {
	leads leadsrepo.LeadReader
}

// NewCallLeadResolver creates a new call lead resolver adapter.
func NewCallLeadResolver(leads leadsrepo.LeadReader) *CallLeadResolver {
	return &CallLeadResolver{leads: leads}
}

// LeadByID confirms that the lead exists.
func (a *CallLeadResolver) LeadByID(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	lead, err := a.leads.GetByID(ctx, id)
	return leadIDOrNil(lead, err)
}

// LeadByPhone finds the lead owning a normalized phone number.
func (a *CallLeadResolver) LeadByPhone(ctx context.Context, phone string) (*uuid.UUID, error) {
	lead, err := a.leads.FindByPhone(ctx, phone)
	return leadIDOrNil(lead, err)
}

func leadIDOrNil(lead leadsrepo.Lead, err error) (*uuid.UUID, error) {
	if errors.Is(err, leadsrepo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	id := lead.ID
	return &id, nil
}

// Compile-time check.
var _ reconciler.LeadLookup = (*CallLeadResolver)(nil)
