package intake

import (
	"context"
	"errors"
	"sync"

	"leadcall_backend/internal/events"
	"leadcall_backend/internal/leads/repository"
)

type fakeRepo struct {
	mu        sync.Mutex
	leads     []repository.Lead
	createErr func(params repository.CreateLeadParams) error
	findErr   error
	creates   int
}

func (f *fakeRepo) FindDuplicate(_ context.Context, keys repository.DedupKeys) (*repository.DuplicateMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}

	checks := []struct {
		key   string
		match func(repository.Lead) bool
	}{
		{repository.MatchLinkedinURL, func(l repository.Lead) bool {
			return keys.LinkedinURL != nil && l.LinkedinURL != nil && *l.LinkedinURL == *keys.LinkedinURL
		}},
		{repository.MatchPhone, func(l repository.Lead) bool {
			return keys.Phone != nil && l.Phone != nil && *l.Phone == *keys.Phone
		}},
		{repository.MatchEmail, func(l repository.Lead) bool {
			return keys.Email != nil && l.Email == *keys.Email
		}},
	}
	for _, check := range checks {
		for _, lead := range f.leads {
			if check.match(lead) {
				return &repository.DuplicateMatch{LeadID: lead.ID, Key: check.key}, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		if err := f.createErr(params); err != nil {
			return repository.Lead{}, err
		}
	}
	lead := repository.Lead{
		ID:                      params.ID,
		LinkedinURL:             params.LinkedinURL,
		Phone:                   params.Phone,
		Email:                   params.Email,
		FirstName:               params.FirstName,
		LastName:                params.LastName,
		Company:                 params.Company,
		Role:                    params.Role,
		City:                    params.City,
		Source:                  params.Source,
		SourceDetail:            params.SourceDetail,
		EnrichmentData:          params.EnrichmentData,
		EnrichmentSource:        params.EnrichmentSource,
		OutboundStatus:          params.OutboundStatus,
		OutboundCallScheduledAt: params.OutboundCallScheduledAt,
	}
	f.leads = append(f.leads, lead)
	return lead, nil
}

func (f *fakeRepo) byEmail(email string) (repository.Lead, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, lead := range f.leads {
		if lead.Email == email {
			return lead, true
		}
	}
	return repository.Lead{}, false
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) snapshot() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.published...)
}

var errStore = errors.New("connection reset")
