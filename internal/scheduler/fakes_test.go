package scheduler

import (
	"context"
	"sync"
	"time"

	leadsrepo "leadcall_backend/internal/leads/repository"
	"leadcall_backend/internal/voice"

	"github.com/google/uuid"
)

type settled struct {
	id     uuid.UUID
	nextAt time.Time
	reason string
}

type fakeQueue struct {
	mu          sync.Mutex
	due         []leadsrepo.Lead
	claimErr    error
	recordErr   error
	claims      int
	attempts    []uuid.UUID
	rescheduled []settled
	failed      []settled
	called      []uuid.UUID
}

func (q *fakeQueue) ClaimDueForCall(_ context.Context, _ time.Time, limit int) ([]leadsrepo.Lead, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.claims++
	if q.claimErr != nil {
		return nil, q.claimErr
	}
	n := min(limit, len(q.due))
	out := q.due[:n]
	q.due = q.due[n:]
	return out, nil
}

func (q *fakeQueue) RecordDialAttempt(_ context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.recordErr != nil {
		return q.recordErr
	}
	q.attempts = append(q.attempts, id)
	return nil
}

func (q *fakeQueue) RescheduleAfterFailure(_ context.Context, id uuid.UUID, nextAt time.Time, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rescheduled = append(q.rescheduled, settled{id: id, nextAt: nextAt, reason: reason})
	return nil
}

func (q *fakeQueue) MarkCallFailed(_ context.Context, id uuid.UUID, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed = append(q.failed, settled{id: id, reason: reason})
	return nil
}

func (q *fakeQueue) MarkCalled(_ context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.called = append(q.called, id)
	return nil
}

type fakeEnqueuer struct {
	mu       sync.Mutex
	payloads []OutboundDialPayload
	err      error
}

func (e *fakeEnqueuer) EnqueueDial(_ context.Context, payload OutboundDialPayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.payloads = append(e.payloads, payload)
	return nil
}

type fakeCaller struct {
	requests []voice.CallRequest
	err      error
}

func (c *fakeCaller) CreatePhoneCall(_ context.Context, req voice.CallRequest) (*voice.PhoneCall, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	return &voice.PhoneCall{CallID: "call_" + req.ToNumber}, nil
}

type countingTrigger struct {
	mu       sync.Mutex
	payloads []OutboundScanPayload
	err      error
	fired    chan struct{}
}

func (t *countingTrigger) TriggerOutboundScan(_ context.Context, payload OutboundScanPayload) error {
	t.mu.Lock()
	t.payloads = append(t.payloads, payload)
	t.mu.Unlock()
	if t.fired != nil {
		select {
		case t.fired <- struct{}{}:
		default:
		}
	}
	return t.err
}

func (t *countingTrigger) snapshot() []OutboundScanPayload {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]OutboundScanPayload(nil), t.payloads...)
}

func strPtr(s string) *string { return &s }
