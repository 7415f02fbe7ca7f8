package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	leadsrepo "leadcall_backend/internal/leads/repository"
	"leadcall_backend/internal/voice"
	"leadcall_backend/platform/logger"
	"leadcall_backend/platform/metrics"
	"leadcall_backend/platform/phone"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	defaultScanBatchSize = 25
	defaultMaxAttempts   = 3
	defaultRetryBackoff  = 15 * time.Minute
	maxScanRounds        = 20
)

// Caller places outbound calls.
type Caller interface {
	CreatePhoneCall(ctx context.Context, call voice.CallRequest) (*voice.PhoneCall, error)
}

// Dialer claims due leads and places their calls.
type Dialer struct {
	leads        leadsrepo.OutboundQueue
	enqueuer     DialEnqueuer
	caller       Caller
	batchSize    int
	maxAttempts  int
	retryBackoff time.Duration
	now          func() time.Time
	log          *logger.Logger
}

type DialerOption func(*Dialer)

// WithRetryBackoff sets the delay unit between failed attempts. The n-th
// failure waits n units.
func WithRetryBackoff(d time.Duration) DialerOption {
	return func(dl *Dialer) { dl.retryBackoff = d }
}

// WithDialerClock replaces time.Now.
func WithDialerClock(now func() time.Time) DialerOption {
	return func(dl *Dialer) { dl.now = now }
}

func NewDialer(leads leadsrepo.OutboundQueue, enqueuer DialEnqueuer, caller Caller, batchSize, maxAttempts int, log *logger.Logger, opts ...DialerOption) *Dialer {
	if batchSize < 1 {
		batchSize = defaultScanBatchSize
	}
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	d := &Dialer{
		leads:        leads,
		enqueuer:     enqueuer,
		caller:       caller,
		batchSize:    batchSize,
		maxAttempts:  maxAttempts,
		retryBackoff: defaultRetryBackoff,
		now:          time.Now,
		log:          log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleOutboundScan moves every due lead to CALLING and queues its dial.
func (d *Dialer) HandleOutboundScan(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOutboundScanPayload(task)
	if err != nil {
		return err
	}

	total := 0
	for round := 0; round < maxScanRounds; round++ {
		claimed, err := d.leads.ClaimDueForCall(ctx, d.now().UTC(), d.batchSize)
		if err != nil {
			return fmt.Errorf("claim due leads: %w", err)
		}
		for _, lead := range claimed {
			d.queueDial(ctx, lead)
		}
		total += len(claimed)
		if len(claimed) < d.batchSize {
			break
		}
	}

	if total > 0 {
		d.log.Info("outbound scan queued dials", "reason", payload.Reason, "batchId", payload.BatchID, "leads", total)
	}
	return nil
}

func (d *Dialer) queueDial(ctx context.Context, lead leadsrepo.Lead) {
	if lead.Phone == nil || strings.TrimSpace(*lead.Phone) == "" {
		d.settleFailure(ctx, lead.ID, d.maxAttempts, "lead has no phone")
		return
	}

	err := d.enqueuer.EnqueueDial(ctx, OutboundDialPayload{
		LeadID:    lead.ID.String(),
		Phone:     *lead.Phone,
		FirstName: lead.FirstName,
		Company:   lead.Company,
		Attempts:  lead.OutboundAttempts,
	})
	if err != nil {
		d.log.Warn("dial enqueue failed", "leadId", lead.ID, "error", err)
		d.settleFailure(ctx, lead.ID, lead.OutboundAttempts+1, "enqueue failed: "+err.Error())
	}
}

// HandleOutboundDial places one call. Provider failures are settled on the
// lead and not retried by the queue: transient ones are rescheduled, a
// rejected request fails the lead at once. Once a call is placed the task is
// never retried.
func (d *Dialer) HandleOutboundDial(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOutboundDialPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("invalid lead id %q: %w", payload.LeadID, asynq.SkipRetry)
	}

	vars := map[string]string{"first_name": payload.FirstName}
	if payload.Company != nil {
		vars["company"] = *payload.Company
	}

	call, err := d.caller.CreatePhoneCall(ctx, voice.CallRequest{
		ToNumber: payload.Phone,
		Metadata: map[string]any{
			"lead_id": payload.LeadID,
			"region":  phone.Region(payload.Phone),
			"attempt": payload.Attempts + 1,
		},
		DynamicVariables: vars,
	})
	if err != nil {
		attempts := payload.Attempts + 1
		var statusErr *voice.StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			attempts = d.maxAttempts
		}
		d.log.Warn("outbound call failed", "leadId", payload.LeadID, "attempt", payload.Attempts+1, "error", err)
		return d.settleFailure(ctx, leadID, attempts, err.Error())
	}

	// The call is already ringing; a queue retry would phone the lead again.
	if err := d.leads.RecordDialAttempt(ctx, leadID); err != nil {
		d.log.DatabaseError("leads.RecordDialAttempt", err)
		metrics.OutboundDials.WithLabelValues("placed").Inc()
		return fmt.Errorf("record dial attempt for placed call %s: %v: %w", call.CallID, err, asynq.SkipRetry)
	}
	metrics.OutboundDials.WithLabelValues("placed").Inc()
	d.log.Info("outbound call placed", "leadId", payload.LeadID, "callId", call.CallID)
	return nil
}

// settleFailure reschedules the lead, or marks it CALL_FAILED once attempts
// reaches the limit.
func (d *Dialer) settleFailure(ctx context.Context, leadID uuid.UUID, attempts int, reason string) error {
	if attempts >= d.maxAttempts {
		metrics.OutboundDials.WithLabelValues("failed").Inc()
		if err := d.leads.MarkCallFailed(ctx, leadID, reason); err != nil {
			d.log.DatabaseError("leads.MarkCallFailed", err)
			return err
		}
		return nil
	}

	metrics.OutboundDials.WithLabelValues("retried").Inc()
	nextAt := d.now().UTC().Add(time.Duration(attempts) * d.retryBackoff)
	if err := d.leads.RescheduleAfterFailure(ctx, leadID, nextAt, reason); err != nil {
		d.log.DatabaseError("leads.RescheduleAfterFailure", err)
		return err
	}
	return nil
}
