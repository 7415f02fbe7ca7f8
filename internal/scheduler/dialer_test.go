package scheduler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	leadsrepo "leadcall_backend/internal/leads/repository"
	"leadcall_backend/internal/voice"
	"leadcall_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dialNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func newTestDialer(queue *fakeQueue, enq *fakeEnqueuer, caller *fakeCaller, batch int) *Dialer {
	return NewDialer(queue, enq, caller, batch, 3, logger.Nop(),
		WithRetryBackoff(10*time.Minute),
		WithDialerClock(func() time.Time { return dialNow }),
	)
}

func dueLead(phone *string, attempts int) leadsrepo.Lead {
	return leadsrepo.Lead{ID: uuid.New(), Phone: phone, FirstName: "Jane", Company: strPtr("Acme"), OutboundAttempts: attempts}
}

func scanTask(t *testing.T) *asynq.Task {
	task, err := NewOutboundScanTask(OutboundScanPayload{Reason: "intake", BatchID: "b-1"})
	require.NoError(t, err)
	return task
}

func dialTask(t *testing.T, payload OutboundDialPayload) *asynq.Task {
	task, err := NewOutboundDialTask(payload)
	require.NoError(t, err)
	return task
}

func TestScanQueuesDialForEveryDueLead(t *testing.T) {
	queue := &fakeQueue{due: []leadsrepo.Lead{
		dueLead(strPtr("+34600111222"), 0),
		dueLead(strPtr("+34600111333"), 1),
		dueLead(strPtr("+34600111444"), 0),
	}}
	enq := &fakeEnqueuer{}
	d := newTestDialer(queue, enq, &fakeCaller{}, 2)

	require.NoError(t, d.HandleOutboundScan(context.Background(), scanTask(t)))

	require.Len(t, enq.payloads, 3)
	assert.Equal(t, 2, queue.claims)
	assert.Equal(t, "+34600111333", enq.payloads[1].Phone)
	assert.Equal(t, 1, enq.payloads[1].Attempts)
	assert.Equal(t, "Jane", enq.payloads[0].FirstName)
}

func TestScanClaimErrorIsReturned(t *testing.T) {
	d := newTestDialer(&fakeQueue{claimErr: errors.New("db down")}, &fakeEnqueuer{}, &fakeCaller{}, 10)
	assert.Error(t, d.HandleOutboundScan(context.Background(), scanTask(t)))
}

func TestScanLeadWithoutPhoneIsFailed(t *testing.T) {
	lead := dueLead(nil, 0)
	queue := &fakeQueue{due: []leadsrepo.Lead{lead}}
	enq := &fakeEnqueuer{}
	d := newTestDialer(queue, enq, &fakeCaller{}, 10)

	require.NoError(t, d.HandleOutboundScan(context.Background(), scanTask(t)))
	assert.Empty(t, enq.payloads)
	require.Len(t, queue.failed, 1)
	assert.Equal(t, lead.ID, queue.failed[0].id)
}

func TestScanEnqueueFailureReschedules(t *testing.T) {
	lead := dueLead(strPtr("+34600111222"), 0)
	queue := &fakeQueue{due: []leadsrepo.Lead{lead}}
	d := newTestDialer(queue, &fakeEnqueuer{err: errors.New("redis down")}, &fakeCaller{}, 10)

	require.NoError(t, d.HandleOutboundScan(context.Background(), scanTask(t)))
	require.Len(t, queue.rescheduled, 1)
	assert.Equal(t, dialNow.Add(10*time.Minute), queue.rescheduled[0].nextAt)
}

func TestDialPlacesCallWithLeadMetadata(t *testing.T) {
	queue := &fakeQueue{}
	caller := &fakeCaller{}
	d := newTestDialer(queue, &fakeEnqueuer{}, caller, 10)
	leadID := uuid.New()

	err := d.HandleOutboundDial(context.Background(), dialTask(t, OutboundDialPayload{
		LeadID: leadID.String(), Phone: "+34600111222", FirstName: "Jane", Company: strPtr("Acme"),
	}))
	require.NoError(t, err)

	require.Len(t, caller.requests, 1)
	req := caller.requests[0]
	assert.Equal(t, "+34600111222", req.ToNumber)
	assert.Equal(t, leadID.String(), req.Metadata["lead_id"])
	assert.Equal(t, "ES", req.Metadata["region"])
	assert.Equal(t, "Acme", req.DynamicVariables["company"])
	assert.Equal(t, []uuid.UUID{leadID}, queue.attempts)
}

func TestDialFailureReschedulesWithBackoff(t *testing.T) {
	queue := &fakeQueue{}
	d := newTestDialer(queue, &fakeEnqueuer{}, &fakeCaller{err: errors.New("provider 503")}, 10)
	leadID := uuid.New()

	err := d.HandleOutboundDial(context.Background(), dialTask(t, OutboundDialPayload{LeadID: leadID.String(), Phone: "+34600111222", Attempts: 1}))
	require.NoError(t, err)

	require.Len(t, queue.rescheduled, 1)
	assert.Equal(t, leadID, queue.rescheduled[0].id)
	assert.Equal(t, dialNow.Add(20*time.Minute), queue.rescheduled[0].nextAt)
	assert.Contains(t, queue.rescheduled[0].reason, "provider 503")
	assert.Empty(t, queue.failed)
}

func TestDialFailureAfterMaxAttemptsMarksFailed(t *testing.T) {
	queue := &fakeQueue{}
	d := newTestDialer(queue, &fakeEnqueuer{}, &fakeCaller{err: errors.New("busy")}, 10)
	leadID := uuid.New()

	err := d.HandleOutboundDial(context.Background(), dialTask(t, OutboundDialPayload{LeadID: leadID.String(), Phone: "+34600111222", Attempts: 2}))
	require.NoError(t, err)

	require.Len(t, queue.failed, 1)
	assert.Equal(t, leadID, queue.failed[0].id)
	assert.Empty(t, queue.rescheduled)
}

func TestDialPlacedCallIsNotRetriedWhenAttemptNotRecorded(t *testing.T) {
	queue := &fakeQueue{recordErr: errors.New("db: connection reset")}
	caller := &fakeCaller{}
	d := newTestDialer(queue, &fakeEnqueuer{}, caller, 10)
	task := dialTask(t, OutboundDialPayload{LeadID: uuid.NewString(), Phone: "+34600111222"})

	err := d.HandleOutboundDial(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Len(t, caller.requests, 1)
	assert.Empty(t, queue.rescheduled)
	assert.Empty(t, queue.failed)
}

func TestDialProviderErrorClassification(t *testing.T) {
	cases := []struct {
		name        string
		status      int
		rescheduled int
		failed      int
	}{
		{name: "bad request fails at once", status: http.StatusBadRequest, failed: 1},
		{name: "unprocessable fails at once", status: http.StatusUnprocessableEntity, failed: 1},
		{name: "rate limited is rescheduled", status: http.StatusTooManyRequests, rescheduled: 1},
		{name: "server error is rescheduled", status: http.StatusBadGateway, rescheduled: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			queue := &fakeQueue{}
			caller := &fakeCaller{err: &voice.StatusError{StatusCode: tc.status, Body: "rejected"}}
			d := newTestDialer(queue, &fakeEnqueuer{}, caller, 10)

			err := d.HandleOutboundDial(context.Background(), dialTask(t, OutboundDialPayload{LeadID: uuid.NewString(), Phone: "+34600111222"}))
			require.NoError(t, err)
			assert.Len(t, queue.rescheduled, tc.rescheduled)
			assert.Len(t, queue.failed, tc.failed)
		})
	}
}

func TestDialInvalidPayloadSkipsRetry(t *testing.T) {
	d := newTestDialer(&fakeQueue{}, &fakeEnqueuer{}, &fakeCaller{}, 10)

	err := d.HandleOutboundDial(context.Background(), asynq.NewTask(TaskOutboundDial, []byte(`{"leadId":"nope"}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = d.HandleOutboundDial(context.Background(), asynq.NewTask(TaskOutboundDial, []byte(`not json`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
