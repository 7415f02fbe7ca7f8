// Package metrics declares the Prometheus collectors shared across modules.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration observes request latency by method, route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leadcall_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// IntakeRecords counts per-record intake outcomes.
	// outcome: created, duplicate, error. status: NEW, INCOMPLETE or "".
	IntakeRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadcall_intake_records_total",
		Help: "Lead intake outcomes per record",
	}, []string{"outcome", "status"})

	// IntakeBatches counts accepted ingestion batches.
	IntakeBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadcall_intake_batches_total",
		Help: "Accepted lead ingestion batches",
	})

	// CallEvents counts provider call events by kind and result.
	CallEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadcall_call_events_total",
		Help: "Call lifecycle webhook events",
	}, []string{"event", "result"})

	// SummarizerResults counts summarizer outcomes: ok, fallback, skipped.
	SummarizerResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadcall_summarizer_results_total",
		Help: "Transcript summarizer outcomes",
	}, []string{"result"})

	// SchedulerTriggers counts outbound scan triggers: enqueued, deduplicated, failed.
	SchedulerTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadcall_scheduler_triggers_total",
		Help: "Outbound scan trigger attempts",
	}, []string{"result"})

	// OutboundDials counts dial attempts: placed, retried, failed.
	OutboundDials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadcall_outbound_dials_total",
		Help: "Outbound call placement attempts",
	}, []string{"result"})
)
