// Package calls provides the call lifecycle bounded context module.
package calls

import (
	"leadcall_backend/internal/calls/handler"
	"leadcall_backend/internal/calls/reconciler"
	"leadcall_backend/internal/calls/repository"
	"leadcall_backend/internal/events"
	apphttp "leadcall_backend/internal/http"
	"leadcall_backend/platform/config"
	"leadcall_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the calls bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	reconciler *reconciler.Service
}

// NewModule wires the call repository, reconciler and provider webhook.
// archive may be nil when transcript archiving is disabled.
func NewModule(
	pool *pgxpool.Pool,
	leads reconciler.LeadLookup,
	sum reconciler.Summarizer,
	archive reconciler.TranscriptArchive,
	eventBus events.Bus,
	cfg config.CallWebhookConfig,
	log *logger.Logger,
) *Module {
	opts := []reconciler.Option{reconciler.WithEventBus(eventBus)}
	if archive != nil {
		opts = append(opts, reconciler.WithArchive(archive))
	}
	svc := reconciler.New(repository.New(pool), leads, sum, log, opts...)

	verifier := handler.NewSignatureVerifier(cfg.GetRetellWebhookSecret())
	if !verifier.Enabled() {
		log.Warn("RETELL_WEBHOOK_SECRET not configured; call webhook signatures are not verified")
	}

	return &Module{
		handler:    handler.New(svc, verifier, log),
		reconciler: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calls"
}

// RegisterRoutes mounts the provider webhook.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Webhooks.Group("/retell"))
}
