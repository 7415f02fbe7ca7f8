// Package leads provides the lead intake bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"leadcall_backend/internal/events"
	apphttp "leadcall_backend/internal/http"
	"leadcall_backend/internal/leads/domain"
	"leadcall_backend/internal/leads/handler"
	"leadcall_backend/internal/leads/intake"
	"leadcall_backend/internal/leads/repository"
	"leadcall_backend/platform/config"
	"leadcall_backend/platform/logger"
	"leadcall_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
	intake  *intake.Service
}

// NewModule wires the repository, intake orchestrator and webhook handler.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg config.IntakeConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	window := domain.NewDelayWindow(cfg.GetOutboundDelayMin(), cfg.GetOutboundDelayMax())
	svc := intake.New(repo, eventBus, window, log)

	secret := handler.SharedSecret(cfg.GetLeadsWebhookSecret())
	if !secret.Enabled() {
		log.Warn("LEADS_WEBHOOK_SECRET not configured; lead ingestion accepts unauthenticated requests")
	}

	return &Module{
		handler: handler.New(svc, val, secret, window, log),
		repo:    repo,
		intake:  svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Repository exposes lead persistence for the scheduler and call reconciler.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts the ingestion webhook.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Webhooks.Group("/leads"))
}
