package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"leadcall_backend/internal/leads/domain"
	"leadcall_backend/internal/leads/transport"
	"leadcall_backend/platform/apperr"
	"leadcall_backend/platform/httpkit"
	"leadcall_backend/platform/logger"
	"leadcall_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgUnauthorized     = "invalid webhook secret"
)

// Ingester processes a validated batch.
type Ingester interface {
	Ingest(ctx context.Context, req transport.IngestLeadsRequest) transport.IngestLeadsResponse
}

type Handler struct {
	svc    Ingester
	val    *validator.Validator
	secret SharedSecret
	window domain.DelayWindow
	log    *logger.Logger
}

func New(svc Ingester, val *validator.Validator, secret SharedSecret, window domain.DelayWindow, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, secret: secret, window: window, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Ingest)
	rg.GET("", h.Capabilities)
}

// Ingest handles POST of an enrichment batch. Accepted batches always get a
// 200 with stats, even when individual records failed.
func (h *Handler) Ingest(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest))
		return
	}

	var req transport.IngestLeadsRequest
	parseErr := json.Unmarshal(body, &req)

	if !h.secret.Authorize(c, req.APIKey) {
		h.log.WebhookRejected(c.Request.URL.Path, "secret mismatch", c.ClientIP())
		httpkit.HandleError(c, apperr.Unauthorized(msgUnauthorized))
		return
	}
	if parseErr != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation(msgValidationFailed).WithDetails(validator.FieldErrors(err)))
		return
	}

	httpkit.OK(c, h.svc.Ingest(c.Request.Context(), req))
}

// Capabilities describes the accepted payload.
func (h *Handler) Capabilities(c *gin.Context) {
	auth := []string{"none"}
	if h.secret.Enabled() {
		auth = []string{"header:" + HeaderWebhookSecret, "bearer", "body:apiKey"}
	}
	httpkit.JSON(c, http.StatusOK, transport.CapabilitiesResponse{
		Name:            "lead-intake",
		Version:         "1",
		AcceptedSources: []string{"apollo", "clay", "phantombuster", "linkedin_sales_navigator", "manual"},
		RequiredFields:  []string{"fullName"},
		CriticalFields:  []string{"phone"},
		OptionalFields: []string{
			"linkedinUrl", "firstName", "lastName", "email", "role", "company",
			"companySize", "industry", "location", "enrichmentData", "source",
		},
		MaxBatchSize:     transport.MaxBatchSize,
		Authentication:   auth,
		SchedulingWindow: fmt.Sprintf("%d-%dm", h.window.MinMinutes, h.window.MaxMinutes),
	})
}
