package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"leadcall_backend/internal/calls/reconciler"
	"leadcall_backend/internal/calls/transport"
	"leadcall_backend/platform/apperr"
	"leadcall_backend/platform/httpkit"
	"leadcall_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgInvalidSignature = "invalid webhook signature"
)

// Reconciler applies one provider event.
type Reconciler interface {
	Handle(ctx context.Context, evt transport.WebhookEvent) error
}

type Handler struct {
	svc      Reconciler
	verifier SignatureVerifier
	log      *logger.Logger
}

func New(svc Reconciler, verifier SignatureVerifier, log *logger.Logger) *Handler {
	return &Handler{svc: svc, verifier: verifier, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Receive)
}

// Receive handles a call lifecycle webhook. Storage failures return 500 so
// the provider retries; everything else that parses is acknowledged.
func (h *Handler) Receive(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest))
		return
	}

	if !h.verifier.Verify(body, c.GetHeader(HeaderSignature)) {
		h.log.WebhookRejected(c.Request.URL.Path, "signature mismatch", c.ClientIP())
		httpkit.HandleError(c, apperr.Unauthorized(msgInvalidSignature))
		return
	}

	var evt transport.WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest))
		return
	}

	if err := h.svc.Handle(c.Request.Context(), evt); err != nil {
		if errors.Is(err, reconciler.ErrMissingCallID) {
			httpkit.HandleError(c, apperr.Validation(err.Error()))
			return
		}
		h.log.WithContext(c.Request.Context()).
			HTTPError(c.Request.Method, c.Request.URL.Path, http.StatusInternalServerError, err, c.ClientIP())
		if !apperr.Is(err, apperr.KindInternal) {
			err = apperr.Wrap(apperr.KindInternal, "failed to process call event", err)
		}
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusOK, transport.WebhookAck{Success: true})
}
