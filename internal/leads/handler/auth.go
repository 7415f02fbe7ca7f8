package handler

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderWebhookSecret carries the shared ingestion secret.
const HeaderWebhookSecret = "x-webhook-secret"

// SharedSecret authenticates ingestion requests. An empty secret accepts
// every request.
type SharedSecret string

// Enabled reports whether a secret is configured.
func (s SharedSecret) Enabled() bool {
	return s != ""
}

// Authorize checks the x-webhook-secret header, a bearer token and the
// apiKey taken from the body, in that order.
func (s SharedSecret) Authorize(c *gin.Context, bodyKey string) bool {
	if !s.Enabled() {
		return true
	}
	candidates := []string{
		c.GetHeader(HeaderWebhookSecret),
		bearerToken(c.GetHeader("Authorization")),
		bodyKey,
	}
	for _, candidate := range candidates {
		if candidate != "" && subtle.ConstantTimeCompare([]byte(candidate), []byte(s)) == 1 {
			return true
		}
	}
	return false
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
