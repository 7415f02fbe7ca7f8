// Package voice places outbound calls through the Retell REST API.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadcall_backend/platform/config"
	"leadcall_backend/platform/logger"
)

const (
	createPhoneCallPath = "/v2/create-phone-call"
	defaultHTTPTimeout  = 10 * time.Second
	maxErrorBody        = 2048
)

// ErrNotConfigured is returned when no API key or from-number is set.
var ErrNotConfigured = errors.New("voice provider not configured")

// CallRequest describes one outbound call.
type CallRequest struct {
	ToNumber string
	// Metadata is echoed back on every webhook for the call.
	Metadata map[string]any
	// DynamicVariables are injected into the agent prompt.
	DynamicVariables map[string]string
}

// PhoneCall is the provider's view of a created call.
type PhoneCall struct {
	CallID     string `json:"call_id"`
	AgentID    string `json:"agent_id"`
	CallStatus string `json:"call_status"`
}

type createPhoneCallRequest struct {
	FromNumber       string            `json:"from_number"`
	ToNumber         string            `json:"to_number"`
	OverrideAgentID  string            `json:"override_agent_id,omitempty"`
	Metadata         map[string]any    `json:"metadata,omitempty"`
	DynamicVariables map[string]string `json:"retell_llm_dynamic_variables,omitempty"`
}

// StatusError is a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("retell status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the call may succeed later.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Client handles Retell requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	agentID    string
	fromNumber string
	log        *logger.Logger
}

// New creates a Retell client.
func New(cfg config.VoiceConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:    strings.TrimRight(cfg.GetRetellBaseURL(), "/"),
		apiKey:     cfg.GetRetellAPIKey(),
		agentID:    cfg.GetRetellAgentID(),
		fromNumber: cfg.GetRetellFromNumber(),
		log:        log,
	}
}

// Configured reports whether calls can be placed.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.fromNumber != ""
}

// CreatePhoneCall starts an outbound call from the configured number.
func (c *Client) CreatePhoneCall(ctx context.Context, call CallRequest) (*PhoneCall, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(createPhoneCallRequest{
		FromNumber:       c.fromNumber,
		ToNumber:         call.ToNumber,
		OverrideAgentID:  c.agentID,
		Metadata:         call.Metadata,
		DynamicVariables: call.DynamicVariables,
	})
	if err != nil {
		return nil, fmt.Errorf("encode create-phone-call: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createPhoneCallPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("retell create-phone-call request failed", "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Error("retell create-phone-call error", "status", resp.StatusCode)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var created PhoneCall
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode create-phone-call: %w", err)
	}
	return &created, nil
}
