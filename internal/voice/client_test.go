package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"leadcall_backend/platform/config"
	"leadcall_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		RetellAPIKey:     "key_123",
		RetellBaseURL:    baseURL + "/",
		RetellAgentID:    "agent_1",
		RetellFromNumber: "+34910000000",
	}
}

func TestCreatePhoneCall(t *testing.T) {
	var got createPhoneCallRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/create-phone-call", r.URL.Path)
		assert.Equal(t, "Bearer key_123", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"call_id":"call_abc","agent_id":"agent_1","call_status":"registered"}`))
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), logger.Nop())
	call, err := client.CreatePhoneCall(context.Background(), CallRequest{
		ToNumber: "+34600111222",
		Metadata: map[string]any{"lead_id": "7f1c"},
	})
	require.NoError(t, err)
	assert.Equal(t, "call_abc", call.CallID)
	assert.Equal(t, "+34910000000", got.FromNumber)
	assert.Equal(t, "+34600111222", got.ToNumber)
	assert.Equal(t, "agent_1", got.OverrideAgentID)
	assert.Equal(t, "7f1c", got.Metadata["lead_id"])
}

func TestCreatePhoneCallStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "number not allowed", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := New(testConfig(srv.URL), logger.Nop()).CreatePhoneCall(context.Background(), CallRequest{ToNumber: "+34600111222"})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "number not allowed")
	assert.False(t, statusErr.Retryable())
	assert.True(t, (&StatusError{StatusCode: http.StatusBadGateway}).Retryable())
}

func TestCreatePhoneCallNotConfigured(t *testing.T) {
	client := New(&config.Config{}, logger.Nop())
	assert.False(t, client.Configured())
	_, err := client.CreatePhoneCall(context.Background(), CallRequest{ToNumber: "+34600111222"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
