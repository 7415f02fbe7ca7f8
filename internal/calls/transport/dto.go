package transport

// Provider event kinds.
const (
	EventCallStarted  = "call_started"
	EventCallEnded    = "call_ended"
	EventCallAnalyzed = "call_analyzed"
)

// WebhookEvent is the body posted by the voice provider.
type WebhookEvent struct {
	Event string       `json:"event"`
	Call  ProviderCall `json:"call"`
}

// ProviderCall is the provider's view of a call. Timestamps are Unix milliseconds.
type ProviderCall struct {
	CallID           string           `json:"call_id"`
	AgentID          string           `json:"agent_id"`
	CallStatus       string           `json:"call_status"`
	StartTimestamp   *int64           `json:"start_timestamp"`
	EndTimestamp     *int64           `json:"end_timestamp"`
	DurationMs       *int64           `json:"duration_ms"`
	FromNumber       string           `json:"from_number"`
	ToNumber         string           `json:"to_number"`
	Direction        string           `json:"direction"`
	RecordingURL     string           `json:"recording_url"`
	Transcript       string           `json:"transcript"`
	TranscriptObject []TranscriptTurn `json:"transcript_object"`
	CallAnalysis     *CallAnalysis    `json:"call_analysis"`
	Metadata         map[string]any   `json:"metadata"`
}

// TranscriptTurn is one speaker turn.
type TranscriptTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CallAnalysis is the provider's own post-call analysis.
type CallAnalysis struct {
	CallSummary        string         `json:"call_summary"`
	UserSentiment      string         `json:"user_sentiment"`
	CallSuccessful     *bool          `json:"call_successful"`
	CustomAnalysisData map[string]any `json:"custom_analysis_data"`
}

// WebhookAck is returned for every accepted provider event.
type WebhookAck struct {
	Success bool `json:"success"`
}
