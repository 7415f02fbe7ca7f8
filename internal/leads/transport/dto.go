package transport

// MaxBatchSize caps the number of records accepted in one ingestion request.
const MaxBatchSize = 500

// IncomingLead is one candidate record posted by an enrichment source.
type IncomingLead struct {
	FullName       string         `json:"fullName" validate:"required,max=200"`
	LinkedinURL    string         `json:"linkedinUrl" validate:"omitempty,max=500"`
	FirstName      string         `json:"firstName" validate:"omitempty,max=100"`
	LastName       string         `json:"lastName" validate:"omitempty,max=100"`
	Phone          string         `json:"phone" validate:"omitempty,max=40"`
	Email          string         `json:"email" validate:"omitempty,max=254"`
	Role           string         `json:"role" validate:"omitempty,max=200"`
	Company        string         `json:"company" validate:"omitempty,max=200"`
	CompanySize    string         `json:"companySize" validate:"omitempty,max=50"`
	Industry       string         `json:"industry" validate:"omitempty,max=200"`
	Location       string         `json:"location" validate:"omitempty,max=200"`
	EnrichmentData map[string]any `json:"enrichmentData"`
	Source         string         `json:"source" validate:"omitempty,max=100"`
}

// IngestLeadsRequest is the body of the ingestion webhook.
type IngestLeadsRequest struct {
	Leads   []IncomingLead `json:"leads" validate:"required,max=500,dive"`
	Source  string         `json:"source" validate:"omitempty,max=100"`
	BatchID string         `json:"batchId" validate:"omitempty,max=100"`
	APIKey  string         `json:"apiKey"`
}

// BatchStats are the uncapped counters for one ingestion batch.
type BatchStats struct {
	Total      int `json:"total"`
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
	Incomplete int `json:"incomplete"`
	Errors     int `json:"errors"`
	Scheduled  int `json:"scheduled"`
}

// ProcessedLead previews one created lead.
type ProcessedLead struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Phone       *string `json:"phone"`
	ScheduledAt *string `json:"scheduledAt"`
}

// RecordError describes a record that could not be processed.
type RecordError struct {
	Index    int    `json:"index"`
	FullName string `json:"fullName"`
	Error    string `json:"error"`
}

// IngestLeadsResponse is returned for every accepted batch, including
// batches with per-record failures.
type IngestLeadsResponse struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	Stats          BatchStats      `json:"stats"`
	ProcessedLeads []ProcessedLead `json:"processedLeads"`
	ErrorDetails   []RecordError   `json:"errorDetails,omitempty"`
	BatchID        string          `json:"batchId"`
	Duration       string          `json:"duration"`
}

// CapabilitiesResponse describes what the ingestion webhook accepts.
type CapabilitiesResponse struct {
	Name             string   `json:"name"`
	Version          string   `json:"version"`
	AcceptedSources  []string `json:"acceptedSources"`
	RequiredFields   []string `json:"requiredFields"`
	CriticalFields   []string `json:"criticalFields"`
	OptionalFields   []string `json:"optionalFields"`
	MaxBatchSize     int      `json:"maxBatchSize"`
	Authentication   []string `json:"authentication"`
	SchedulingWindow string   `json:"schedulingWindow"`
}
