package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("call not found")

// StatusInProgress is the status of a call that has started but not ended.
const StatusInProgress = "in_progress"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Call struct {
	ID               uuid.UUID
	ProviderCallID   string
	AgentID          *string
	LeadID           *uuid.UUID
	Direction        *string
	FromNumber       *string
	ToNumber         *string
	Status           string
	StartedAt        *time.Time
	EndedAt          *time.Time
	DurationSeconds  *int
	RecordingURL     *string
	TranscriptObject []byte
	Transcript       *string
	TranscriptKey    *string
	Resumen          *string
	Sentimiento      *string
	Intencion        *string
	DatosExtraidos   map[string]any
	Resultado        *string
	CallSuccessful   *bool
	Metadata         map[string]any
	AnalyzedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StartParams describes a call_started event.
type StartParams struct {
	ProviderCallID string
	AgentID        *string
	LeadID         *uuid.UUID
	Direction      *string
	FromNumber     *string
	ToNumber       *string
	StartedAt      time.Time
	Metadata       map[string]any
}

// EndParams carries every field derived from a call_ended event.
type EndParams struct {
	ProviderCallID   string
	AgentID          *string
	LeadID           *uuid.UUID
	Direction        *string
	FromNumber       *string
	ToNumber         *string
	Status           string
	StartedAt        *time.Time
	EndedAt          time.Time
	DurationSeconds  *int
	RecordingURL     *string
	TranscriptObject any
	Transcript       *string
	TranscriptKey    *string
	Resumen          string
	Sentimiento      string
	Intencion        string
	DatosExtraidos   map[string]any
	Resultado        string
	CallSuccessful   *bool
	Metadata         map[string]any
}

// AnalysisParams updates provider analysis fields. Nil fields are left untouched.
type AnalysisParams struct {
	Resumen        *string
	Sentimiento    *string
	DatosExtraidos map[string]any
	CallSuccessful *bool
}

const callColumns = `
	id, provider_call_id, agent_id, lead_id, direction, from_number, to_number, status,
	started_at, ended_at, duration_seconds, recording_url, transcript_object, transcript,
	transcript_key, resumen, sentimiento, intencion, datos_extraidos, resultado,
	call_successful, metadata, analyzed_at, created_at, updated_at`

const createStartedQuery = `
	INSERT INTO calls (id, provider_call_id, agent_id, lead_id, direction, from_number, to_number, status, started_at, metadata)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (provider_call_id) DO NOTHING
	RETURNING` + callColumns

// upsertEndedQuery keeps call_analyzed results once analyzed_at is set.
const upsertEndedQuery = `
	INSERT INTO calls (
		id, provider_call_id, agent_id, lead_id, direction, from_number, to_number, status,
		started_at, ended_at, duration_seconds, recording_url, transcript_object, transcript,
		transcript_key, resumen, sentimiento, intencion, datos_extraidos, resultado,
		call_successful, metadata
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	ON CONFLICT (provider_call_id) DO UPDATE SET
		agent_id = COALESCE(EXCLUDED.agent_id, calls.agent_id),
		lead_id = COALESCE(EXCLUDED.lead_id, calls.lead_id),
		direction = COALESCE(EXCLUDED.direction, calls.direction),
		from_number = COALESCE(EXCLUDED.from_number, calls.from_number),
		to_number = COALESCE(EXCLUDED.to_number, calls.to_number),
		status = EXCLUDED.status,
		started_at = COALESCE(EXCLUDED.started_at, calls.started_at),
		ended_at = EXCLUDED.ended_at,
		duration_seconds = COALESCE(EXCLUDED.duration_seconds, calls.duration_seconds),
		recording_url = COALESCE(EXCLUDED.recording_url, calls.recording_url),
		transcript_object = COALESCE(EXCLUDED.transcript_object, calls.transcript_object),
		transcript = COALESCE(EXCLUDED.transcript, calls.transcript),
		transcript_key = COALESCE(EXCLUDED.transcript_key, calls.transcript_key),
		resumen = CASE
			WHEN calls.analyzed_at IS NOT NULL THEN COALESCE(calls.resumen, EXCLUDED.resumen)
			ELSE EXCLUDED.resumen
		END,
		sentimiento = CASE
			WHEN calls.analyzed_at IS NOT NULL THEN COALESCE(calls.sentimiento, EXCLUDED.sentimiento)
			ELSE EXCLUDED.sentimiento
		END,
		intencion = EXCLUDED.intencion,
		datos_extraidos = CASE
			WHEN calls.analyzed_at IS NOT NULL
				THEN COALESCE(EXCLUDED.datos_extraidos, '{}'::jsonb) || COALESCE(calls.datos_extraidos, '{}'::jsonb)
			ELSE EXCLUDED.datos_extraidos
		END,
		resultado = EXCLUDED.resultado,
		call_successful = CASE
			WHEN calls.analyzed_at IS NOT NULL THEN COALESCE(calls.call_successful, EXCLUDED.call_successful)
			ELSE COALESCE(EXCLUDED.call_successful, calls.call_successful)
		END,
		metadata = COALESCE(EXCLUDED.metadata, calls.metadata),
		updated_at = now()
	RETURNING` + callColumns

// updateAnalysisQuery never inserts; nil parameters leave the column as is.
const updateAnalysisQuery = `
	UPDATE calls SET
		resumen = COALESCE($2, resumen),
		sentimiento = COALESCE($3, sentimiento),
		datos_extraidos = CASE
			WHEN $4::jsonb IS NULL THEN datos_extraidos
			ELSE COALESCE(datos_extraidos, '{}'::jsonb) || $4::jsonb
		END,
		call_successful = COALESCE($5, call_successful),
		analyzed_at = now(),
		updated_at = now()
	WHERE provider_call_id = $1`

func scanCall(row pgx.Row) (Call, error) {
	var (
		call        Call
		datos, meta []byte
	)
	err := row.Scan(
		&call.ID, &call.ProviderCallID, &call.AgentID, &call.LeadID, &call.Direction,
		&call.FromNumber, &call.ToNumber, &call.Status, &call.StartedAt, &call.EndedAt,
		&call.DurationSeconds, &call.RecordingURL, &call.TranscriptObject, &call.Transcript,
		&call.TranscriptKey, &call.Resumen, &call.Sentimiento, &call.Intencion, &datos,
		&call.Resultado, &call.CallSuccessful, &meta, &call.AnalyzedAt, &call.CreatedAt, &call.UpdatedAt,
	)
	if err != nil {
		return Call{}, err
	}
	if err := decodeMap(datos, &call.DatosExtraidos); err != nil {
		return Call{}, fmt.Errorf("decode datos_extraidos: %w", err)
	}
	if err := decodeMap(meta, &call.Metadata); err != nil {
		return Call{}, fmt.Errorf("decode metadata: %w", err)
	}
	return call, nil
}

// CreateStarted inserts the call if its provider id is new. When a row
// already exists it is returned unchanged and created is false.
func (r *Repository) CreateStarted(ctx context.Context, params StartParams) (call Call, created bool, err error) {
	meta, err := encodeJSON(params.Metadata)
	if err != nil {
		return Call{}, false, err
	}

	call, err = scanCall(r.pool.QueryRow(ctx, createStartedQuery,
		uuid.New(), params.ProviderCallID, params.AgentID, params.LeadID, params.Direction,
		params.FromNumber, params.ToNumber, StatusInProgress, params.StartedAt, meta,
	))
	if err == nil {
		return call, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Call{}, false, err
	}

	call, err = r.FindByProviderCallID(ctx, params.ProviderCallID)
	if err != nil {
		return Call{}, false, err
	}
	return call, false, nil
}

// UpsertEnded creates the call when call_started was never seen, otherwise
// overwrites it with the ended state. Optional fields keep their stored value
// when the event leaves them empty. Once call_analyzed has been applied, its
// summary, sentiment and success flag are kept and its custom data wins over
// the ended event's.
func (r *Repository) UpsertEnded(ctx context.Context, params EndParams) (Call, error) {
	transcriptObject, err := encodeJSON(params.TranscriptObject)
	if err != nil {
		return Call{}, err
	}
	datos, err := encodeJSON(params.DatosExtraidos)
	if err != nil {
		return Call{}, err
	}
	meta, err := encodeJSON(params.Metadata)
	if err != nil {
		return Call{}, err
	}

	return scanCall(r.pool.QueryRow(ctx, upsertEndedQuery,
		uuid.New(), params.ProviderCallID, params.AgentID, params.LeadID, params.Direction,
		params.FromNumber, params.ToNumber, params.Status, params.StartedAt, params.EndedAt,
		params.DurationSeconds, params.RecordingURL, transcriptObject, params.Transcript,
		params.TranscriptKey, params.Resumen, params.Sentimiento, params.Intencion, datos,
		params.Resultado, params.CallSuccessful, meta,
	))
}

// UpdateAnalysis applies provider analysis to an existing call and reports
// whether a row matched. It never inserts.
func (r *Repository) UpdateAnalysis(ctx context.Context, providerCallID string, params AnalysisParams) (bool, error) {
	datos, err := encodeJSON(params.DatosExtraidos)
	if err != nil {
		return false, err
	}

	tag, err := r.pool.Exec(ctx, updateAnalysisQuery, providerCallID, params.Resumen, params.Sentimiento, datos, params.CallSuccessful)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) FindByProviderCallID(ctx context.Context, providerCallID string) (Call, error) {
	call, err := scanCall(r.pool.QueryRow(ctx, `SELECT`+callColumns+` FROM calls WHERE provider_call_id = $1`, providerCallID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Call{}, ErrNotFound
	}
	return call, err
}

func encodeJSON(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if v == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	if string(data) == "null" {
		return nil, nil
	}
	return data, nil
}

func decodeMap(data []byte, out *map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
