package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leadcall_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("lead not found")
	ErrDuplicate = errors.New("lead already exists")
)

const pgUniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID                      uuid.UUID
	LinkedinURL             *string
	Phone                   *string
	Email                   string
	FirstName               string
	LastName                *string
	Company                 *string
	CompanySize             *string
	Industry                *string
	Role                    *string
	City                    *string
	Source                  string
	SourceDetail            *string
	EnrichmentData          map[string]any
	EnrichmentSource        *string
	OutboundStatus          domain.OutboundStatus
	OutboundCallScheduledAt *time.Time
	OutboundAttempts        int
	OutboundLastError       *string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

type CreateLeadParams struct {
	ID                      uuid.UUID
	LinkedinURL             *string
	Phone                   *string
	Email                   string
	FirstName               string
	LastName                *string
	Company                 *string
	CompanySize             *string
	Industry                *string
	Role                    *string
	City                    *string
	Source                  string
	SourceDetail            *string
	EnrichmentData          map[string]any
	EnrichmentSource        *string
	OutboundStatus          domain.OutboundStatus
	OutboundCallScheduledAt *time.Time
}

// DedupKeys are the identity keys checked before creating a lead.
type DedupKeys struct {
	LinkedinURL *string
	Phone       *string
	Email       *string
}

// Empty reports whether no key is present.
func (k DedupKeys) Empty() bool {
	return k.LinkedinURL == nil && k.Phone == nil && k.Email == nil
}

// Match keys, in precedence order.
const (
	MatchLinkedinURL = "linkedinUrl"
	MatchPhone       = "phone"
	MatchEmail       = "email"
)

// DuplicateMatch identifies the existing lead and the key that matched it.
type DuplicateMatch struct {
	LeadID uuid.UUID
	Key    string
}

const leadColumns = `
	id, linkedin_url, phone, email, first_name, last_name, company, company_size, industry,
	role, city, source, source_detail, enrichment_data, enrichment_source,
	outbound_status, outbound_call_scheduled_at, outbound_attempts, outbound_last_error,
	created_at, updated_at`

// findDuplicateQuery ranks matches linkedin URL (1), phone (2), email (3);
// the oldest lead wins within a rank.
const findDuplicateQuery = `
	SELECT id,
		CASE
			WHEN $1::text IS NOT NULL AND linkedin_url = $1 THEN 1
			WHEN $2::text IS NOT NULL AND phone = $2 THEN 2
			ELSE 3
		END AS rank
	FROM leads
	WHERE ($1::text IS NOT NULL AND linkedin_url = $1)
		OR ($2::text IS NOT NULL AND phone = $2)
		OR ($3::text IS NOT NULL AND email = $3)
	ORDER BY rank ASC, created_at ASC
	LIMIT 1`

const createLeadQuery = `
	INSERT INTO leads (
		id, linkedin_url, phone, email, first_name, last_name, company, company_size, industry,
		role, city, source, source_detail, enrichment_data, enrichment_source,
		outbound_status, outbound_call_scheduled_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	RETURNING` + leadColumns

const claimDueForCallQuery = `
	UPDATE leads SET outbound_status = $1, updated_at = now()
	WHERE id IN (
		SELECT id FROM leads
		WHERE outbound_status = $2 AND outbound_call_scheduled_at <= $3
		ORDER BY outbound_call_scheduled_at ASC
		LIMIT $4
		FOR UPDATE SKIP LOCKED
	)
	RETURNING` + leadColumns

const markCalledQuery = `
	UPDATE leads SET outbound_status = $2, updated_at = now()
	WHERE id = $1 AND outbound_status = $3`

func scanLead(row pgx.Row) (Lead, error) {
	var (
		lead       Lead
		status     string
		enrichment []byte
	)
	err := row.Scan(
		&lead.ID, &lead.LinkedinURL, &lead.Phone, &lead.Email, &lead.FirstName, &lead.LastName,
		&lead.Company, &lead.CompanySize, &lead.Industry, &lead.Role, &lead.City,
		&lead.Source, &lead.SourceDetail, &enrichment, &lead.EnrichmentSource,
		&status, &lead.OutboundCallScheduledAt, &lead.OutboundAttempts, &lead.OutboundLastError,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}
	lead.OutboundStatus = domain.OutboundStatus(status)
	if len(enrichment) > 0 {
		if err := json.Unmarshal(enrichment, &lead.EnrichmentData); err != nil {
			return Lead{}, fmt.Errorf("decode enrichment data: %w", err)
		}
	}
	return lead, nil
}

// FindDuplicate checks linkedin URL, phone and email and reports the match
// with the highest precedence. Absent keys are skipped.
func (r *Repository) FindDuplicate(ctx context.Context, keys DedupKeys) (*DuplicateMatch, error) {
	if keys.Empty() {
		return nil, nil
	}

	var (
		match DuplicateMatch
		rank  int
	)
	err := r.pool.QueryRow(ctx, findDuplicateQuery, keys.LinkedinURL, keys.Phone, keys.Email).Scan(&match.LeadID, &rank)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	match.Key = matchKeyForRank(rank)
	return &match, nil
}

func matchKeyForRank(rank int) string {
	switch rank {
	case 1:
		return MatchLinkedinURL
	case 2:
		return MatchPhone
	default:
		return MatchEmail
	}
}

// Create inserts a lead. A unique-constraint violation returns ErrDuplicate.
func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	id := params.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	var enrichment []byte
	if params.EnrichmentData != nil {
		data, err := json.Marshal(params.EnrichmentData)
		if err != nil {
			return Lead{}, fmt.Errorf("encode enrichment data: %w", err)
		}
		enrichment = data
	}

	row := r.pool.QueryRow(ctx, createLeadQuery,
		id, params.LinkedinURL, params.Phone, params.Email, params.FirstName, params.LastName,
		params.Company, params.CompanySize, params.Industry, params.Role, params.City,
		params.Source, params.SourceDetail, enrichment, params.EnrichmentSource,
		string(params.OutboundStatus), params.OutboundCallScheduledAt,
	)

	lead, err := scanLead(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Lead{}, ErrDuplicate
		}
		return Lead{}, err
	}
	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT`+leadColumns+` FROM leads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// FindByPhone returns the oldest lead with the given normalized phone.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		SELECT`+leadColumns+`
		FROM leads
		WHERE phone = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, phone))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// ClaimDueForCall atomically moves up to limit due NEW leads to CALLING and
// returns them. Concurrent claimers never receive the same lead.
func (r *Repository) ClaimDueForCall(ctx context.Context, now time.Time, limit int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, claimDueForCallQuery,
		string(domain.StatusCalling), string(domain.StatusNew), now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// RecordDialAttempt increments the attempt counter after a call was placed.
func (r *Repository) RecordDialAttempt(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET outbound_attempts = outbound_attempts + 1, outbound_last_error = NULL, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RescheduleAfterFailure returns a claimed lead to NEW with a later call time.
func (r *Repository) RescheduleAfterFailure(ctx context.Context, id uuid.UUID, nextAt time.Time, reason string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET outbound_status = $2, outbound_call_scheduled_at = $3,
			outbound_attempts = outbound_attempts + 1, outbound_last_error = $4, updated_at = now()
		WHERE id = $1
	`, id, string(domain.StatusNew), nextAt, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCallFailed records the final failure once attempts are exhausted.
func (r *Repository) MarkCallFailed(ctx context.Context, id uuid.UUID, reason string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET outbound_status = $2, outbound_attempts = outbound_attempts + 1, outbound_last_error = $3, updated_at = now()
		WHERE id = $1
	`, id, string(domain.StatusCallFailed), reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCalled moves a lead in CALLING to CALLED. Leads in any other state are left alone.
func (r *Repository) MarkCalled(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, markCalledQuery, id, string(domain.StatusCalled), string(domain.StatusCalling))
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
