package repository

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func normalizeSQL(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func TestFindDuplicateQueryRanksLinkedinThenPhoneThenEmail(t *testing.T) {
	query := normalizeSQL(findDuplicateQuery)

	linkedin := strings.Index(query, "linkedin_url = $1 then 1")
	phone := strings.Index(query, "phone = $2 then 2")
	email := strings.Index(query, "else 3")
	assert.True(t, linkedin >= 0 && phone > linkedin && email > phone, query)

	for _, fragment := range []string{
		"($3::text is not null and email = $3)",
		"order by rank asc, created_at asc",
		"limit 1",
	} {
		assert.Contains(t, query, fragment)
	}
}

func TestMatchKeyForRank(t *testing.T) {
	assert.Equal(t, MatchLinkedinURL, matchKeyForRank(1))
	assert.Equal(t, MatchPhone, matchKeyForRank(2))
	assert.Equal(t, MatchEmail, matchKeyForRank(3))
}

func TestClaimDueForCallQueryIsExclusive(t *testing.T) {
	query := normalizeSQL(claimDueForCallQuery)

	for _, fragment := range []string{
		"update leads set outbound_status = $1",
		"where outbound_status = $2 and outbound_call_scheduled_at <= $3",
		"order by outbound_call_scheduled_at asc",
		"for update skip locked",
	} {
		assert.Contains(t, query, fragment)
	}
}

func TestMarkCalledQueryOnlyMovesCallingLeads(t *testing.T) {
	assert.Contains(t, normalizeSQL(markCalledQuery), "where id = $1 and outbound_status = $3")
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "leads_phone_key"}

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unique violation", err: unique, want: true},
		{name: "wrapped unique violation", err: fmt.Errorf("insert lead: %w", unique), want: true},
		{name: "foreign key violation", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "plain error", err: errors.New("duplicate key"), want: false},
		{name: "nil", err: nil, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isUniqueViolation(tc.err))
		})
	}
}
