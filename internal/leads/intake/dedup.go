package intake

import (
	"context"
	"net/mail"
	"strings"

	"leadcall_backend/internal/leads/repository"
)

// Gate checks a candidate against persisted leads by linkedin URL, phone and
// email, in that order. A hit on any key makes the candidate a duplicate.
type Gate struct {
	finder repository.DuplicateFinder
}

// NewGate wraps a duplicate finder.
func NewGate(finder repository.DuplicateFinder) *Gate {
	return &Gate{finder: finder}
}

// Check returns the highest-precedence match, or nil when the candidate is new.
func (g *Gate) Check(ctx context.Context, keys repository.DedupKeys) (*repository.DuplicateMatch, error) {
	if keys.Empty() {
		return nil, nil
	}
	return g.finder.FindDuplicate(ctx, keys)
}

// NormalizeLinkedinURL trims whitespace and trailing slashes. Empty input is nil.
func NormalizeLinkedinURL(raw string) *string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// NormalizeEmail lowercases a syntactically valid address. Anything else is nil.
func NormalizeEmail(raw string) *string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return nil
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return nil
	}
	return &trimmed
}
