package repository

import "context"

// CallStore is the persistence used by the reconciler.
type CallStore interface {
	CreateStarted(ctx context.Context, params StartParams) (Call, bool, error)
	UpsertEnded(ctx context.Context, params EndParams) (Call, error)
	UpdateAnalysis(ctx context.Context, providerCallID string, params AnalysisParams) (bool, error)
	FindByProviderCallID(ctx context.Context, providerCallID string) (Call, error)
}

var _ CallStore = (*Repository)(nil)
