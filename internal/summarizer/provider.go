package summarizer

import (
	"context"
	"fmt"

	"leadcall_backend/platform/config"
	"leadcall_backend/platform/logger"
)

// NewFromConfig selects the provider named by SUMMARIZER_PROVIDER.
func NewFromConfig(ctx context.Context, cfg config.SummarizerConfig, log *logger.Logger) (*Service, error) {
	var completer Completer
	switch cfg.GetSummarizerProvider() {
	case config.SummarizerProviderGemini:
		gemini, err := NewGeminiCompleter(ctx, cfg.GetGeminiAPIKey(), cfg.GetGeminiModel())
		if err != nil {
			return nil, err
		}
		completer = gemini
	case config.SummarizerProviderOpenAI:
		completer = NewOpenAICompleter(cfg.GetOpenAIAPIKey(), cfg.GetOpenAIModel())
	case config.SummarizerProviderNone:
		log.Warn("summarizer disabled; call transcripts get the neutral analysis")
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.GetSummarizerProvider())
	}
	return New(completer, cfg.GetSummarizerTimeout(), log), nil
}
