// Package summarizer turns a flattened call transcript into a structured
// analysis using a text-generation provider. Failures never escape: callers
// always receive an Analysis, degraded to Neutral when the provider misbehaves.
package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadcall_backend/platform/logger"
	"leadcall_backend/platform/metrics"
)

// Outcome tags.
const (
	ResultadoInteresado     = "interesado"
	ResultadoNoInteresado   = "no_interesado"
	ResultadoVolverALlamar  = "volver_a_llamar"
	ResultadoBuzonDeVoz     = "buzon_de_voz"
	ResultadoSinResultado   = "sin_resultado"
	IntencionDesconocida    = "desconocida"
	SentimientoPositivo     = "positivo"
	SentimientoNeutral      = "neutral"
	SentimientoNegativo     = "negativo"
	defaultSummarizeTimeout = 5 * time.Second
)

var validResultados = map[string]bool{
	ResultadoInteresado:    true,
	ResultadoNoInteresado:  true,
	ResultadoVolverALlamar: true,
	ResultadoBuzonDeVoz:    true,
	ResultadoSinResultado:  true,
}

var validSentimientos = map[string]bool{
	SentimientoPositivo: true,
	SentimientoNeutral:  true,
	SentimientoNegativo: true,
}

// Analysis is the structured result for one transcript.
type Analysis struct {
	Resumen        string         `json:"resumen"`
	Sentimiento    string         `json:"sentimiento"`
	Intencion      string         `json:"intencion"`
	DatosExtraidos map[string]any `json:"datosExtraidos"`
	Resultado      string         `json:"resultado"`
}

// Neutral is the analysis returned whenever the provider cannot be used.
func Neutral() Analysis {
	return Analysis{
		Sentimiento:    SentimientoNeutral,
		Intencion:      IntencionDesconocida,
		DatosExtraidos: map[string]any{},
		Resultado:      ResultadoSinResultado,
	}
}

// Completer is a single-shot text-generation call.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service bounds each provider call with a timeout and parses its output.
type Service struct {
	completer Completer
	timeout   time.Duration
	log       *logger.Logger
}

// New creates a summarizer. A nil completer makes every call return Neutral.
func New(completer Completer, timeout time.Duration, log *logger.Logger) *Service {
	if timeout <= 0 {
		timeout = defaultSummarizeTimeout
	}
	return &Service{completer: completer, timeout: timeout, log: log}
}

// Summarize never fails; provider errors, timeouts and malformed output all
// produce Neutral.
func (s *Service) Summarize(ctx context.Context, transcript string) Analysis {
	if s == nil || s.completer == nil {
		metrics.SummarizerResults.WithLabelValues("skipped").Inc()
		return Neutral()
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.completer.Complete(callCtx, systemPrompt, buildUserPrompt(transcript))
	if err != nil {
		s.fallback("provider call failed", err)
		return Neutral()
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		s.fallback("malformed provider output", err)
		return Neutral()
	}

	metrics.SummarizerResults.WithLabelValues("ok").Inc()
	return analysis
}

func (s *Service) fallback(reason string, err error) {
	metrics.SummarizerResults.WithLabelValues("fallback").Inc()
	if errors.Is(err, context.DeadlineExceeded) {
		reason = "provider call timed out"
	}
	s.log.Warn("summarizer degraded to neutral analysis", "reason", reason, "error", err)
}

type rawAnalysis struct {
	Resumen        string         `json:"resumen"`
	Sentimiento    string         `json:"sentimiento"`
	Intencion      string         `json:"intencion"`
	IntencionAlt   string         `json:"intención"`
	DatosExtraidos map[string]any `json:"datosExtraidos"`
	Resultado      string         `json:"resultado"`
}

func parseAnalysis(raw string) (Analysis, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return Analysis{}, errors.New("empty response")
	}

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}

	analysis := Neutral()
	analysis.Resumen = strings.TrimSpace(parsed.Resumen)

	if s := strings.ToLower(strings.TrimSpace(parsed.Sentimiento)); validSentimientos[s] {
		analysis.Sentimiento = s
	}

	intent := strings.TrimSpace(parsed.Intencion)
	if intent == "" {
		intent = strings.TrimSpace(parsed.IntencionAlt)
	}
	if intent != "" {
		analysis.Intencion = intent
	}

	if parsed.DatosExtraidos != nil {
		analysis.DatosExtraidos = parsed.DatosExtraidos
	}

	if r := strings.ToLower(strings.TrimSpace(parsed.Resultado)); validResultados[r] {
		analysis.Resultado = r
	}
	return analysis, nil
}

func stripCodeFence(raw string) string {
	body := strings.TrimSpace(raw)
	if !strings.HasPrefix(body, "```") {
		return body
	}
	body = strings.TrimPrefix(body, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
