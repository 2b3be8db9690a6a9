// Package extract is the draft-producer boundary: text recognition on
// a photographed document plus AI normalization of the raw text. Both
// collaborators are long-running and unreliable, so their failures
// degrade to an empty or partial draft with a notice instead of
// propagating into the aggregation core.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/medintern-api/internal/model"
	"github.com/jwalitptl/medintern-api/pkg/circuitbreaker"
	"github.com/jwalitptl/medintern-api/pkg/logger"
	"github.com/jwalitptl/medintern-api/pkg/metrics"
)

// TextRecognizer turns a photographed document into raw text.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// DraftParser turns raw recognized text into a structured draft.
type DraftParser interface {
	Parse(ctx context.Context, raw string) (*model.CaseDraft, error)
}

// Result is what the boundary reports back: a best-effort draft and,
// when a collaborator failed, a non-fatal notice for the user.
type Result struct {
	Draft  *model.CaseDraft `json:"draft"`
	Notice string           `json:"notice,omitempty"`
}

type Config struct {
	Timeout     time.Duration
	MaxFailures int
	ResetAfter  time.Duration
}

type Service struct {
	recognizer TextRecognizer
	parser     DraftParser
	// Each collaborator gets its own breaker so a flaky OCR backend
	// does not take draft parsing down with it.
	ocrBreaker   *circuitbreaker.CircuitBreaker
	parseBreaker *circuitbreaker.CircuitBreaker
	timeout      time.Duration
	metrics      *metrics.Metrics
	logger       *logger.Logger
}

func NewService(recognizer TextRecognizer, parser DraftParser, cfg Config, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		recognizer: recognizer,
		parser:     parser,
		ocrBreaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "extraction-ocr",
			MaxFailures: cfg.MaxFailures,
			Timeout:     cfg.ResetAfter,
		}),
		parseBreaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "extraction-parse",
			MaxFailures: cfg.MaxFailures,
			Timeout:     cfg.ResetAfter,
		}),
		timeout: cfg.Timeout,
		metrics: m,
		logger:  log,
	}
}

// Produce runs OCR (when an image is given) and then draft parsing.
// It never returns an error: any collaborator failure yields an empty
// draft plus a notice, and ingestion proceeds on whatever was
// recovered. Cancellation here cannot leave partial state because the
// boundary never touches the three collections.
func (s *Service) Produce(ctx context.Context, image []byte, rawText string) *Result {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if len(image) > 0 {
		text, err := s.recognize(ctx, image)
		if err != nil {
			s.metrics.ExtractionFailures.WithLabelValues("ocr").Inc()
			s.logger.Warn("text recognition failed", "error", err.Error())
			return &Result{Draft: &model.CaseDraft{}, Notice: "no se pudo leer la imagen"}
		}
		rawText = text
	}

	if strings.TrimSpace(rawText) == "" {
		return &Result{Draft: &model.CaseDraft{}, Notice: "documento sin texto reconocible"}
	}

	draft, err := s.parse(ctx, rawText)
	if err != nil {
		s.metrics.ExtractionFailures.WithLabelValues("parse").Inc()
		s.logger.Warn("draft parsing failed", "error", err.Error())
		return &Result{Draft: &model.CaseDraft{}, Notice: "no se pudo estructurar el caso"}
	}

	return &Result{Draft: draft}
}

func (s *Service) recognize(ctx context.Context, image []byte) (string, error) {
	if s.recognizer == nil {
		return "", fmt.Errorf("text recognition is not configured")
	}
	var text string
	err := s.ocrBreaker.Execute(func() error {
		var err error
		text, err = s.recognizer.Recognize(ctx, image)
		return err
	})
	return text, err
}

func (s *Service) parse(ctx context.Context, raw string) (*model.CaseDraft, error) {
	if s.parser == nil {
		return nil, fmt.Errorf("draft parsing is not configured")
	}
	var draft *model.CaseDraft
	err := s.parseBreaker.Execute(func() error {
		var err error
		draft, err = s.parser.Parse(ctx, raw)
		if err == nil && draft == nil {
			err = fmt.Errorf("parser returned no draft")
		}
		return err
	})
	return draft, err
}

// JSONDraftParser decodes the JSON document an AI normalization call
// returns. A response that is not a JSON object is a parse failure;
// missing fields inside the object are fine and resolve downstream.
type JSONDraftParser struct{}

func (JSONDraftParser) Parse(ctx context.Context, raw string) (*model.CaseDraft, error) {
	raw = strings.TrimSpace(raw)
	// Models tend to wrap JSON in markdown fences.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var draft model.CaseDraft
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &draft); err != nil {
		return nil, fmt.Errorf("malformed draft document: %w", err)
	}
	return &draft, nil
}
