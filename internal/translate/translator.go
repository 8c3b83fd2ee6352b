// Package translate turns markdown from one language into another with an
// LLM, steered by the caller's fine-tune examples.
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/quantmind-br/docstranslate/internal/finetune"
	"github.com/quantmind-br/docstranslate/internal/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrName = "github.com/quantmind-br/docstranslate/internal/translate"

// Languages used when a request leaves them empty
const (
	DefaultLanguageFrom = "English"
	DefaultLanguageTo   = "Hindi"
)

// Service implements domain.Translator
type Service struct {
	store     finetune.Store
	provider  domain.LLMProvider
	logger    *utils.Logger
	maxTokens int

	tracer   trace.Tracer
	requests metric.Int64Counter
	tokens   metric.Int64Counter
}

// ServiceOptions contains options for creating a Service
type ServiceOptions struct {
	Store    finetune.Store
	Provider domain.LLMProvider
	Logger   *utils.Logger
	// MaxTokens caps the completion length, 0 leaves it to the provider
	MaxTokens int
}

var _ domain.Translator = (*Service)(nil)

// NewService creates a new translation service
func NewService(opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	m := otel.Meter(instrName)
	requests, _ := m.Int64Counter("docstranslate.translate.requests",
		metric.WithDescription("Number of translation requests"))
	tokens, _ := m.Int64Counter("docstranslate.translate.tokens",
		metric.WithDescription("LLM tokens consumed by translations"))

	return &Service{
		store:     opts.Store,
		provider:  opts.Provider,
		logger:    logger.WithComponent("translator"),
		maxTokens: opts.MaxTokens,
		tracer:    otel.Tracer(instrName),
		requests:  requests,
		tokens:    tokens,
	}
}

// Translate sends one prompt to the provider and returns its text unchanged.
// Fine-tune examples are looked up only when req.Token is set.
func (s *Service) Translate(ctx context.Context, req domain.TranslationRequest) (string, error) {
	from := orDefault(req.LanguageFrom, DefaultLanguageFrom)
	to := orDefault(req.LanguageTo, DefaultLanguageTo)

	ctx, span := s.tracer.Start(ctx, "Service.Translate", trace.WithAttributes(
		attribute.String("translate.from", from),
		attribute.String("translate.to", to),
		attribute.Int("translate.source_bytes", len(req.Source)),
	))
	defer span.End()

	text, err := s.translate(ctx, from, to, req)

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", s.provider.Name()),
		attribute.String("status", status),
	))
	return text, err
}

func (s *Service) translate(ctx context.Context, from, to string, req domain.TranslationRequest) (string, error) {
	var examples []finetune.Example
	if req.Token != "" && s.store != nil {
		var err error
		examples, err = s.store.Examples(ctx, req.Token, from, to)
		if err != nil {
			return "", fmt.Errorf("failed to load fine-tune examples: %w", err)
		}
	}

	prompt, err := BuildPrompt(from, to, req.Source, examples)
	if err != nil {
		return "", err
	}

	s.logger.Debug().
		Str("from", from).
		Str("to", to).
		Int("examples", len(examples)).
		Int("prompt_bytes", len(prompt)).
		Msg("Sending translation prompt")

	start := time.Now()
	resp, err := s.provider.Complete(ctx, &domain.LLMRequest{
		Messages:  []domain.LLMMessage{{Role: domain.RoleUser, Content: prompt}},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}

	s.tokens.Add(ctx, int64(resp.Usage.TotalTokens),
		metric.WithAttributes(attribute.String("provider", s.provider.Name())))

	s.logger.Info().
		Str("from", from).
		Str("to", to).
		Int("examples", len(examples)).
		Int("total_tokens", resp.Usage.TotalTokens).
		Dur("duration", time.Since(start)).
		Msg("Translation completed")

	return resp.Content, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
