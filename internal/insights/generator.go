package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/benvon/twin-insights/internal/database"
	"github.com/benvon/twin-insights/internal/logger"
	"github.com/benvon/twin-insights/internal/models"
	"github.com/benvon/twin-insights/internal/services/ai"
)

// ErrEmptyQuestion is returned when the research question is blank
var ErrEmptyQuestion = errors.New("question is required")

const (
	tracerName = "github.com/benvon/twin-insights/internal/insights"
	// completionOperation labels LLM debug logs and completion errors
	completionOperation = "generate_insights"
	// DefaultMaxTokens leaves room for a structured payload with several questions
	DefaultMaxTokens = 1200
)

// Generator answers research questions from twin profiles via a completion provider
type Generator struct {
	profiles  database.ProfileStore
	provider  ai.CompletionProvider
	limit     int
	maxTokens int
	logger    *zap.Logger
	tracer    trace.Tracer
}

// Option configures a Generator
type Option func(*Generator)

// WithProfileLimit caps the profiles included in a prompt
func WithProfileLimit(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.limit = n
		}
	}
}

// WithMaxTokens sets the completion length bound
func WithMaxTokens(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTracer overrides the global tracer
func WithTracer(t trace.Tracer) Option {
	return func(g *Generator) {
		g.tracer = t
	}
}

// NewGenerator creates a Generator
func NewGenerator(profiles database.ProfileStore, provider ai.CompletionProvider, log *zap.Logger, opts ...Option) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Generator{
		profiles:  profiles,
		provider:  provider,
		limit:     database.DefaultProfileLimit,
		maxTokens: DefaultMaxTokens,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate fetches relevant profiles, makes exactly one completion call and
// parses the answer. Profile store errors (including
// database.ErrNoProfilesAvailable) and *ai.CompletionError are returned wrapped.
func (g *Generator) Generate(ctx context.Context, product models.Product, question string) (Result, error) {
	if !product.Valid() {
		return nil, models.ErrInvalidProduct
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	ctx, span := g.tracer.Start(ctx, "insights.Generate", trace.WithAttributes(
		attribute.String("insights.product", string(product)),
		attribute.Int("insights.profile_limit", g.limit),
	))
	defer span.End()

	profiles, err := g.profiles.FetchActiveProfiles(ctx, product, g.limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile fetch failed")
		return nil, fmt.Errorf("failed to fetch profiles: %w", err)
	}
	if len(profiles) > g.limit {
		profiles = profiles[:g.limit]
	}
	span.SetAttributes(attribute.Int("insights.profile_count", len(profiles)))

	start := time.Now()
	text, err := g.provider.Complete(ctx, ai.CompletionRequest{
		Operation: completionOperation,
		System:    SystemPrompt,
		Prompt:    BuildPrompt(product, question, profiles),
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		g.logger.Warn("insight_generation_failed",
			zap.String("product", string(product)),
			zap.String("provider", g.provider.Name()),
			zap.Int("profile_count", len(profiles)),
			zap.Bool("rate_limited", ai.IsRateLimitError(err)),
			zap.String("error", logger.SanitizeError(err)),
		)
		return nil, fmt.Errorf("failed to generate insights: %w", err)
	}

	result := ParseResult(text)
	kind := "structured"
	if pt, ok := result.(PlainText); ok {
		kind = "plain_text"
		result = PlainText{Text: withSampleFooter(pt.Text, len(profiles))}
	}
	span.SetAttributes(attribute.String("insights.result_kind", kind))

	g.logger.Info("insight_generated",
		zap.String("product", string(product)),
		zap.String("question", logger.SanitizeQuestion(question)),
		zap.String("provider", g.provider.Name()),
		zap.Int("profile_count", len(profiles)),
		zap.String("result_kind", kind),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()),
	)
	return result, nil
}

func withSampleFooter(text string, profileCount int) string {
	return fmt.Sprintf("%s\n\n*Analysis based on %d AI digital twin profiles*", text, profileCount)
}
