package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	generativelanguage "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	"cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is the model used when AI_MODEL is not set for the gemini provider
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider implements CompletionProvider using Google's Gemini API
type GeminiProvider struct {
	client    *generativelanguage.GenerativeClient
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewGeminiProvider creates a Gemini provider. The client is long lived; Close releases it.
func NewGeminiProvider(ctx context.Context, apiKey string, model string, logger *zap.Logger, debugMode bool) (*GeminiProvider, error) {
	return NewGeminiProviderWithEndpoint(ctx, apiKey, "", model, logger, debugMode)
}

// NewGeminiProviderWithEndpoint creates a Gemini provider against a custom endpoint.
// The client's default call options retry 503s for up to ten minutes; they are
// replaced so each Complete call is a single attempt bounded by DefaultTimeout.
func NewGeminiProviderWithEndpoint(ctx context.Context, apiKey string, endpoint string, model string, logger *zap.Logger, debugMode bool) (*GeminiProvider, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	client, err := generativelanguage.NewGenerativeRESTClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	client.CallOptions.GenerateContent = []gax.CallOption{gax.WithTimeout(DefaultTimeout)}

	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}, nil
}

// Close releases the underlying client
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// Name implements CompletionProvider
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Complete implements CompletionProvider
func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	maxOutput := int32(maxTokens)

	gcReq := &generativelanguagepb.GenerateContentRequest{
		Model:            modelResourceName(p.model),
		Contents:         []*generativelanguagepb.Content{textContent("user", req.Prompt)},
		GenerationConfig: &generativelanguagepb.GenerationConfig{MaxOutputTokens: &maxOutput},
	}
	if req.System != "" {
		gcReq.SystemInstruction = textContent("", req.System)
	}

	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("provider", p.Name()),
			zap.String("operation", req.Operation),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(req.Prompt)),
			zap.String("prompt_preview", SanitizePrompt(req.Prompt, true)),
			zap.String("session_id", ExtractSessionID(ctx)),
			zap.String("request_id", ExtractRequestID(ctx)),
		)
	}

	start := time.Now()
	resp, err := p.client.GenerateContent(ctx, gcReq)
	latency := time.Since(start)
	if err != nil {
		if p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("provider", p.Name()),
				zap.String("operation", req.Operation),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		return "", wrapCompletionError(p.Name(), req.Operation, err)
	}

	content := extractText(resp)
	if strings.TrimSpace(content) == "" {
		return "", &CompletionError{Provider: p.Name(), Operation: req.Operation, Err: ErrEmptyCompletion}
	}

	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("provider", p.Name()),
			zap.String("operation", req.Operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return content, nil
}

func modelResourceName(model string) string {
	if strings.HasPrefix(model, "models/") || strings.HasPrefix(model, "tunedModels/") {
		return model
	}
	return "models/" + model
}

func textContent(role, text string) *generativelanguagepb.Content {
	return &generativelanguagepb.Content{
		Role:  role,
		Parts: []*generativelanguagepb.Part{{Data: &generativelanguagepb.Part_Text{Text: text}}},
	}
}

func extractText(resp *generativelanguagepb.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.GetCandidates() {
		for _, part := range cand.GetContent().GetParts() {
			text.WriteString(part.GetText())
		}
	}
	return text.String()
}

// RegisterGemini registers the Gemini provider with the registry
func RegisterGemini(ctx context.Context, registry *ProviderRegistry, logger *zap.Logger, debugMode bool) {
	registry.Register("gemini", func(config map[string]string) (CompletionProvider, error) {
		apiKey := config["api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("gemini api_key is required")
		}
		return NewGeminiProviderWithEndpoint(ctx, apiKey, config["base_url"], config["model"], logger, debugMode)
	})
}
