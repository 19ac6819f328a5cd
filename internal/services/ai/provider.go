package ai

import (
	"context"

	"go.uber.org/zap"
)

// CompletionProvider is the interface for text-completion services
type CompletionProvider interface {
	// Name returns the provider identifier used in logs and errors
	Name() string

	// Complete sends a single completion request and returns the generated text.
	// Implementations make exactly one attempt; callers decide whether to retry.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is a provider-neutral prompt
type CompletionRequest struct {
	Operation string // label used in debug logs, e.g. "generate_insights"
	System    string
	Prompt    string
	MaxTokens int
}

// ProviderFactory creates a completion provider from string configuration
type ProviderFactory func(config map[string]string) (CompletionProvider, error)

// ProviderRegistry stores available completion providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// NewDefaultRegistry returns a registry with every built-in provider registered
func NewDefaultRegistry(ctx context.Context, logger *zap.Logger, debugMode bool) *ProviderRegistry {
	registry := NewProviderRegistry()
	RegisterOpenAI(registry, logger, debugMode)
	RegisterGemini(ctx, registry, logger, debugMode)
	return registry
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (CompletionProvider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
