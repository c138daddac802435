package llm

import (
	"context"
	"sync"
)

// Default sampling parameters applied when Options leaves them unset.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4000
)

// Service dispatches provider-neutral requests to registered adapters.
// It is constructed once at the composition root and shared process-wide;
// calls are safe to run concurrently because adapters carry no per-call
// mutable state.
type Service struct {
	providers       map[string]Provider
	defaultProvider string
	mu              sync.RWMutex
}

// NewService creates an empty dispatcher.
func NewService(defaultProvider string) *Service {
	return &Service{
		providers:       make(map[string]Provider),
		defaultProvider: defaultProvider,
	}
}

// Register adds a provider adapter under its own name.
func (s *Service) Register(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.Name()] = p
}

// Resolve returns the adapter registered under name, falling back to the
// default provider when name is empty.
func (s *Service) Resolve(name string) (Provider, error) {
	if name == "" {
		name = s.defaultProvider
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[name]
	if !ok {
		return nil, &UnsupportedProviderError{Provider: name}
	}
	return p, nil
}

// DefaultProvider returns the default provider name.
func (s *Service) DefaultProvider() string {
	return s.defaultProvider
}

// Generate dispatches a multi-turn completion to the named provider.
func (s *Service) Generate(ctx context.Context, provider string, messages []Message, opts Options) (*Response, error) {
	p, err := s.Resolve(provider)
	if err != nil {
		return nil, err
	}
	return p.Generate(ctx, messages, withDefaults(opts))
}

// GenerateStream dispatches a streaming completion to the named provider.
func (s *Service) GenerateStream(ctx context.Context, provider string, messages []Message, opts Options) (<-chan StreamChunk, error) {
	p, err := s.Resolve(provider)
	if err != nil {
		return nil, err
	}
	return p.GenerateStream(ctx, messages, withDefaults(opts))
}

// GenerateFromPrompt wraps a bare prompt into a one-message conversation.
func (s *Service) GenerateFromPrompt(ctx context.Context, provider, prompt string, opts Options) (*Response, error) {
	return s.Generate(ctx, provider, []Message{{Role: RoleUser, Content: prompt}}, opts)
}

// GenerateFromPromptStream is the streaming variant of GenerateFromPrompt.
func (s *Service) GenerateFromPromptStream(ctx context.Context, provider, prompt string, opts Options) (<-chan StreamChunk, error) {
	return s.GenerateStream(ctx, provider, []Message{{Role: RoleUser, Content: prompt}}, opts)
}

func withDefaults(opts Options) Options {
	if opts.Temperature == 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return opts
}

// ProviderInfo contains information about a registered provider.
type ProviderInfo struct {
	Name    string   `json:"name"`
	Models  []string `json:"models"`
	Default bool     `json:"default"`
}

// ProvidersInfo returns information about all registered providers.
func (s *Service) ProvidersInfo() []ProviderInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]ProviderInfo, 0, len(s.providers))
	for name, p := range s.providers {
		infos = append(infos, ProviderInfo{
			Name:    name,
			Models:  p.AvailableModels(),
			Default: name == s.defaultProvider,
		})
	}
	return infos
}
