package providers

import (
	"context"
	"fmt"

	"github.com/carlev/thoughts-to-post-agent/pkg/logger"
)

// FallbackProvider wraps a primary and fallback Provider. If the primary
// fails, it transparently retries the call with the fallback.
type FallbackProvider struct {
	primary       Provider
	fallback      Provider
	fallbackModel string
}

func NewFallbackProvider(primary, fallback Provider, fallbackModel string) *FallbackProvider {
	return &FallbackProvider{
		primary:       primary,
		fallback:      fallback,
		fallbackModel: fallbackModel,
	}
}

func (p *FallbackProvider) Generate(ctx context.Context, messages []Message, model string, opts Options) (string, error) {
	text, err := p.primary.Generate(ctx, messages, model, opts)
	if err == nil {
		return text, nil
	}

	logger.WarnCF("fallback", fmt.Sprintf("Primary provider failed (%s), falling back to %s: %v", model, p.fallbackModel, err), nil)

	fbText, fbErr := p.fallback.Generate(ctx, messages, p.fallbackModel, opts)
	if fbErr != nil {
		return "", fmt.Errorf("primary failed: %w; fallback also failed: %v", err, fbErr)
	}
	return fbText, nil
}

func (p *FallbackProvider) GetDefaultModel() string {
	return p.primary.GetDefaultModel()
}
