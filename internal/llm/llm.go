// Package llm wraps the generative-text services used for tagging behind
// one narrow interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"news-tagger/internal/config"
)

var ErrEmptyResponse = errors.New("empty response from model")

// Params are the sampling settings sent with one call.
type Params struct {
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
}

// Generator produces free-form text for one system instruction and one
// user content string.
type Generator interface {
	Generate(ctx context.Context, systemInstruction, content string, params Params) (string, error)
}

// New builds the Generator named by cfg.Provider. The caller is expected to
// check cfg.Enabled first; an empty key is rejected here.
func New(ctx context.Context, cfg config.TaggingConfig) (Generator, error) {
	if !cfg.Enabled() {
		return nil, errors.New("llm: api key not configured")
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL, timeout)
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL, timeout), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
