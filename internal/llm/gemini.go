package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini talks to the Gemini API. A zero timeout keeps the SDK default.
func NewGemini(ctx context.Context, apiKey, model, baseURL string, timeout time.Duration) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: timeout}
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, systemInstruction, content string, params Params) (string, error) {
	gc := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		MaxOutputTokens:   int32(params.MaxOutputTokens),
		Temperature:       genai.Ptr(float32(params.Temperature)),
		TopP:              genai.Ptr(float32(params.TopP)),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(content), gc)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
