package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-tagger/internal/config"
)

var testParams = Params{MaxOutputTokens: 1024, Temperature: 0.5, TopP: 1.0}

func TestNew_RequiresKey(t *testing.T) {
	cfg := config.Default().Tagging
	cfg.APIKey = ""
	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}

func TestNew_SelectsProvider(t *testing.T) {
	cfg := config.Default().Tagging
	cfg.APIKey = "k"

	gen, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &Gemini{}, gen)

	cfg.Provider = config.ProviderOpenAI
	gen, err = New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, gen)
}

func TestOpenAI_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 0,
			"model": "gemini-2.5-flash",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "テクノロジー,AI"}}]
		}`))
	}))
	defer srv.Close()

	gen := NewOpenAI("test-key", "gemini-2.5-flash", srv.URL+"/", 0)
	text, err := gen.Generate(context.Background(), "system", "content", testParams)
	require.NoError(t, err)
	assert.Equal(t, "テクノロジー,AI", text)

	assert.Equal(t, "gemini-2.5-flash", got["model"])
	assert.EqualValues(t, 1024, got["max_tokens"])
	assert.EqualValues(t, 0.5, got["temperature"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestOpenAI_GenerateError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	gen := NewOpenAI("bad", "m", srv.URL+"/", 0)
	_, err := gen.Generate(context.Background(), "s", "c", testParams)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai request failed")
}

func TestGemini_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash:generateContent")
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "systemInstruction")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"経済, 株価"}]}}]}`))
	}))
	defer srv.Close()

	gen, err := NewGemini(context.Background(), "test-key", "gemini-2.5-flash", srv.URL, 0)
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "system", "content", testParams)
	require.NoError(t, err)
	assert.Equal(t, "経済, 株価", text)
}

func TestGemini_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	gen, err := NewGemini(context.Background(), "test-key", "m", srv.URL, 0)
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "s", "c", testParams)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
