package tagging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"news-tagger/internal/llm"
	"news-tagger/internal/metrics"
	"news-tagger/internal/model"
)

// SystemInstruction asks for about five comma-separated Japanese tags and nothing else.
const SystemInstruction = `
# 命令
提供されたニュース記事の内容を分析し、記事を最もよく表すタグを5つ程度、日本語で生成してください。
# 制約条件
必ず「,（カンマ）」区切りで、タグ名のみを出力してください。
タグには「#」を付けないでください。
# 出力形式例
テクノロジー,AI,新製品,モバイル,ニュース
`

// PromptRequest is built once per article and discarded after the call.
type PromptRequest struct {
	SystemInstruction string
	Content           string
	MaxOutputTokens   int
	Temperature       float64
	TopP              float64
}

func BuildContent(item model.FeedItem) string {
	return fmt.Sprintf("記事のタイトル: %s\n記事の概要: %s", item.Title, item.Description)
}

func BuildPrompt(item model.FeedItem, params llm.Params) PromptRequest {
	return PromptRequest{
		SystemInstruction: SystemInstruction,
		Content:           BuildContent(item),
		MaxOutputTokens:   params.MaxOutputTokens,
		Temperature:       params.Temperature,
		TopP:              params.TopP,
	}
}

// ParseTags splits raw on commas, trims each piece and drops empty ones.
// Order and duplicates are kept.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, piece := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(piece); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

type Cache interface {
	Get(ctx context.Context, item model.FeedItem) ([]string, bool, error)
	Set(ctx context.Context, item model.FeedItem, tags []string) error
}

type Tagger struct {
	gen     llm.Generator
	params  llm.Params
	limiter *rate.Limiter
	cache   Cache
	logger  *slog.Logger
}

type Option func(*Tagger)

// WithRequestsPerMinute paces generative calls. Zero or less leaves them unpaced.
func WithRequestsPerMinute(n int) Option {
	return func(t *Tagger) {
		if n > 0 {
			t.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
		}
	}
}

func WithCache(c Cache) Option {
	return func(t *Tagger) { t.cache = c }
}

// New returns a Tagger. A nil gen means no credential is configured: every
// call returns no tags without touching the network.
func New(gen llm.Generator, params llm.Params, logger *slog.Logger, opts ...Option) *Tagger {
	t := &Tagger{gen: gen, params: params, logger: logger}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tagger) Enabled() bool {
	return t.gen != nil
}

// Tags never fails: every error is logged and yields an empty, non-nil slice.
func (t *Tagger) Tags(ctx context.Context, item model.FeedItem) []string {
	if t.gen == nil {
		t.logger.Debug("tag generation skipped: api key not configured", "title", item.Title)
		metrics.RecordTagResult(metrics.ResultSkipped)
		return []string{}
	}

	if t.cache != nil {
		cached, ok, err := t.cache.Get(ctx, item)
		if err != nil {
			t.logger.Warn("tag cache read failed", "title", item.Title, "error", err)
		} else if ok {
			metrics.RecordTagResult(metrics.ResultCacheHit)
			return cached
		}
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			t.logger.Error("tag generation rate limit wait failed", "title", item.Title, "error", err)
			metrics.RecordTagResult(metrics.ResultError)
			return []string{}
		}
	}

	prompt := BuildPrompt(item, t.params)
	start := time.Now()
	raw, err := t.gen.Generate(ctx, prompt.SystemInstruction, prompt.Content, llm.Params{
		MaxOutputTokens: prompt.MaxOutputTokens,
		Temperature:     prompt.Temperature,
		TopP:            prompt.TopP,
	})
	metrics.TagGenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		t.logger.Error("tag generation failed", "title", item.Title, "error", err)
		metrics.RecordTagResult(metrics.ResultError)
		return []string{}
	}

	tags := ParseTags(raw)
	metrics.RecordTagResult(metrics.ResultOK)

	if t.cache != nil && len(tags) > 0 {
		if err := t.cache.Set(ctx, item, tags); err != nil {
			t.logger.Warn("tag cache write failed", "title", item.Title, "error", err)
		}
	}
	return tags
}
