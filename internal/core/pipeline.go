package core

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"news-tagger/internal/metrics"
	"news-tagger/internal/model"
	"news-tagger/internal/parser"
)

type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Tagger interface {
	Tags(ctx context.Context, item model.FeedItem) []string
}

// FetchError wraps a failed feed download.
type FetchError struct{ Err error }

func (e *FetchError) Error() string { return e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps a feed that could not be read as XML.
type ParseError struct{ Err error }

func (e *ParseError) Error() string { return e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

type PipelineConfig struct {
	MaxItems     int
	MinItemsWarn int
	Concurrency  int
}

// Pipeline fetches one feed, parses it and tags every article.
type Pipeline struct {
	fetcher FeedFetcher
	tagger  Tagger
	cfg     PipelineConfig
	logger  *slog.Logger
}

func NewPipeline(fetcher FeedFetcher, tagger Tagger, cfg PipelineConfig, logger *slog.Logger) *Pipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Pipeline{fetcher: fetcher, tagger: tagger, cfg: cfg, logger: logger}
}

// Articles returns at most MaxItems tagged articles in feed order. Only
// fetch and parse failures are returned; tagging failures leave empty tags.
// A client disconnect does not cancel the outbound calls.
func (p *Pipeline) Articles(ctx context.Context, category, url string) ([]model.Article, error) {
	ctx = context.WithoutCancel(ctx)
	p.logger.Info("fetching news", "category", category, "url", url)

	start := time.Now()
	body, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		metrics.RecordFeedFetch(category, metrics.ResultError, time.Since(start).Seconds())
		p.logger.Error("fetch failed", "category", category, "url", url, "error", err)
		return nil, &FetchError{Err: err}
	}
	metrics.RecordFeedFetch(category, metrics.ResultOK, time.Since(start).Seconds())

	items, err := parser.Parse(body, p.cfg.MaxItems)
	if err != nil {
		p.logger.Error("parse failed", "category", category, "error", err)
		return nil, &ParseError{Err: err}
	}
	p.logger.Info("parsed", "category", category, "count", len(items))

	articles := p.enrich(ctx, items)

	if len(articles) < p.cfg.MinItemsWarn {
		p.logger.Warn("fewer articles than expected", "category", category, "count", len(articles), "min", p.cfg.MinItemsWarn)
	}
	metrics.ArticlesReturned.Observe(float64(len(articles)))
	return articles, nil
}

// enrich tags items one by one, or with bounded fan-out when Concurrency > 1.
// Each article owns its result slot, so output order is feed order either way.
func (p *Pipeline) enrich(ctx context.Context, items []model.FeedItem) []model.Article {
	articles := make([]model.Article, len(items))

	if p.cfg.Concurrency == 1 {
		for i, item := range items {
			articles[i] = model.NewArticle(i, item, p.tagger.Tags(ctx, item))
			p.logger.Info("processed article", "index", i+1, "title", item.Title)
		}
		return articles
	}

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, item := range items {
		g.Go(func() error {
			articles[i] = model.NewArticle(i, item, p.tagger.Tags(ctx, item))
			p.logger.Info("processed article", "index", i+1, "title", item.Title)
			return nil
		})
	}
	_ = g.Wait()
	return articles
}
