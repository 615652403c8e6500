package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"news-tagger/internal/config"
	"news-tagger/internal/core"
	"news-tagger/internal/fetcher"
	"news-tagger/internal/httpapi"
	"news-tagger/internal/llm"
	"news-tagger/internal/registry"
	"news-tagger/internal/tagcache"
	"news-tagger/internal/tagging"
)

// Manager owns the process: it turns a Config into a running HTTP server.
type Manager struct {
	cfg    config.Config
	logger *slog.Logger

	cache *tagcache.Store
}

func NewManager(cfg config.Config, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logger}
}

// Handler builds every dependency and returns the root http.Handler.
func (m *Manager) Handler(ctx context.Context) (http.Handler, error) {
	cfg := m.cfg

	reg, err := registry.New(cfg.Categories)
	if err != nil {
		return nil, err
	}

	tagger, err := m.buildTagger(ctx)
	if err != nil {
		return nil, err
	}

	feedClient := fetcher.New(time.Duration(cfg.Network.FeedTimeoutMS)*time.Millisecond, cfg.Network.UserAgent)
	pipeline := core.NewPipeline(feedClient, tagger, core.PipelineConfig{
		MaxItems:     cfg.Feed.MaxItems,
		MinItemsWarn: cfg.Feed.MinItemsWarn,
		Concurrency:  cfg.Tagging.Concurrency,
	}, m.logger)

	news := httpapi.NewNewsHandler(reg, pipeline, m.logger)
	return httpapi.NewRouter(news, cfg.Server.AllowedOrigins, m.logger), nil
}

func (m *Manager) buildTagger(ctx context.Context) (*tagging.Tagger, error) {
	cfg := m.cfg.Tagging
	params := llm.Params{
		MaxOutputTokens: cfg.MaxOutputTokens,
		Temperature:     cfg.Temperature,
		TopP:            cfg.TopP,
	}

	if !cfg.Enabled() {
		m.logger.Warn("api key not set; articles will be returned without tags", "env", config.APIKeyEnv)
		return tagging.New(nil, params, m.logger), nil
	}

	gen, err := llm.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts := []tagging.Option{tagging.WithRequestsPerMinute(cfg.RequestsPerMinute)}

	if m.cfg.Redis.Addr != "" {
		store := tagcache.New(m.cfg.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			m.logger.Warn("tag cache unavailable; continuing without it", "addr", m.cfg.Redis.Addr, "error", err)
			_ = store.Close()
		} else {
			m.cache = store
			opts = append(opts, tagging.WithCache(store))
			m.logger.Info("tag cache enabled", "addr", m.cfg.Redis.Addr)
		}
	}

	m.logger.Info("tag generation enabled", "provider", cfg.Provider, "model", cfg.Model, "concurrency", cfg.Concurrency)
	return tagging.New(gen, params, m.logger, opts...), nil
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (m *Manager) Start(ctx context.Context) error {
	handler, err := m.Handler(ctx)
	if err != nil {
		return err
	}
	defer m.close()

	server := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(m.cfg.Server.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		m.logger.Info("server starting", "addr", server.Addr, "categories", len(m.cfg.Categories))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	m.logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(m.cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	m.logger.Info("server stopped")
	return nil
}

func (m *Manager) close() {
	if m.cache != nil {
		_ = m.cache.Close()
	}
}
