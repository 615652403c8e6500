package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// APIKeyEnv names the variable holding the generative-service credential.
const APIKeyEnv = "GEMINI_API_KEY"

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Network    NetworkConfig    `yaml:"network"`
	Feed       FeedConfig       `yaml:"feed"`
	Categories []CategoryConfig `yaml:"categories"`
	Tagging    TaggingConfig    `yaml:"tagging"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port                   int      `yaml:"port"`
	AllowedOrigins         []string `yaml:"allowed_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
}

type NetworkConfig struct {
	FeedTimeoutMS int    `yaml:"feed_timeout_ms"`
	UserAgent     string `yaml:"user_agent"`
}

type FeedConfig struct {
	MaxItems     int `yaml:"max_items"`
	MinItemsWarn int `yaml:"min_items_warn"`
}

type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type TaggingConfig struct {
	Provider          string  `yaml:"provider"`
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	MaxOutputTokens   int     `yaml:"max_output_tokens"`
	Temperature       float64 `yaml:"temperature"`
	TopP              float64 `yaml:"top_p"`
	TimeoutMS         int     `yaml:"timeout_ms"`
	Concurrency       int     `yaml:"concurrency"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
}

// Enabled reports whether a credential is configured.
func (t TaggingConfig) Enabled() bool {
	return strings.TrimSpace(t.APIKey) != ""
}

type RedisConfig struct {
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	KeyPrefix     string `yaml:"key_prefix"`
	CacheTTLHours int    `yaml:"cache_ttl_hours"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultCategories is the registry used when the config file names none.
func DefaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{Name: "テクノロジー", URL: "https://news.google.com/rss/headlines/section/topic/TECHNOLOGY?hl=ja&gl=JP&ceid=JP:ja"},
		{Name: "経済", URL: "https://news.google.com/rss/headlines/section/topic/BUSINESS?hl=ja&gl=JP&ceid=JP:ja"},
		{Name: "スポーツ", URL: "https://news.google.com/rss/headlines/section/topic/SPORTS?hl=ja&gl=JP&ceid=JP:ja"},
		{Name: "国際", URL: "https://news.google.com/rss/headlines/section/topic/WORLD?hl=ja&gl=JP&ceid=JP:ja"},
	}
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:                   5000,
			AllowedOrigins:         []string{"*"},
			ShutdownTimeoutSeconds: 15,
		},
		Network: NetworkConfig{
			FeedTimeoutMS: 15000,
			UserAgent:     "news-tagger/1.0",
		},
		Feed: FeedConfig{
			MaxItems:     15,
			MinItemsWarn: 10,
		},
		Categories: DefaultCategories(),
		Tagging: TaggingConfig{
			Provider:        ProviderGemini,
			Model:           "gemini-2.5-flash",
			MaxOutputTokens: 1024,
			Temperature:     0.5,
			TopP:            1.0,
			Concurrency:     1,
		},
		Redis: RedisConfig{
			KeyPrefix:     "newstagger:",
			CacheTTLHours: 24,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// The credential falls back to $GEMINI_API_KEY when the file leaves it empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, err
		default:
			expanded := os.ExpandEnv(string(raw))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return Config{}, fmt.Errorf("decode %s: %w", path, err)
			}
		}
	}
	if cfg.Tagging.APIKey == "" {
		cfg.Tagging.APIKey = os.Getenv(APIKeyEnv)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.Categories) == 0 {
		return errors.New("no categories configured")
	}
	seen := make(map[string]bool, len(c.Categories))
	for i, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("categories[%d].name required", i)
		}
		if strings.TrimSpace(cat.URL) == "" {
			return fmt.Errorf("categories[%d].url required", i)
		}
		if seen[cat.Name] {
			return fmt.Errorf("categories[%d].name %q duplicated", i, cat.Name)
		}
		seen[cat.Name] = true
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server.port must be in 1..65535")
	}
	if c.Network.FeedTimeoutMS <= 0 {
		return errors.New("network.feed_timeout_ms must be > 0")
	}
	if c.Feed.MaxItems <= 0 {
		return errors.New("feed.max_items must be > 0")
	}
	switch c.Tagging.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("tagging.provider %q unsupported", c.Tagging.Provider)
	}
	if strings.TrimSpace(c.Tagging.Model) == "" {
		return errors.New("tagging.model required")
	}
	if c.Tagging.Concurrency < 1 {
		return errors.New("tagging.concurrency must be >= 1")
	}
	if c.Tagging.RequestsPerMinute < 0 {
		return errors.New("tagging.requests_per_minute must be >= 0")
	}
	return nil
}
