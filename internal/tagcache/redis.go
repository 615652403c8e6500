package tagcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"news-tagger/internal/config"
	"news-tagger/internal/model"
	"news-tagger/internal/parser"
)

// Store keeps generated tags per article so repeated requests for the same
// feed do not re-run the model for articles already seen.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func New(cfg config.RedisConfig) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ttl := time.Duration(cfg.CacheTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, prefix: cfg.KeyPrefix, ttl: ttl}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Get returns the cached tags for item. ok is false on a miss.
func (s *Store) Get(ctx context.Context, item model.FeedItem) (tags []string, ok bool, err error) {
	raw, err := s.client.Get(ctx, s.prefix+buildKey(item)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, false, fmt.Errorf("decode cached tags: %w", err)
	}
	return tags, true, nil
}

func (s *Store) Set(ctx context.Context, item model.FeedItem, tags []string) error {
	buf, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+buildKey(item), buf, s.ttl).Err()
}

// buildKey prefers the link; items without one fall back to their title.
func buildKey(item model.FeedItem) string {
	if item.Link != "" && item.Link != parser.FallbackLink {
		return fmt.Sprintf("link:%s", item.Link)
	}
	return fmt.Sprintf("title:%s", item.Title)
}
