package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mwarren/mexc-relay/internal/model"
)

// Config holds cache configuration.
type Config struct {
	Addr       string
	Password   string
	DB         int
	TTL        time.Duration // Latest-quote expiry (default: 2m)
	MaxHistory int           // History list cap (default: 1000)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:       "localhost:6379",
		TTL:        2 * time.Minute,
		MaxHistory: 1000,
	}
}

// Cache mirrors quote data into Redis.
type Cache struct {
	cfg    Config
	client *redis.Client
	logger *slog.Logger
}

// New creates a Cache backed by a fresh Redis client.
func New(cfg Config, logger *slog.Logger) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultConfig().MaxHistory
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(cfg, client, logger)
}

// NewWithClient creates a Cache around an existing Redis client.
func NewWithClient(cfg Config, client *redis.Client, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultConfig().MaxHistory
	}
	return &Cache{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

func latestKey(symbol string) string {
	return fmt.Sprintf("quote:latest:%s", symbol)
}

func historyKey(symbol string) string {
	return fmt.Sprintf("quote:history:%s", symbol)
}

// SetLatest stores the quote under its symbol and appends it to the
// history list, trimming the list to MaxHistory entries.
func (c *Cache) SetLatest(ctx context.Context, q model.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, latestKey(q.Symbol), data, c.cfg.TTL)
	pipe.RPush(ctx, historyKey(q.Symbol), data)
	pipe.LTrim(ctx, historyKey(q.Symbol), int64(-c.cfg.MaxHistory), -1)
	pipe.Expire(ctx, historyKey(q.Symbol), c.cfg.TTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write quote to redis: %w", err)
	}
	return nil
}

// Latest returns the cached quote for a symbol, or false when absent.
func (c *Cache) Latest(ctx context.Context, symbol string) (model.Quote, bool, error) {
	data, err := c.client.Get(ctx, latestKey(symbol)).Bytes()
	if err == redis.Nil {
		return model.Quote{}, false, nil
	}
	if err != nil {
		return model.Quote{}, false, fmt.Errorf("read quote from redis: %w", err)
	}

	var q model.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return model.Quote{}, false, fmt.Errorf("unmarshal cached quote: %w", err)
	}
	return q, true, nil
}

// History returns the cached history list, oldest first.
func (c *Cache) History(ctx context.Context, symbol string) ([]model.Quote, error) {
	entries, err := c.client.LRange(ctx, historyKey(symbol), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history from redis: %w", err)
	}

	quotes := make([]model.Quote, 0, len(entries))
	for _, entry := range entries {
		var q model.Quote
		if err := json.Unmarshal([]byte(entry), &q); err != nil {
			c.logger.Warn("skipping malformed cached history entry", "err", err)
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
