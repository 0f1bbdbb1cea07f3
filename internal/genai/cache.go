package genai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedGenerator wraps a Generator with a Redis cache keyed by the prompt
// hash, so regenerating the same deck does not burn model quota. Cache
// failures fall through to the inner generator.
type CachedGenerator struct {
	inner  Generator
	client *redis.Client
	ttl    time.Duration
}

func NewCached(inner Generator, client *redis.Client, ttl time.Duration) *CachedGenerator {
	return &CachedGenerator{inner: inner, client: client, ttl: ttl}
}

// NewCachedFromURL connects to Redis and wraps the generator. Connection
// failure is an error; callers may choose to run uncached instead.
func NewCachedFromURL(inner Generator, redisURL string, ttl time.Duration) (*CachedGenerator, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewCached(inner, client, ttl), nil
}

func (c *CachedGenerator) Close() error {
	return c.client.Close()
}

func cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "genai:" + hex.EncodeToString(sum[:])
}

func (c *CachedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	key := cacheKey(prompt)

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil && cached != "" {
		return cached, nil
	}
	if err != nil && err != redis.Nil {
		log.Printf("genai: cache read: %v", err)
	}

	text, err := c.inner.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, key, text, c.ttl).Err(); err != nil {
		log.Printf("genai: cache write: %v", err)
	}
	return text, nil
}
