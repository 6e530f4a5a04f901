// Package cache memoizes analysis results. Entries are addressed by a hash of
// the full input so a hit always returns what a fresh computation would.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/iwvelando/payout-elasticity/pkg/constants"
)

// Cache stores opaque values by key. Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Config selects and sizes a cache backend.
type Config struct {
	Type          string        `yaml:"type,omitempty"` // none, memory, redis
	MaxSize       int           `yaml:"maxSize,omitempty"`
	TTL           time.Duration `yaml:"ttl,omitempty"`
	RedisAddr     string        `yaml:"redisAddr,omitempty"`
	RedisPassword string        `yaml:"redisPassword,omitempty"`
	RedisDB       int           `yaml:"redisDB,omitempty"`
}

// DefaultConfig is an in-memory cache with the default size and lifetime.
func DefaultConfig() Config {
	return Config{
		Type:    constants.CacheTypeMemory,
		MaxSize: constants.DefaultCacheMaxSize,
		TTL:     constants.DefaultCacheTTLSeconds * time.Second,
	}
}

// EntryTTL returns the configured lifetime, or the default when unset.
func (c Config) EntryTTL() time.Duration {
	if c.TTL <= 0 {
		return constants.DefaultCacheTTLSeconds * time.Second
	}
	return c.TTL
}

// New creates the cache described by cfg. An empty type means memory.
func New(cfg Config) (Cache, error) {
	switch cfg.Type {
	case constants.CacheTypeMemory, "":
		return NewLRUCache(cfg.MaxSize), nil
	case constants.CacheTypeRedis:
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case constants.CacheTypeNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// Key hashes the JSON encoding of parts. Struct fields encode in declaration
// order and map keys sorted, so equal inputs always give equal keys.
func Key(namespace string, parts ...any) (string, error) {
	h := sha256.New()
	h.Write([]byte(namespace))
	for _, p := range parts {
		b, err := json.Marshal(p)
		if err != nil {
			return "", fmt.Errorf("failed to encode cache key: %w", err)
		}
		h.Write([]byte{0})
		h.Write(b)
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, error) { return nil, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Delete(context.Context, string) error { return nil }
func (Nop) Ping(context.Context) error { return nil }
func (Nop) Close() error { return nil }
