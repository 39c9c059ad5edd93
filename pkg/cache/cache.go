// Package cache provides pluggable byte caches for registry responses.
//
// All backends implement [Cache]:
//
//   - [FileCache]: JSON entry files under a directory (CLI default)
//   - [MemoryCache]: bounded in-process LRU
//   - [RedisCache]: shared cache in Redis
//   - [MongoCache]: shared cache in a MongoDB collection
//   - [NullCache]: caching disabled
//
// Use [Open] to build a backend from a [Config], and [Instrumented] to report
// hits and misses to the observability hooks.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Cache stores opaque byte values under string keys with a per-entry TTL.
// A TTL of zero means the entry never expires.
type Cache interface {
	// Get returns the value for key. A miss (absent or expired) is reported
	// as ok=false with a nil error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Set stores data under key for ttl.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// ErrUnknownBackend is returned by [Open] for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Config selects and configures a cache backend.
type Config struct {
	Backend string // file, memory, redis, mongo or none

	Dir  string // file backend directory
	Size int    // memory backend capacity (entries)

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// Open creates the backend named by cfg.Backend. An empty backend name
// selects the file cache.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendFile:
		c, err := NewFileCache(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendMemory:
		c, err := NewMemoryCache(cfg.Size)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendMongo:
		c, err := NewMongoCache(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}
