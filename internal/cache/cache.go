// Package cache stores downloaded datasets so repeated runs against the same
// URL do not hit the network. Payloads are snappy-compressed.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
)

// Store is a keyed byte cache with a store-wide TTL.
type Store interface {
	// Get returns the cached value and whether it was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Clear removes every entry and reports how many were removed.
	Clear(ctx context.Context) (int, error)
	Close() error
}

// Backend names accepted by New.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Options configures New.
type Options struct {
	Backend  string
	Dir      string
	TTL      time.Duration
	RedisURL string
	Prefix   string
}

// New creates a Store for the configured backend.
func New(opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case BackendNone, "":
		return NopStore{}, nil
	case BackendFile:
		return NewFileStore(opts.Dir, opts.TTL)
	case BackendRedis:
		return NewRedisStore(RedisOptions{URL: opts.RedisURL, Prefix: opts.Prefix, TTL: opts.TTL})
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s (supported: none, file, redis)", opts.Backend)
	}
}

// Key derives a stable cache key from a dataset location.
func Key(location string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(location)).String()
}

func compress(data []byte) []byte {
	return snappy.Encode(nil, data)
}

func decompress(data []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress failed: %w", err)
	}
	return out, nil
}

// NopStore never caches.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NopStore) Set(context.Context, string, []byte) error         { return nil }
func (NopStore) Clear(context.Context) (int, error)                { return 0, nil }
func (NopStore) Close() error                                      { return nil }
