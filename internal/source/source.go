// Package source retrieves raw dataset bytes from URLs or local files.
package source

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/wavepeak-cli/internal/cache"
	"github.com/KaramelBytes/wavepeak-cli/internal/logging"
)

// Source fetches the bytes stored at location.
type Source interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Config carries common knobs used by sources.
type Config struct {
	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Factory builds a Source from Config.
type Factory func(Config) Source

var registry = map[string]Factory{}

// Register binds a URL scheme to its factory.
func Register(scheme string, f Factory) { registry[scheme] = f }

// Get creates a Source for scheme if registered.
func Get(scheme string, cfg Config) (Source, bool) {
	if f, ok := registry[scheme]; ok {
		return f(cfg), true
	}
	return nil, false
}

// Scheme returns the scheme of location, treating bare paths (including
// Windows drive paths) as "file".
func Scheme(location string) string {
	u, err := url.Parse(location)
	if err != nil || len(u.Scheme) <= 1 {
		return "file"
	}
	return strings.ToLower(u.Scheme)
}

// IsRemote reports whether location is fetched over the network.
func IsRemote(location string) bool {
	s := Scheme(location)
	return s == "http" || s == "https"
}

// For resolves the Source registered for location's scheme.
func For(location string, cfg Config) (Source, error) {
	scheme := Scheme(location)
	s, ok := Get(scheme, cfg)
	if !ok {
		return nil, fmt.Errorf("unsupported dataset location scheme: %q", scheme)
	}
	return s, nil
}

func init() {
	httpFactory := func(c Config) Source {
		return NewHTTPClient(c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay)
	}
	Register("http", httpFactory)
	Register("https", httpFactory)
	Register("file", func(Config) Source { return FileSource{} })
}

// FileSource reads datasets from the local filesystem. Both bare paths and
// file:// URLs are accepted.
type FileSource struct{}

func (FileSource) Fetch(_ context.Context, location string) ([]byte, error) {
	path := location
	if strings.HasPrefix(location, "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("parse file url: %w", err)
		}
		path = filepath.FromSlash(u.Path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &UnreachableError{Err: err}
	}
	return b, nil
}

// Cached serves Fetch from Store when fresh and fills it on a miss. Cache
// failures are logged and never fail the fetch.
type Cached struct {
	Source Source
	Store  cache.Store
}

func (c *Cached) Fetch(ctx context.Context, location string) ([]byte, error) {
	log := logging.FromContext(ctx).With("url", location)
	key := cache.Key(location)
	b, ok, err := c.Store.Get(ctx, key)
	switch {
	case err != nil:
		log.Warn("cache read failed", "error", err)
	case ok:
		log.Debug("dataset served from cache", "key", key)
		return b, nil
	}
	b, err = c.Source.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	if err := c.Store.Set(ctx, key, b); err != nil {
		log.Warn("cache write failed", "error", err)
	}
	return b, nil
}
