package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_StableAndDistinct(t *testing.T) {
	a := Key("https://example.org/a.csv")
	assert.Equal(t, a, Key("https://example.org/a.csv"))
	assert.NotEqual(t, a, Key("https://example.org/b.csv"))
	assert.Len(t, a, 36)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir, time.Hour)
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	payload := []byte("Province/State,Country/Region\n,Italy\n")
	require.NoError(t, s.Set(ctx, "k", payload))
	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload, got)

	raw, err := os.ReadFile(filepath.Join(dir, "k"+fileExt))
	require.NoError(t, err)
	assert.NotEqual(t, payload, raw, "stored compressed")

	n, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestFileStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir(), time.Minute)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", []byte("v")))

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	s.ttl = 0
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "zero ttl never expires")
}

func TestFileStore_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir, 0)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad"+fileExt), []byte{0xff, 0xff, 0xff}, 0o644))
	_, _, err = s.Get(ctx, "bad")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	s, err := New(Options{Backend: "none"})
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	s, err = New(Options{Backend: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = New(Options{Backend: "memcached"})
	assert.Error(t, err)
}

func isRedisAvailable() bool {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer func() { _ = client.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

func TestRedisStore(t *testing.T) {
	if !isRedisAvailable() {
		t.Skip("Redis not available, skipping test")
	}
	ctx := context.Background()
	s, err := NewRedisStore(RedisOptions{URL: "redis://localhost:6379/0", Prefix: "wavepeak-test", TTL: time.Minute})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	_, _ = s.Clear(ctx)

	require.NoError(t, s.Set(ctx, "k", []byte("cases")))
	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("cases"), got)

	n, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
