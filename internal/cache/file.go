package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/wavepeak-cli/internal/utils"
)

const fileExt = ".snappy"

// FileStore keeps one compressed file per key. Freshness is judged by the
// file's modification time.
type FileStore struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewFileStore creates dir if needed. A zero ttl means entries never expire.
func NewFileStore(dir string, ttl time.Duration) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("cache dir is required")
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir, ttl: ttl, now: time.Now}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	p := s.path(key)
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("stat cache entry: %w", err)
	}
	if s.ttl > 0 && s.now().Sub(info.ModTime()) > s.ttl {
		return nil, false, nil
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	out, err := decompress(b)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	return utils.SafeWriteFile(s.path(key), compress(value))
}

func (s *FileStore) Clear(context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return n, fmt.Errorf("remove cache entry: %w", err)
		}
		n++
	}
	return n, nil
}

func (s *FileStore) Close() error { return nil }
