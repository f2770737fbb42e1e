// Package history persists located extrema so earlier runs can be listed
// and re-rendered without refetching the dataset.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/wavepeak-cli/internal/service"
	"github.com/KaramelBytes/wavepeak-cli/internal/utils"
	"github.com/google/uuid"
)

const recordExt = ".json"

// Record is one saved run.
type Record struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	CreatedAt time.Time       `json:"created_at"`
	Result    *service.Result `json:"result"`
}

// Store saves records as <dir>/<id>.json.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created on first save.
func NewStore(dir string) *Store { return &Store{dir: dir} }

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Save assigns an id and timestamp when missing and writes the record atomically.
func (s *Store) Save(r *Record) error {
	if s.dir == "" {
		return errors.New("results directory not set")
	}
	if r.Result == nil || r.Result.Extremum == nil {
		return errors.New("record has no result")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if err := utils.EnsureDir(s.dir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	data, err := utils.PrettyJSON(r)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.dir, r.ID+recordExt), data)
}

// Load reads the record with id. A unique id prefix is accepted.
func (s *Store) Load(id string) (*Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("record id is required")
	}
	path := filepath.Join(s.dir, id+recordExt)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		full, err := s.resolvePrefix(id)
		if err != nil {
			return nil, err
		}
		path = filepath.Join(s.dir, full+recordExt)
	}
	return readRecord(path)
}

func (s *Store) resolvePrefix(prefix string) (string, error) {
	ids, err := s.ids()
	if err != nil {
		return "", err
	}
	var match []string
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			match = append(match, id)
		}
	}
	switch len(match) {
	case 0:
		return "", fmt.Errorf("record not found: %s", prefix)
	case 1:
		return match[0], nil
	default:
		return "", fmt.Errorf("ambiguous record id %q matches %d records", prefix, len(match))
	}
}

func (s *Store) ids() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read results dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), recordExt))
	}
	return ids, nil
}

// List returns every record, newest first. Unreadable files are skipped.
func (s *Store) List() ([]*Record, error) {
	ids, err := s.ids()
	if err != nil {
		return nil, err
	}
	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		r, err := readRecord(filepath.Join(s.dir, id+recordExt))
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func readRecord(path string) (*Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("record not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read record: %w", err)
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	return &r, nil
}
