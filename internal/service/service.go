// Package service ties dataset retrieval, parsing and extremum location
// together for one unit at a time.
package service

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/KaramelBytes/wavepeak-cli/internal/cache"
	"github.com/KaramelBytes/wavepeak-cli/internal/dataset"
	"github.com/KaramelBytes/wavepeak-cli/internal/logging"
	"github.com/KaramelBytes/wavepeak-cli/internal/source"
	"github.com/KaramelBytes/wavepeak-cli/internal/wave"
)

// Request selects a unit and the extremum to locate.
type Request struct {
	Location string
	Kind     dataset.Kind
	Unit     string
	Mode     wave.Mode
}

// Result is the located extremum for one unit.
type Result struct {
	Unit     string             `json:"unit"`
	Kind     dataset.Kind       `json:"kind"`
	Mode     wave.Mode          `json:"mode"`
	From     time.Time          `json:"from"`
	To       time.Time          `json:"to"`
	Extremum *wave.WaveExtremum `json:"extremum"`
}

// Service fetches datasets (through the cache for remote locations) and
// runs the extraction pipeline.
type Service struct {
	cfg   source.Config
	store cache.Store
}

// New returns a Service. A nil store disables caching.
func New(cfg source.Config, store cache.Store) *Service {
	if store == nil {
		store = cache.NopStore{}
	}
	return &Service{cfg: cfg, store: store}
}

// Load fetches and parses the dataset at location.
func (s *Service) Load(ctx context.Context, location string) (*dataset.Table, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, NewServiceError(CodeInvalidRequest, "dataset location is required")
	}
	src, err := source.For(location, s.cfg)
	if err != nil {
		return nil, &ServiceError{Code: CodeInvalidRequest, Message: err.Error(), Err: err}
	}
	if source.IsRemote(location) {
		src = &source.Cached{Source: src, Store: s.store}
	}
	b, err := src.Fetch(ctx, location)
	if err != nil {
		return nil, &ServiceError{
			Code:    CodeFetchFailed,
			Message: err.Error(),
			Details: map[string]interface{}{"location": location},
			Err:     err,
		}
	}
	table, err := dataset.Parse(bytes.NewReader(b))
	if err != nil {
		return nil, &ServiceError{
			Code:    CodeInvalidDataset,
			Message: "invalid dataset: " + err.Error(),
			Details: map[string]interface{}{"location": location},
			Err:     err,
		}
	}
	logging.FromContext(ctx).Debug("dataset parsed", "rows", table.Rows(), "days", len(table.Dates))
	return table, nil
}

// Locate loads req.Location and locates the extremum for req.Unit.
func (s *Service) Locate(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	table, err := s.Load(ctx, req.Location)
	if err != nil {
		return nil, err
	}
	return LocateIn(ctx, table, req)
}

// LocateIn locates the extremum for req.Unit in an already parsed table.
func LocateIn(ctx context.Context, table *dataset.Table, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	log := logging.FromContext(ctx).With("unit", req.Unit, "mode", req.Mode.String())
	ts, err := table.Select(req.Kind, req.Unit)
	if err != nil {
		return nil, classify(err, req.Unit, req.Kind)
	}
	log.Debug("calculating daily case numbers", "points", ts.Len())
	w, err := wave.Extract(req.Mode, ts)
	if err != nil {
		return nil, classify(err, ts.Unit, req.Kind)
	}
	log.Debug("extremum located", "value", w.Primary.Value, "date", w.Primary.Date.Format(time.DateOnly),
		"annotations", len(w.Annotations))
	from, to := ts.Range()
	return &Result{Unit: ts.Unit, Kind: req.Kind, Mode: req.Mode, From: from, To: to, Extremum: w}, nil
}

// Units lists the units of kind available at location.
func (s *Service) Units(ctx context.Context, location string, kind dataset.Kind) ([]string, error) {
	table, err := s.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	return table.Units(kind), nil
}

// ClearCache purges the dataset cache.
func (s *Service) ClearCache(ctx context.Context) (int, error) {
	return s.store.Clear(ctx)
}

func validate(req Request) error {
	if strings.TrimSpace(req.Unit) == "" {
		return NewServiceError(CodeInvalidRequest, "a country or province is required")
	}
	if req.Kind != dataset.Country && req.Kind != dataset.Province {
		return NewServiceError(CodeInvalidRequest, "unit kind must be country or province")
	}
	if req.Mode != wave.Peak && req.Mode != wave.Trough {
		return NewServiceError(CodeInvalidRequest, "mode must be highest or lowest")
	}
	return nil
}
