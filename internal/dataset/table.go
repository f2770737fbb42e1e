// Package dataset reads cumulative-case tables in the Johns Hopkins CSSE
// wide layout: one row per province/country, one column per reporting day.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/wavepeak-cli/internal/wave"
)

// DateLayout is the fixed two-digit-year header format (month/day/year).
const DateLayout = "1/2/06"

const (
	provinceColumn = "Province/State"
	countryColumn  = "Country/Region"
)

// Kind identifies how a unit is selected from the table.
type Kind string

const (
	Country  Kind = "country"
	Province Kind = "province"
)

// ParseKind accepts country/region and province/state.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "country", "region", "country_region", "":
		return Country, nil
	case "province", "state", "province_state":
		return Province, nil
	default:
		return "", fmt.Errorf("invalid unit kind: %q (use country|province)", s)
	}
}

// UnitNotFoundError indicates no row matches the requested unit.
type UnitNotFoundError struct {
	Kind Kind
	Name string
}

func (e *UnitNotFoundError) Error() string {
	return fmt.Sprintf("%s not found in dataset: %q", e.Kind, e.Name)
}

type row struct {
	province string
	country  string
	cells    []string
}

// Table is a parsed dataset. Cell values are parsed on selection so that a
// malformed row only fails the units that use it.
type Table struct {
	Dates   []time.Time
	dateCol []int
	rows    []row
}

// Parse reads a wide cumulative-case CSV. Columns whose header is a
// month/day/year date become the series; others (Lat, Long, ...) are ignored.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty dataset")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &Table{}
	provIdx, countryIdx := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		switch h {
		case provinceColumn:
			provIdx = i
		case countryColumn:
			countryIdx = i
		default:
			if d, err := time.Parse(DateLayout, h); err == nil {
				t.Dates = append(t.Dates, d)
				t.dateCol = append(t.dateCol, i)
			}
		}
	}
	if countryIdx < 0 {
		return nil, fmt.Errorf("missing %q column", countryColumn)
	}
	if len(t.Dates) == 0 {
		return nil, errors.New("no date columns found (expected m/d/yy headers)")
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		rw := row{country: strings.TrimSpace(field(rec, countryIdx))}
		if provIdx >= 0 {
			rw.province = strings.TrimSpace(field(rec, provIdx))
		}
		rw.cells = make([]string, len(t.dateCol))
		for j, c := range t.dateCol {
			rw.cells[j] = field(rec, c)
		}
		t.rows = append(t.rows, rw)
	}
	return t, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// Rows returns the number of data rows.
func (t *Table) Rows() int { return len(t.rows) }

// Select returns the series for name, dispatching on kind.
func (t *Table) Select(kind Kind, name string) (wave.TimeSeries, error) {
	if kind == Province {
		return t.Province(name)
	}
	return t.Country(name)
}

// Province returns the first row whose Province/State matches name.
func (t *Table) Province(name string) (wave.TimeSeries, error) {
	for _, rw := range t.rows {
		if strings.EqualFold(rw.province, strings.TrimSpace(name)) {
			values, err := parseCells(rw.cells, t.Dates)
			if err != nil {
				return wave.TimeSeries{}, fmt.Errorf("%s %q: %w", Province, name, err)
			}
			return t.series(rw.province, values)
		}
	}
	return wave.TimeSeries{}, &UnitNotFoundError{Kind: Province, Name: name}
}

// Country sums every row whose Country/Region matches name.
func (t *Table) Country(name string) (wave.TimeSeries, error) {
	var sum []int64
	unit := ""
	for _, rw := range t.rows {
		if !strings.EqualFold(rw.country, strings.TrimSpace(name)) {
			continue
		}
		values, err := parseCells(rw.cells, t.Dates)
		if err != nil {
			return wave.TimeSeries{}, fmt.Errorf("%s %q (province %q): %w", Country, name, rw.province, err)
		}
		if sum == nil {
			sum = make([]int64, len(values))
			unit = rw.country
		}
		for i, v := range values {
			sum[i] += v
		}
	}
	if sum == nil {
		return wave.TimeSeries{}, &UnitNotFoundError{Kind: Country, Name: name}
	}
	return t.series(unit, sum)
}

func (t *Table) series(unit string, values []int64) (wave.TimeSeries, error) {
	pts := make([]wave.Point, len(values))
	for i, v := range values {
		pts[i] = wave.Point{Date: t.Dates[i], Value: v}
	}
	return wave.NewTimeSeries(unit, pts)
}

// Units lists the distinct non-empty unit names of kind, sorted.
func (t *Table) Units(kind Kind) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, rw := range t.rows {
		name := rw.country
		if kind == Province {
			name = rw.province
		}
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func parseCells(cells []string, dates []time.Time) ([]int64, error) {
	out := make([]int64, len(cells))
	for i, c := range cells {
		v, err := parseCount(c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", dates[i].Format(DateLayout), err)
		}
		out[i] = v
	}
	return out, nil
}

// parseCount reads an integer count; integral floats ("12.0") are accepted.
func parseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("missing value")
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return int64(math.Round(f)), nil
}
