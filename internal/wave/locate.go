package wave

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/constraints"
)

const (
	// NoPeak is the searchFrom value meaning no peak has been located.
	NoPeak = -1

	// rawRadius bounds the raw-data neighborhood searched around the smoothed extremum.
	rawRadius = 7
	// displayRadius yields the 15-day chart window: the ±8 cumulative window
	// differenced and trimmed to its inner 15 entries is the delta window ±7.
	displayRadius = 7
	// maxDuplicates caps the duplicate annotations before a summary note.
	maxDuplicates = 2

	// LabelLayout formats dates inside labels.
	LabelLayout = "Jan/02/2006"
)

// Mode selects which extremum of the wave is located.
type Mode int

const (
	Peak Mode = iota
	Trough
)

func (m Mode) String() string {
	switch m {
	case Peak:
		return "peak"
	case Trough:
		return "trough"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts peak/highest/max and trough/lowest/min.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "peak", "highest", "max", "maximum":
		return Peak, nil
	case "trough", "lowest", "min", "minimum":
		return Trough, nil
	default:
		return 0, fmt.Errorf("invalid mode: %q (use highest|lowest)", s)
	}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m Mode) title() string {
	if m == Trough {
		return "Minimum"
	}
	return "Maximum"
}

// prefers returns the strict ordering for m. Strictness keeps the first
// chronological occurrence on ties.
func prefers[T constraints.Ordered](m Mode) func(a, b T) bool {
	if m == Trough {
		return func(a, b T) bool { return a < b }
	}
	return func(a, b T) bool { return a > b }
}

// argExtreme returns the index of the first eligible value that no other
// eligible value beats, or -1 when nothing is eligible.
func argExtreme[T constraints.Ordered](vals []T, eligible func(i int) bool, better func(a, b T) bool) int {
	best := -1
	for i, v := range vals {
		if !eligible(i) {
			continue
		}
		if best < 0 || better(v, vals[best]) {
			best = i
		}
	}
	return best
}

// WindowExtremum is an extreme point found within a bounded index range.
type WindowExtremum struct {
	Value int64     `json:"value"`
	Date  time.Time `json:"date"`
	Index int       `json:"index"`
}

// AnnotationKind classifies an alternate-value note.
type AnnotationKind string

const (
	// AnnotationAlternate marks a series-wide extremum that disagrees with the windowed one.
	AnnotationAlternate AnnotationKind = "alternate"
	// AnnotationDuplicate marks another date carrying the primary value.
	AnnotationDuplicate AnnotationKind = "duplicate"
	// AnnotationAdditional summarizes duplicates beyond the reported cap.
	AnnotationAdditional AnnotationKind = "additional"
)

// Annotation is one alternate or duplicate value reported next to the primary extremum.
type Annotation struct {
	Kind  AnnotationKind `json:"kind"`
	Date  time.Time      `json:"date,omitzero"`
	Value int64          `json:"value,omitempty"`
	Count int            `json:"count,omitempty"`
}

// Text renders the annotation with dates in layout.
func (a Annotation) Text(layout string) string {
	switch a.Kind {
	case AnnotationAlternate:
		return fmt.Sprintf("Alternate value on %s: %d", a.Date.Format(layout), a.Value)
	case AnnotationDuplicate:
		return fmt.Sprintf("Duplicate value on %s: %d", a.Date.Format(layout), a.Value)
	case AnnotationAdditional:
		return fmt.Sprintf("additional values detected (%d more)", a.Count)
	default:
		return string(a.Kind)
	}
}

// JoinAnnotations renders notes with layout and joins them with sep.
func JoinAnnotations(notes []Annotation, layout, sep string) string {
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = n.Text(layout)
	}
	return strings.Join(parts, sep)
}

// WaveExtremum is the located extremum plus the daily window around it.
type WaveExtremum struct {
	Mode           Mode           `json:"mode"`
	Primary        WindowExtremum `json:"primary"`
	Dates          []time.Time    `json:"dates"`
	DailyCases     []int64        `json:"daily_cases"`
	Annotations    []Annotation   `json:"annotations,omitempty"`
	PrimaryLabel   string         `json:"primary_label"`
	AlternateLabel string         `json:"alternate_label"`
}

// PrimaryLabelText formats the primary label with dates in layout.
func (w *WaveExtremum) PrimaryLabelText(layout string) string {
	return fmt.Sprintf("%s Value for Daily Cases on %s: %d",
		w.Mode.title(), w.Primary.Date.Format(layout), w.Primary.Value)
}

// Locate finds the governing extremum of deltas.
//
// The extremum is first located on the smoothed series (non-negative values
// only), then re-derived from the raw deltas within ±7 days of that point.
// A series-wide raw extremum that differs from it, and repeats of its value
// within the window, are reported as annotations.
//
// For Trough, searchFrom must be the index of a located peak; the search is
// limited to deltas[searchFrom:].
func Locate(mode Mode, deltas DeltaSeries, smoothed SmoothedSeries, searchFrom int) (*WaveExtremum, error) {
	if mode != Peak && mode != Trough {
		return nil, fmt.Errorf("invalid mode: %s", mode)
	}
	if len(smoothed) != len(deltas) {
		return nil, fmt.Errorf("smoothed length %d does not match delta length %d", len(smoothed), len(deltas))
	}
	lo := 0
	if mode == Trough {
		if searchFrom < 0 || searchFrom >= len(deltas) {
			from, to := deltas.Range()
			return nil, &NoTroughFoundError{Reason: "no peak located", From: from, To: to}
		}
		lo = searchFrom
	}
	hi := len(deltas) - 1
	fail := func() error {
		from, to := deltas[lo:].Range()
		if mode == Trough {
			return &NoTroughFoundError{Reason: "no non-negative minimum after the peak", From: from, To: to}
		}
		return &NoValidExtremumError{Mode: mode, From: from, To: to}
	}

	sm := smoothed.Values()
	at := argExtreme(sm, func(i int) bool {
		return i >= lo && smoothed[i].Defined() && sm[i] >= 0
	}, prefers[float64](mode))
	if at < 0 {
		return nil, fail()
	}

	raw := deltas.Values()
	better := prefers[int64](mode)
	start, end := clampWindow(at, rawRadius, lo, hi)
	p := argExtreme(raw, func(i int) bool {
		return i >= start && i <= end && raw[i] >= 0
	}, better)
	if p < 0 {
		return nil, fail()
	}
	primary := WindowExtremum{Value: raw[p], Date: deltas[p].Date, Index: p}

	var notes []Annotation
	alt := argExtreme(raw, func(i int) bool { return i >= lo && raw[i] >= 0 }, better)
	if alt >= 0 && raw[alt] != primary.Value && !deltas[alt].Date.Equal(primary.Date) {
		notes = append(notes, Annotation{Kind: AnnotationAlternate, Date: deltas[alt].Date, Value: raw[alt]})
	}
	dups := 0
	for i := start; i <= end; i++ {
		if i == p || raw[i] != primary.Value {
			continue
		}
		dups++
		if dups <= maxDuplicates {
			notes = append(notes, Annotation{Kind: AnnotationDuplicate, Date: deltas[i].Date, Value: raw[i]})
		}
	}
	if dups > maxDuplicates {
		notes = append(notes, Annotation{Kind: AnnotationAdditional, Count: dups - maxDuplicates})
	}

	ds, de := clampWindow(p, displayRadius, 0, hi)
	out := &WaveExtremum{
		Mode:        mode,
		Primary:     primary,
		Dates:       make([]time.Time, 0, de-ds+1),
		DailyCases:  make([]int64, 0, de-ds+1),
		Annotations: notes,
	}
	for i := ds; i <= de; i++ {
		out.Dates = append(out.Dates, deltas[i].Date)
		out.DailyCases = append(out.DailyCases, raw[i])
	}
	out.PrimaryLabel = out.PrimaryLabelText(LabelLayout)
	out.AlternateLabel = JoinAnnotations(notes, LabelLayout, "; ")
	return out, nil
}

// Extract runs the whole pipeline on a cumulative series. A trough is only
// sought after the wave's peak; when no peak can be located the trough
// search fails with *NoTroughFoundError.
func Extract(mode Mode, ts TimeSeries) (*WaveExtremum, error) {
	deltas, err := ToDelta(ts)
	if err != nil {
		return nil, err
	}
	smoothed := Smooth(deltas)
	peak, err := Locate(Peak, deltas, smoothed, 0)
	if mode == Peak {
		return peak, err
	}
	if err != nil {
		var nv *NoValidExtremumError
		if errors.As(err, &nv) {
			return nil, &NoTroughFoundError{Reason: "no peak located", From: nv.From, To: nv.To}
		}
		return nil, err
	}
	return Locate(Trough, deltas, smoothed, peak.Primary.Index)
}
