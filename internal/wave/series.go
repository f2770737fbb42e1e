// Package wave locates the peak or trough of a single epidemic wave in a
// cumulative case series and prepares the daily window around it for charting.
package wave

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// SmoothingWindow is the width of the centered moving average applied to
// daily deltas. It is fixed: wide enough to absorb single-day reporting noise,
// narrow enough to keep the shape of a multi-day wave.
const SmoothingWindow = 5

// Point is one dated observation.
type Point struct {
	Date  time.Time `json:"date"`
	Value int64     `json:"value"`
}

// TimeSeries is a cumulative count series for one geographic unit.
// Dates are strictly increasing with one entry per reporting day.
type TimeSeries struct {
	Unit   string
	Points []Point
}

// NewTimeSeries validates ordering and returns a series holding its own copy of points.
func NewTimeSeries(unit string, points []Point) (TimeSeries, error) {
	for i := 1; i < len(points); i++ {
		if !points[i].Date.After(points[i-1].Date) {
			return TimeSeries{}, fmt.Errorf("dates out of order at %s (after %s)",
				points[i].Date.Format(time.DateOnly), points[i-1].Date.Format(time.DateOnly))
		}
	}
	cp := make([]Point, len(points))
	copy(cp, points)
	return TimeSeries{Unit: unit, Points: cp}, nil
}

// Len returns the number of points.
func (ts TimeSeries) Len() int { return len(ts.Points) }

// Range returns the first and last dates of the series (zero values when empty).
func (ts TimeSeries) Range() (from, to time.Time) {
	if len(ts.Points) == 0 {
		return time.Time{}, time.Time{}
	}
	return ts.Points[0].Date, ts.Points[len(ts.Points)-1].Date
}

// DeltaSeries holds daily new cases; values may be negative after revisions.
type DeltaSeries []Point

// Values returns the delta values in order.
func (d DeltaSeries) Values() []int64 {
	out := make([]int64, len(d))
	for i, p := range d {
		out[i] = p.Value
	}
	return out
}

// Range returns the first and last dates of the series.
func (d DeltaSeries) Range() (from, to time.Time) {
	if len(d) == 0 {
		return time.Time{}, time.Time{}
	}
	return d[0].Date, d[len(d)-1].Date
}

// SmoothedPoint is one moving-average value. Value is NaN where the window is incomplete.
type SmoothedPoint struct {
	Date  time.Time
	Value float64
}

// Defined reports whether the point carries a value.
func (p SmoothedPoint) Defined() bool { return !math.IsNaN(p.Value) }

// SmoothedSeries is aligned index-for-index with the DeltaSeries it came from.
type SmoothedSeries []SmoothedPoint

// Values returns the smoothed values, NaN included.
func (s SmoothedSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// ToDelta first-differences a cumulative series. The first point has no
// predecessor and produces no output, so the result has Len()-1 entries,
// each dated on the later day.
func ToDelta(ts TimeSeries) (DeltaSeries, error) {
	if len(ts.Points) < 2 {
		return nil, &InsufficientDataError{Points: len(ts.Points)}
	}
	out := make(DeltaSeries, len(ts.Points)-1)
	for i := 1; i < len(ts.Points); i++ {
		out[i-1] = Point{
			Date:  ts.Points[i].Date,
			Value: ts.Points[i].Value - ts.Points[i-1].Value,
		}
	}
	return out, nil
}

// Smooth computes the centered moving average of d over SmoothingWindow
// values, rounded to 3 decimals. The first and last SmoothingWindow/2
// positions lack a full window and stay NaN.
func Smooth(d DeltaSeries) SmoothedSeries {
	half := SmoothingWindow / 2
	out := make(SmoothedSeries, len(d))
	buf := make([]float64, SmoothingWindow)
	for i := range d {
		out[i] = SmoothedPoint{Date: d[i].Date, Value: math.NaN()}
		if i < half || i+half >= len(d) {
			continue
		}
		for j := range buf {
			buf[j] = float64(d[i-half+j].Value)
		}
		out[i].Value = round3(stat.Mean(buf, nil))
	}
	return out
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// clampWindow returns the inclusive bounds of [center-radius, center+radius]
// limited to [lo, hi].
func clampWindow(center, radius, lo, hi int) (start, end int) {
	start, end = center-radius, center+radius
	if start < lo {
		start = lo
	}
	if end > hi {
		end = hi
	}
	return start, end
}
