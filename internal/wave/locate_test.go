package wave

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locate(t *testing.T, mode Mode, searchFrom int, deltas ...int64) (*WaveExtremum, error) {
	t.Helper()
	d, err := ToDelta(fromDeltas(t, deltas...))
	require.NoError(t, err)
	return Locate(mode, d, Smooth(d), searchFrom)
}

func TestLocate_CleanBellPeak(t *testing.T) {
	ts := cumulative(t, 0, 1, 3, 6, 10, 13, 15, 16)
	w, err := Extract(Peak, ts)
	require.NoError(t, err)

	assert.Equal(t, int64(4), w.Primary.Value)
	assert.Equal(t, 3, w.Primary.Index)
	assert.True(t, w.Primary.Date.Equal(ts.Points[4].Date))
	assert.Empty(t, w.Annotations)
	assert.Equal(t, "", w.AlternateLabel)
	assert.Equal(t, "Maximum Value for Daily Cases on Mar/05/2020: 4", w.PrimaryLabel)
	// clamped at both ends: the whole delta series
	assert.Equal(t, []int64{1, 2, 3, 4, 3, 2, 1}, w.DailyCases)
	assert.Len(t, w.Dates, 7)
}

func TestLocate_EqualMaximaReportDuplicate(t *testing.T) {
	w, err := locate(t, Peak, 0, 1, 2, 5, 3, 5, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(5), w.Primary.Value)
	assert.Equal(t, 2, w.Primary.Index)
	require.Len(t, w.Annotations, 1)
	assert.Equal(t, AnnotationDuplicate, w.Annotations[0].Kind)
	assert.Equal(t, int64(5), w.Annotations[0].Value)
	assert.True(t, w.Annotations[0].Date.Equal(day0.AddDate(0, 0, 5)))
	assert.Equal(t, "Duplicate value on Mar/06/2020: 5", w.AlternateLabel)
}

func TestLocate_DuplicatesCappedWithSummary(t *testing.T) {
	w, err := locate(t, Peak, 0, 5, 1, 5, 1, 5, 1, 5, 1, 5)
	require.NoError(t, err)

	assert.Equal(t, 0, w.Primary.Index)
	require.Len(t, w.Annotations, 3)
	assert.Equal(t, AnnotationDuplicate, w.Annotations[0].Kind)
	assert.Equal(t, AnnotationDuplicate, w.Annotations[1].Kind)
	assert.Equal(t, AnnotationAdditional, w.Annotations[2].Kind)
	assert.Equal(t, 2, w.Annotations[2].Count)
	assert.Contains(t, w.AlternateLabel, "additional values detected")
}

func TestLocate_NegativeDeltaAtSmoothedPeak(t *testing.T) {
	// smoothed maximum falls on index 4 whose raw delta is a revision (-4)
	w, err := locate(t, Peak, 0, 1, 2, 3, 9, -4, 9, 3, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(9), w.Primary.Value)
	assert.Equal(t, 3, w.Primary.Index)
	require.Len(t, w.Annotations, 1)
	assert.Equal(t, AnnotationDuplicate, w.Annotations[0].Kind)
	for _, a := range w.Annotations {
		assert.GreaterOrEqual(t, a.Value, int64(0))
	}
}

func TestLocate_AlternateOutsideWindow(t *testing.T) {
	deltas := []int64{0, 0, 50, 0, 0, 0, 0, 0, 0, 0, 10, 15, 20, 25, 30, 25, 20, 15, 10, 5}
	w, err := locate(t, Peak, 0, deltas...)
	require.NoError(t, err)

	assert.Equal(t, int64(30), w.Primary.Value)
	assert.Equal(t, 14, w.Primary.Index)
	require.Len(t, w.Annotations, 1)
	assert.Equal(t, AnnotationAlternate, w.Annotations[0].Kind)
	assert.Equal(t, int64(50), w.Annotations[0].Value)
	assert.Equal(t, "Alternate value on Mar/04/2020: 50", w.AlternateLabel)
	// right edge clamps the display window
	assert.Len(t, w.DailyCases, 13)
	assert.Equal(t, int64(30), w.DailyCases[7])
}

func TestLocate_FifteenDayWindow(t *testing.T) {
	deltas := make([]int64, 40)
	for i := range deltas {
		if i < 20 {
			deltas[i] = int64(i)
		} else {
			deltas[i] = int64(40 - i)
		}
	}
	w, err := locate(t, Peak, 0, deltas...)
	require.NoError(t, err)

	assert.Equal(t, 20, w.Primary.Index)
	require.Len(t, w.DailyCases, 15)
	require.Len(t, w.Dates, 15)
	assert.Equal(t, deltas[13:28], w.DailyCases)
	assert.Equal(t, w.Primary.Value, w.DailyCases[7])
}

func TestLocate_WindowClampedAtStart(t *testing.T) {
	w, err := locate(t, Peak, 0, 1, 9, 8, 7, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, w.Primary.Index)
	assert.Len(t, w.DailyCases, 9)
	assert.Equal(t, int64(1), w.DailyCases[0])
}

func TestLocate_Trough(t *testing.T) {
	deltas := []int64{1, 3, 5, 7, 9, 7, 5, 3, 2, 1, -6, 1, 2, 3, 4, 5}
	peak, err := locate(t, Peak, 0, deltas...)
	require.NoError(t, err)
	require.Equal(t, 4, peak.Primary.Index)

	w, err := locate(t, Trough, peak.Primary.Index, deltas...)
	require.NoError(t, err)
	assert.Equal(t, Trough, w.Mode)
	assert.Equal(t, int64(1), w.Primary.Value)
	assert.Equal(t, 9, w.Primary.Index)
	require.Len(t, w.Annotations, 1)
	assert.Equal(t, AnnotationDuplicate, w.Annotations[0].Kind)
	assert.True(t, w.Annotations[0].Date.Equal(day0.AddDate(0, 0, 12)))
	assert.Contains(t, w.PrimaryLabel, "Minimum Value for Daily Cases")

	viaExtract, err := Extract(Trough, fromDeltas(t, deltas...))
	require.NoError(t, err)
	assert.Equal(t, w, viaExtract)
}

func TestLocate_TroughSkipsNegativeSmoothedMinimum(t *testing.T) {
	deltas := []int64{1, 3, 5, 7, 9, 7, 5, 3, 2, -30, 1, 1, 2, 3, 4, 5, 6}
	d, err := ToDelta(fromDeltas(t, deltas...))
	require.NoError(t, err)
	sm := Smooth(d)
	for i := 7; i <= 11; i++ {
		assert.Less(t, sm[i].Value, 0.0, "smoothed[%d]", i)
	}
	assert.Equal(t, 2.2, sm[12].Value)

	peak, err := Locate(Peak, d, sm, 0)
	require.NoError(t, err)
	require.Equal(t, 4, peak.Primary.Index)

	w, err := Locate(Trough, d, sm, peak.Primary.Index)
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.Primary.Value)
	assert.Equal(t, 10, w.Primary.Index)
	require.Len(t, w.Annotations, 1)
	assert.Equal(t, AnnotationDuplicate, w.Annotations[0].Kind)
	assert.True(t, w.Annotations[0].Date.Equal(d[11].Date))
	// clamped at the right edge: deltas[3:17]
	assert.Equal(t, deltas[3:], w.DailyCases)
	assert.Len(t, w.DailyCases, 14)
}

func TestLocate_TroughWithoutPeak(t *testing.T) {
	_, err := locate(t, Trough, NoPeak, 1, 2, 3, 4, 3, 2, 1)
	var nt *NoTroughFoundError
	require.True(t, errors.As(err, &nt))
	assert.Equal(t, "no peak located", nt.Reason)

	// every delta negative: the peak cannot be located
	_, err = Extract(Trough, cumulative(t, 10, 9, 8, 7, 6, 5, 4))
	require.True(t, errors.As(err, &nt))
}

func TestLocate_TroughNoNonNegativeTail(t *testing.T) {
	deltas := []int64{0, 1, 2, 3, 10, -20, -20, -20, -20}
	peak, err := locate(t, Peak, 0, deltas...)
	require.NoError(t, err)
	require.Equal(t, 4, peak.Primary.Index)

	_, err = locate(t, Trough, peak.Primary.Index, deltas...)
	var nt *NoTroughFoundError
	require.True(t, errors.As(err, &nt))
}

func TestLocate_NoValidPeak(t *testing.T) {
	_, err := Extract(Peak, cumulative(t, 10, 9, 8, 7, 6, 5, 4))
	var nv *NoValidExtremumError
	require.True(t, errors.As(err, &nv))
	assert.Equal(t, Peak, nv.Mode)
	assert.False(t, nv.From.IsZero())

	// too short to smooth
	_, err = Extract(Peak, cumulative(t, 1, 2, 3))
	require.True(t, errors.As(err, &nv))
}

func TestLocate_Idempotent(t *testing.T) {
	ts := fromDeltas(t, 1, 2, 5, 3, 5, 2, 1, 0, 4, 4)
	a, err := Extract(Peak, ts)
	require.NoError(t, err)
	b, err := Extract(Peak, ts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLocate_MismatchedLengths(t *testing.T) {
	d, err := ToDelta(fromDeltas(t, 1, 2, 3, 4, 5, 6))
	require.NoError(t, err)
	_, err = Locate(Peak, d, Smooth(d[:3]), 0)
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"highest": Peak, "peak": Peak, "MAX": Peak,
		"lowest": Trough, "trough": Trough, " min ": Trough,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("sideways")
	assert.Error(t, err)
}

func TestArgExtreme_FirstOccurrenceWins(t *testing.T) {
	vals := []int64{3, 7, 7, 1, 1}
	all := func(int) bool { return true }
	assert.Equal(t, 1, argExtreme(vals, all, prefers[int64](Peak)))
	assert.Equal(t, 3, argExtreme(vals, all, prefers[int64](Trough)))
	assert.Equal(t, -1, argExtreme(vals, func(int) bool { return false }, prefers[int64](Peak)))
}
