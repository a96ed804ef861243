package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroforecast/prediction-service/internal/domain"
)

func dailySeries(start time.Time, levels ...float64) []domain.TankLogEntry {
	out := make([]domain.TankLogEntry, len(levels))
	for i, v := range levels {
		out[i] = domain.TankLogEntry{Timestamp: start.AddDate(0, 0, i), Level: v}
	}
	return out
}

var seriesStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestFitAndPredict_TooFewReadings(t *testing.T) {
	f := New()
	_, err := f.FitAndPredict(dailySeries(seriesStart, 1, 2, 3, 4), 7)
	require.ErrorIs(t, err, domain.ErrInsufficientHistory)
}

func TestFitAndPredict_NonIncreasingTimestamps(t *testing.T) {
	f := New()
	series := dailySeries(seriesStart, 1, 2, 3, 4, 5)
	series[3].Timestamp = series[2].Timestamp // duplicate

	_, err := f.FitAndPredict(series, 7)
	require.ErrorIs(t, err, domain.ErrInsufficientHistory)
}

func TestFitAndPredict_SingleDaySpan(t *testing.T) {
	f := New()
	series := make([]domain.TankLogEntry, 5)
	for i := range series {
		series[i] = domain.TankLogEntry{
			Timestamp: seriesStart.Add(time.Duration(i) * time.Hour),
			Level:     float64(i),
		}
	}

	_, err := f.FitAndPredict(series, 7)
	require.ErrorIs(t, err, domain.ErrInsufficientHistory)
}

func TestFitAndPredict_InvalidHorizon(t *testing.T) {
	f := New()
	_, err := f.FitAndPredict(dailySeries(seriesStart, 1, 2, 3, 4, 5), 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInsufficientHistory)
}

func TestFitAndPredict_LinearTrendContinues(t *testing.T) {
	f := New()
	series := dailySeries(seriesStart, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)

	result, err := f.FitAndPredict(series, 3)
	require.NoError(t, err)

	require.Len(t, result.Values, 3)
	assert.InDelta(t, 11, result.Values[0], 1.0)
	assert.InDelta(t, 12, result.Values[1], 1.0)
	assert.InDelta(t, 13, result.Values[2], 1.0)

	// A perfectly linear series has zero residual, so the interval collapses.
	assert.InDelta(t, result.Values[0], result.Lower[0], 1e-6)
	assert.InDelta(t, result.Values[0], result.Upper[0], 1e-6)
}

func TestFitAndPredict_DatesStartDayAfterLastObservation(t *testing.T) {
	f := New()
	series := dailySeries(seriesStart, 5, 6, 7, 8, 9, 10)

	result, err := f.FitAndPredict(series, 10)
	require.NoError(t, err)

	require.Len(t, result.Dates, 10)
	lastDay := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, lastDay.AddDate(0, 0, 1), result.Dates[0])

	for i := 1; i < len(result.Dates); i++ {
		assert.Equal(t, result.Dates[i-1].AddDate(0, 0, 1), result.Dates[i],
			"prediction dates must be consecutive calendar days")
	}
}

func TestFitAndPredict_InterpolatesGapDays(t *testing.T) {
	f := New()
	// Days 0,1,2 then a hole at 3,4, then 5..7. Trend is exactly level = day.
	series := []domain.TankLogEntry{
		{Timestamp: seriesStart, Level: 0},
		{Timestamp: seriesStart.AddDate(0, 0, 1), Level: 1},
		{Timestamp: seriesStart.AddDate(0, 0, 2), Level: 2},
		{Timestamp: seriesStart.AddDate(0, 0, 5), Level: 5},
		{Timestamp: seriesStart.AddDate(0, 0, 6), Level: 6},
		{Timestamp: seriesStart.AddDate(0, 0, 7), Level: 7},
	}

	result, err := f.FitAndPredict(series, 2)
	require.NoError(t, err)

	// With interpolation the series stays perfectly linear through the gap.
	assert.InDelta(t, 8, result.Values[0], 1e-6)
	assert.InDelta(t, 9, result.Values[1], 1e-6)
}

func TestFitAndPredict_AveragesSameDayReadings(t *testing.T) {
	f := New()
	series := []domain.TankLogEntry{
		{Timestamp: seriesStart, Level: 0},
		{Timestamp: seriesStart.Add(6 * time.Hour), Level: 2}, // same day, averages to 1
		{Timestamp: seriesStart.AddDate(0, 0, 1), Level: 2},
		{Timestamp: seriesStart.AddDate(0, 0, 2), Level: 3},
		{Timestamp: seriesStart.AddDate(0, 0, 3), Level: 4},
		{Timestamp: seriesStart.AddDate(0, 0, 4), Level: 5},
	}

	result, err := f.FitAndPredict(series, 1)
	require.NoError(t, err)
	assert.InDelta(t, 6, result.Values[0], 1e-6)
}

func TestFitAndPredict_WeeklySeasonality(t *testing.T) {
	f := New()

	// Four weeks of flat trend with a +3 bump every Sunday.
	start := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) // a Monday
	series := make([]domain.TankLogEntry, 28)
	for i := range series {
		ts := start.AddDate(0, 0, i)
		level := 50.0
		if ts.Weekday() == time.Sunday {
			level += 3
		}
		series[i] = domain.TankLogEntry{Timestamp: ts, Level: level}
	}

	result, err := f.FitAndPredict(series, 7)
	require.NoError(t, err)

	for i, date := range result.Dates {
		if date.Weekday() == time.Sunday {
			assert.Greater(t, result.Values[i], 51.5, "Sunday bump should survive the fit")
		} else {
			assert.Less(t, result.Values[i], 51.5)
		}
	}
}

func TestFitAndPredict_Deterministic(t *testing.T) {
	f := New()
	series := dailySeries(seriesStart, 3, 5, 4, 6, 8, 7, 9, 11, 10, 12)

	a, err := f.FitAndPredict(series, 10)
	require.NoError(t, err)
	b, err := f.FitAndPredict(series, 10)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFitAndPredict_BoundsBracketValues(t *testing.T) {
	f := New()
	series := dailySeries(seriesStart, 3, 5, 4, 6, 8, 7, 9, 11, 10, 12)

	result, err := f.FitAndPredict(series, 5)
	require.NoError(t, err)

	for i := range result.Values {
		assert.LessOrEqual(t, result.Lower[i], result.Values[i])
		assert.GreaterOrEqual(t, result.Upper[i], result.Values[i])
	}
}
