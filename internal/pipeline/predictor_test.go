package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroforecast/prediction-service/internal/domain"
	"github.com/hydroforecast/prediction-service/internal/forecast"
	"github.com/hydroforecast/prediction-service/internal/observability"
)

type fakeStore struct {
	tanks    map[string]domain.Tank
	entries  map[string][]domain.TankLogEntry
	readErr  error
	logReads atomic.Int32
}

func (f *fakeStore) GetTank(_ context.Context, id string) (domain.Tank, error) {
	t, ok := f.tanks[id]
	if !ok {
		return domain.Tank{}, domain.ErrTankNotFound
	}
	return t, nil
}

func (f *fakeStore) ReadLogEntries(_ context.Context, tankID string) ([]domain.TankLogEntry, error) {
	f.logReads.Add(1)
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.entries[tankID], nil
}

type fakeGroundwater struct {
	est   domain.GroundwaterEstimate
	err   error
	calls atomic.Int32
}

func (f *fakeGroundwater) Estimate(context.Context, string) (domain.GroundwaterEstimate, error) {
	f.calls.Add(1)
	return f.est, f.err
}

type fakeRainfall struct {
	series domain.RainfallSeries
	err    error
	calls  atomic.Int32
}

func (f *fakeRainfall) Forecast(context.Context, string) (domain.RainfallSeries, error) {
	f.calls.Add(1)
	return f.series, f.err
}

func dailyEntries(n int) []domain.TankLogEntry {
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	entries := make([]domain.TankLogEntry, n)
	for i := range entries {
		entries[i] = domain.TankLogEntry{
			Timestamp: base.AddDate(0, 0, i),
			Level:     50 + float64(i),
		}
	}
	return entries
}

func testPredictor(store *fakeStore, gw *fakeGroundwater, rain *fakeRainfall) *Predictor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPredictor(store, gw, rain, forecast.New(), 10, observability.NewMetricsForTesting(), logger)
}

func happyFixtures() (*fakeStore, *fakeGroundwater, *fakeRainfall) {
	store := &fakeStore{
		tanks: map[string]domain.Tank{
			"t1": {ID: "t1", Location: "Mumbai, India"},
		},
		entries: map[string][]domain.TankLogEntry{"t1": dailyEntries(10)},
	}
	gw := &fakeGroundwater{est: domain.GroundwaterEstimate{DepthMBGL: 4.2, DistanceKm: 1.5}}
	rain := &fakeRainfall{series: domain.RainfallSeries{
		{Date: time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC), Mm: 3.0},
		{Date: time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC), Mm: 0.5},
	}}
	return store, gw, rain
}

func TestPredict_AllSignals(t *testing.T) {
	store, gw, rain := happyFixtures()
	p := testPredictor(store, gw, rain)

	resp, err := p.Predict(context.Background(), "t1")
	require.NoError(t, err)

	assert.Equal(t, "t1", resp.TankID)
	assert.Equal(t, "Mumbai, India", resp.Location)
	require.NotNil(t, resp.GroundwaterLevelMBGL)
	assert.Equal(t, 4.2, *resp.GroundwaterLevelMBGL)
	assert.Equal(t, []float64{3.0, 0.5}, resp.RainfallForecast)
	assert.Empty(t, resp.Warnings)
	assert.False(t, resp.GeneratedAt.IsZero())

	require.Len(t, resp.Predictions, 10)
	// History ends Aug 10, so the forecast starts Aug 11 and runs daily.
	assert.Equal(t, "2026-08-11", resp.Predictions[0].Date.Format(domain.DateFormat))
	assert.Equal(t, "2026-08-20", resp.Predictions[9].Date.Format(domain.DateFormat))
	// Steady +1/day history extrapolates linearly.
	assert.InDelta(t, 60.0, resp.Predictions[0].Value, 0.01)
}

func TestPredict_TankNotFound_NoSignalCalls(t *testing.T) {
	store, gw, rain := happyFixtures()
	p := testPredictor(store, gw, rain)

	_, err := p.Predict(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrTankNotFound)

	assert.Zero(t, gw.calls.Load())
	assert.Zero(t, rain.calls.Load())
	assert.Zero(t, store.logReads.Load())
}

func TestPredict_LocationMissing_NoSignalCalls(t *testing.T) {
	store, gw, rain := happyFixtures()
	store.tanks["t2"] = domain.Tank{ID: "t2"}
	p := testPredictor(store, gw, rain)

	_, err := p.Predict(context.Background(), "t2")
	require.ErrorIs(t, err, domain.ErrLocationMissing)

	assert.Zero(t, gw.calls.Load())
	assert.Zero(t, rain.calls.Load())
}

func TestPredict_InsufficientHistoryFailsRequest(t *testing.T) {
	store, gw, rain := happyFixtures()
	store.entries["t1"] = dailyEntries(3)
	p := testPredictor(store, gw, rain)

	_, err := p.Predict(context.Background(), "t1")
	require.ErrorIs(t, err, domain.ErrInsufficientHistory)
}

func TestPredict_HistoryReadErrorFailsRequest(t *testing.T) {
	store, gw, rain := happyFixtures()
	store.readErr = errors.New("disk gone")
	p := testPredictor(store, gw, rain)

	_, err := p.Predict(context.Background(), "t1")
	require.Error(t, err)
}

func TestPredict_GroundwaterDegrades(t *testing.T) {
	store, gw, rain := happyFixtures()
	gw.err = domain.ErrGeocodingUnavailable
	p := testPredictor(store, gw, rain)

	resp, err := p.Predict(context.Background(), "t1")
	require.NoError(t, err)

	assert.Nil(t, resp.GroundwaterLevelMBGL)
	assert.Equal(t, []float64{3.0, 0.5}, resp.RainfallForecast)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "groundwater")
	assert.Contains(t, resp.Warnings[0], "geocoding unavailable")
	assert.Len(t, resp.Predictions, 10)
}

func TestPredict_RainfallDegrades(t *testing.T) {
	store, gw, rain := happyFixtures()
	rain.err = domain.ErrForecastUnavailable
	p := testPredictor(store, gw, rain)

	resp, err := p.Predict(context.Background(), "t1")
	require.NoError(t, err)

	assert.Empty(t, resp.RainfallForecast)
	require.NotNil(t, resp.GroundwaterLevelMBGL)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "rainfall")
}

func TestPredict_BothSignalsDegrade(t *testing.T) {
	store, gw, rain := happyFixtures()
	gw.err = domain.ErrLocationNotFound
	rain.err = errors.New("socket reset")
	p := testPredictor(store, gw, rain)

	resp, err := p.Predict(context.Background(), "t1")
	require.NoError(t, err)

	assert.Len(t, resp.Warnings, 2)
	assert.Len(t, resp.Predictions, 10)
}

func TestPredict_GeneratedAtUsesClock(t *testing.T) {
	frozen := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { domain.SetClock(nil) })

	store, gw, rain := happyFixtures()
	p := testPredictor(store, gw, rain)

	resp, err := p.Predict(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, resp.GeneratedAt.Equal(frozen))
}

func TestPredict_DuplicateTimestampsResolvedBeforeFit(t *testing.T) {
	store, gw, rain := happyFixtures()
	entries := dailyEntries(6)
	// Re-report day three with a corrected level; last write wins.
	entries = append(entries, domain.TankLogEntry{Timestamp: entries[2].Timestamp, Level: 99})
	store.entries["t1"] = entries
	p := testPredictor(store, gw, rain)

	resp, err := p.Predict(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, resp.Predictions, 10)
}
