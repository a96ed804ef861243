package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hydroforecast/prediction-service/internal/domain"
	"github.com/hydroforecast/prediction-service/internal/forecast"
	"github.com/hydroforecast/prediction-service/internal/observability"
)

// TankReader is the slice of the store the predictor needs.
type TankReader interface {
	GetTank(ctx context.Context, id string) (domain.Tank, error)
	ReadLogEntries(ctx context.Context, tankID string) ([]domain.TankLogEntry, error)
}

// GroundwaterSource estimates groundwater depth for a free-text location.
type GroundwaterSource interface {
	Estimate(ctx context.Context, location string) (domain.GroundwaterEstimate, error)
}

// RainfallProvider fetches the daily rainfall series for a free-text location.
type RainfallProvider interface {
	Forecast(ctx context.Context, location string) (domain.RainfallSeries, error)
}

// Predictor aggregates the three prediction signals for a tank.
//
// Groundwater and rainfall degrade on failure: the field is left null/empty
// and a warning is appended. A missing tank, a missing location, or too little
// history fails the whole request.
type Predictor struct {
	store       TankReader
	groundwater GroundwaterSource
	rainfall    RainfallProvider
	forecaster  *forecast.Forecaster
	horizonDays int
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewPredictor creates a Predictor forecasting horizonDays ahead.
func NewPredictor(
	store TankReader,
	groundwater GroundwaterSource,
	rainfall RainfallProvider,
	forecaster *forecast.Forecaster,
	horizonDays int,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Predictor {
	return &Predictor{
		store:       store,
		groundwater: groundwater,
		rainfall:    rainfall,
		forecaster:  forecaster,
		horizonDays: horizonDays,
		metrics:     metrics,
		logger:      logger,
	}
}

// Predict builds the aggregate prediction for one tank.
//
// The tank lookup runs first so an unknown tank or a tank without a location
// fails before any network call. The three signals then run concurrently; the
// level forecast is fitted on the history goroutine. A history or fit error
// cancels the in-flight signal calls and fails the request.
func (p *Predictor) Predict(ctx context.Context, tankID string) (domain.PredictionResponse, error) {
	start := time.Now()
	defer func() {
		p.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	}()

	tank, err := p.store.GetTank(ctx, tankID)
	if err != nil {
		p.metrics.PredictionRequests.WithLabelValues("error").Inc()
		return domain.PredictionResponse{}, err
	}
	if tank.Location == "" {
		p.metrics.PredictionRequests.WithLabelValues("error").Inc()
		return domain.PredictionResponse{}, fmt.Errorf("%w: tank %s", domain.ErrLocationMissing, tankID)
	}

	var (
		gwEst     domain.GroundwaterEstimate
		gwErr     error
		rainSerie domain.RainfallSeries
		rainErr   error
		fitted    domain.ForecastResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := p.store.ReadLogEntries(gctx, tankID)
		if err != nil {
			return err
		}
		series := domain.NormalizeLogs(entries)

		fitStart := time.Now()
		fitted, err = p.forecaster.FitAndPredict(series, p.horizonDays)
		p.metrics.ForecastFitDuration.Observe(time.Since(fitStart).Seconds())
		return err
	})
	g.Go(func() error {
		gwEst, gwErr = p.groundwater.Estimate(gctx, tank.Location)
		return nil
	})
	g.Go(func() error {
		rainSerie, rainErr = p.rainfall.Forecast(gctx, tank.Location)
		return nil
	})

	if err := g.Wait(); err != nil {
		p.metrics.PredictionRequests.WithLabelValues("error").Inc()
		return domain.PredictionResponse{}, err
	}

	resp := domain.PredictionResponse{
		TankID:      tank.ID,
		Location:    tank.Location,
		Predictions: make([]domain.PredictedPoint, len(fitted.Dates)),
		GeneratedAt: domain.Now().UTC(),
	}
	for i, date := range fitted.Dates {
		resp.Predictions[i] = domain.PredictedPoint{
			Date:  domain.CivilDate{Time: date},
			Value: fitted.Values[i],
		}
	}

	if gwErr != nil {
		p.logger.Warn("groundwater signal degraded", "tank_id", tankID, "error", gwErr)
		resp.Warnings = append(resp.Warnings, "groundwater estimate unavailable: "+reason(gwErr))
	} else {
		depth := gwEst.DepthMBGL
		resp.GroundwaterLevelMBGL = &depth
	}

	if rainErr != nil {
		p.logger.Warn("rainfall signal degraded", "tank_id", tankID, "error", rainErr)
		resp.Warnings = append(resp.Warnings, "rainfall forecast unavailable: "+reason(rainErr))
	} else {
		resp.RainfallForecast = rainSerie.Values()
	}

	outcome := "success"
	if len(resp.Warnings) > 0 {
		outcome = "degraded"
	}
	p.metrics.PredictionRequests.WithLabelValues(outcome).Inc()

	p.logger.Info("prediction generated",
		"tank_id", tankID,
		"horizon_days", p.horizonDays,
		"outcome", outcome,
		"duration", time.Since(start),
	)
	return resp, nil
}

// reason names the error kind for the warnings list without leaking the full
// wrapped chain to API clients.
func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrLocationNotFound):
		return "location not found"
	case errors.Is(err, domain.ErrGeocodingUnavailable):
		return "geocoding unavailable"
	case errors.Is(err, domain.ErrForecastUnavailable):
		return "forecast provider unavailable"
	default:
		return "upstream failure"
	}
}
