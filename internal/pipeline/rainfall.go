package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hydroforecast/prediction-service/internal/domain"
)

// RainfallSource fetches a daily precipitation series for a coordinate.
type RainfallSource interface {
	DailyRainfall(ctx context.Context, point domain.GeoPoint, days int) (domain.RainfallSeries, error)
}

// RainfallForecaster geocodes a free-text location and fetches its daily
// rainfall forecast.
type RainfallForecaster struct {
	geocoder domain.Geocoder
	source   RainfallSource
	days     int
	logger   *slog.Logger
}

// NewRainfallForecaster creates a RainfallForecaster requesting the given
// number of forecast days per call.
func NewRainfallForecaster(geocoder domain.Geocoder, source RainfallSource, days int, logger *slog.Logger) *RainfallForecaster {
	return &RainfallForecaster{
		geocoder: geocoder,
		source:   source,
		days:     days,
		logger:   logger,
	}
}

// Forecast returns the daily rainfall series for the location. The series may
// be shorter than the requested horizon when the provider omits days.
func (r *RainfallForecaster) Forecast(ctx context.Context, location string) (domain.RainfallSeries, error) {
	point, err := r.geocoder.Resolve(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", location, err)
	}

	series, err := r.source.DailyRainfall(ctx, point, r.days)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("rainfall forecast", "location", location, "days", len(series))
	return series, nil
}
