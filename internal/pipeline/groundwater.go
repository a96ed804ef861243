// Package pipeline composes the prediction signals: groundwater depth from
// the survey index, daily rainfall from the forecast provider, and the fitted
// level forecast from the tank's log history.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hydroforecast/prediction-service/internal/domain"
	"github.com/hydroforecast/prediction-service/internal/observability"
	"github.com/hydroforecast/prediction-service/internal/spatial"
)

// GroundwaterEstimator resolves a free-text location to the nearest survey
// record's groundwater depth.
type GroundwaterEstimator struct {
	geocoder domain.Geocoder
	index    *spatial.Index
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewGroundwaterEstimator creates a GroundwaterEstimator over a built index.
func NewGroundwaterEstimator(geocoder domain.Geocoder, index *spatial.Index, metrics *observability.Metrics, logger *slog.Logger) *GroundwaterEstimator {
	return &GroundwaterEstimator{
		geocoder: geocoder,
		index:    index,
		metrics:  metrics,
		logger:   logger,
	}
}

// Estimate geocodes the location and returns the nearest survey record's
// depth. Geocoding failures pass through wrapped; the index lookup itself
// cannot fail on a non-empty index.
func (e *GroundwaterEstimator) Estimate(ctx context.Context, location string) (domain.GroundwaterEstimate, error) {
	point, err := e.geocoder.Resolve(ctx, location)
	if err != nil {
		return domain.GroundwaterEstimate{}, fmt.Errorf("geocode %q: %w", location, err)
	}

	start := time.Now()
	rec := e.index.Nearest(point)
	e.metrics.SpatialQueryDuration.Observe(time.Since(start).Seconds())

	est := domain.GroundwaterEstimate{
		DepthMBGL:  rec.DepthMBGL,
		Nearest:    rec.Point,
		DistanceKm: spatial.DistanceKm(point, rec.Point),
	}
	e.logger.Debug("groundwater estimate",
		"location", location,
		"depth_mbgl", est.DepthMBGL,
		"distance_km", est.DistanceKm,
	)
	return est, nil
}
