package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// prediction pipeline.
type Metrics struct {
	PredictionRequests *prometheus.CounterVec // labels: outcome={success,degraded,error}
	PredictionDuration prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,not_found,error}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	// Rainfall forecast metrics.
	RainfallRequests    *prometheus.CounterVec // labels: outcome={success,error}
	RainfallAPIDuration prometheus.Histogram

	// CPU-bound stages.
	SpatialQueryDuration prometheus.Histogram
	ForecastFitDuration  prometheus.Histogram

	SurveyIndexSize prometheus.Gauge
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PredictionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydroforecast",
			Name:      "prediction_requests_total",
			Help:      "Prediction requests by outcome.",
		}, []string{"outcome"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydroforecast",
			Name:      "prediction_duration_seconds",
			Help:      "End-to-end duration of one aggregate prediction.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydroforecast",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydroforecast",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydroforecast",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RainfallRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydroforecast",
			Name:      "rainfall_requests_total",
			Help:      "Rainfall forecast API requests by outcome.",
		}, []string{"outcome"}),
		RainfallAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydroforecast",
			Name:      "rainfall_api_duration_seconds",
			Help:      "Rainfall forecast API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SpatialQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydroforecast",
			Name:      "spatial_query_duration_seconds",
			Help:      "Nearest-neighbor survey lookup duration.",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}),
		ForecastFitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydroforecast",
			Name:      "forecast_fit_duration_seconds",
			Help:      "Time-series model fit and extrapolation duration.",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1},
		}),
		SurveyIndexSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hydroforecast",
			Name:      "survey_index_size",
			Help:      "Number of survey records in the spatial index.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydroforecast",
			Name:      "prediction_events_published_total",
			Help:      "Prediction events successfully published to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydroforecast",
			Name:      "prediction_event_publish_errors_total",
			Help:      "Prediction event publish failures.",
		}),
	}

	prometheus.MustRegister(
		m.PredictionRequests,
		m.PredictionDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.RainfallRequests,
		m.RainfallAPIDuration,
		m.SpatialQueryDuration,
		m.ForecastFitDuration,
		m.SurveyIndexSize,
		m.EventsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PredictionRequests:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hydroforecast", Name: "prediction_requests_total"}, []string{"outcome"}),
		PredictionDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hydroforecast", Name: "prediction_duration_seconds"}),
		GeocodeRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hydroforecast", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hydroforecast", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hydroforecast", Name: "geocode_api_duration_seconds"}),
		RainfallRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hydroforecast", Name: "rainfall_requests_total"}, []string{"outcome"}),
		RainfallAPIDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hydroforecast", Name: "rainfall_api_duration_seconds"}),
		SpatialQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hydroforecast", Name: "spatial_query_duration_seconds"}),
		ForecastFitDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hydroforecast", Name: "forecast_fit_duration_seconds"}),
		SurveyIndexSize:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "hydroforecast", Name: "survey_index_size"}),
		EventsPublished:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydroforecast", Name: "prediction_events_published_total"}),
		PublishErrors:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydroforecast", Name: "prediction_event_publish_errors_total"}),
	}
}
