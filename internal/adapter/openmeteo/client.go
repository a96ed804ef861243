// Package openmeteo retrieves daily precipitation forecasts from the
// Open-Meteo API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hydroforecast/prediction-service/internal/domain"
	"github.com/hydroforecast/prediction-service/internal/observability"
)

// MaxForecastDays is the provider-defined horizon cap.
const MaxForecastDays = 16

// Client queries the Open-Meteo daily forecast endpoint. Open-Meteo needs no
// API key for non-commercial volumes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo forecast client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// response mirrors the subset of the Open-Meteo payload this service reads.
// Precipitation entries are pointers because the provider emits null for days
// it cannot forecast.
type response struct {
	Daily struct {
		Time             []string   `json:"time"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// DailyRainfall fetches a daily precipitation series for the coordinate.
//
// Normalization is best-effort truncation: null amounts and unparseable dates
// are dropped rather than failing the call, so the returned series may be
// shorter than requested. Transport errors, non-200 statuses, and responses
// missing the daily arrays fail with domain.ErrForecastUnavailable.
func (c *Client) DailyRainfall(ctx context.Context, point domain.GeoPoint, days int) (domain.RainfallSeries, error) {
	if days < 1 || days > MaxForecastDays {
		return nil, fmt.Errorf("forecast days must be 1-%d, got %d", MaxForecastDays, days)
	}

	params := url.Values{
		"latitude":      {formatCoord(point.Lat)},
		"longitude":     {formatCoord(point.Lon)},
		"daily":         {"precipitation_sum"},
		"forecast_days": {strconv.Itoa(days)},
		"timezone":      {"auto"},
	}
	fullURL := c.baseURL + "/v1/forecast?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrForecastUnavailable, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RainfallAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.RainfallRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrForecastUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.RainfallRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrForecastUnavailable, resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.metrics.RainfallRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrForecastUnavailable, err)
	}

	if len(payload.Daily.Time) == 0 || len(payload.Daily.PrecipitationSum) == 0 {
		c.metrics.RainfallRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: response missing daily series", domain.ErrForecastUnavailable)
	}

	series := normalize(payload, c.logger)
	c.metrics.RainfallRequests.WithLabelValues("success").Inc()
	return series, nil
}

// normalize pairs dates with amounts, dropping entries the provider could not
// fill. Index alignment between the two arrays is the provider's contract;
// the shorter array bounds the walk.
func normalize(payload response, logger *slog.Logger) domain.RainfallSeries {
	n := len(payload.Daily.Time)
	if len(payload.Daily.PrecipitationSum) < n {
		n = len(payload.Daily.PrecipitationSum)
	}

	series := make(domain.RainfallSeries, 0, n)
	for i := 0; i < n; i++ {
		amount := payload.Daily.PrecipitationSum[i]
		if amount == nil {
			continue
		}
		date, err := time.Parse(domain.DateFormat, payload.Daily.Time[i])
		if err != nil {
			logger.Debug("skipping rainfall entry with bad date", "value", payload.Daily.Time[i])
			continue
		}
		series = append(series, domain.RainfallDay{Date: date, Mm: *amount})
	}
	return series
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
