// Package nominatim implements domain.Geocoder against the OpenStreetMap
// Nominatim search API.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hydroforecast/prediction-service/internal/domain"
	"github.com/hydroforecast/prediction-service/internal/observability"
)

// Client resolves free-text locations via Nominatim. Nominatim's usage policy
// requires an identifying User-Agent on every request.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim geocoding client.
func NewClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// place is one entry of a Nominatim search response. Coordinates arrive as
// strings.
type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve converts a location string to coordinates. A service or transport
// failure is retried exactly once with no backoff; "no match" is permanent and
// surfaces immediately as domain.ErrLocationNotFound.
func (c *Client) Resolve(ctx context.Context, text string) (domain.GeoPoint, error) {
	var point domain.GeoPoint

	op := func() error {
		p, err := c.resolve(ctx, text)
		if err != nil {
			if errors.Is(err, domain.ErrLocationNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		point = p
		return nil
	}

	if err := backoff.Retry(op, backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1)); err != nil {
		return domain.GeoPoint{}, err
	}
	return point, nil
}

func (c *Client) resolve(ctx context.Context, text string) (domain.GeoPoint, error) {
	params := url.Values{
		"q":      {text},
		"format": {"json"},
		"limit":  {"1"},
	}
	fullURL := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: create request: %w", domain.ErrGeocodingUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeoPoint{}, fmt.Errorf("%w: %w", domain.ErrGeocodingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeoPoint{}, fmt.Errorf("%w: status %d: %s", domain.ErrGeocodingUnavailable, resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeoPoint{}, fmt.Errorf("%w: decode response: %w", domain.ErrGeocodingUnavailable, err)
	}

	if len(places) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("not_found").Inc()
		c.logger.Debug("geocode returned no match", "query", text)
		return domain.GeoPoint{}, fmt.Errorf("%w: %q", domain.ErrLocationNotFound, text)
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLon != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeoPoint{}, fmt.Errorf("%w: malformed coordinates for %q", domain.ErrGeocodingUnavailable, text)
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return domain.GeoPoint{Lat: lat, Lon: lon}, nil
}
