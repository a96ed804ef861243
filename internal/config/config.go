// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	DBPath        string `envconfig:"DB_PATH" default:"data/hydroforecast.db"`
	SurveyCSVPath string `envconfig:"SURVEY_CSV_PATH" required:"true"`

	// Nominatim geocoding configuration. The user agent identifies this
	// deployment per the provider's usage policy.
	GeocoderBaseURL   string        `envconfig:"GEOCODER_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	GeocoderUserAgent string        `envconfig:"GEOCODER_USER_AGENT" default:"hydroforecast-prediction-service"`
	GeocoderTimeout   time.Duration `envconfig:"GEOCODER_TIMEOUT" default:"10s"`
	GeocoderCacheSize int           `envconfig:"GEOCODER_CACHE_SIZE" default:"1000"`

	ForecastBaseURL string        `envconfig:"FORECAST_BASE_URL" default:"https://api.open-meteo.com"`
	ForecastTimeout time.Duration `envconfig:"FORECAST_TIMEOUT" default:"10s"`

	RainfallDays          int `envconfig:"RAINFALL_DAYS" default:"7"`
	PredictionHorizonDays int `envconfig:"PREDICTION_HORIZON_DAYS" default:"10"`

	// Event publishing is enabled only when both are set.
	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS"`
	PredictionsTopic string   `envconfig:"PREDICTIONS_TOPIC"`
}

// Load reads configuration from environment variables, applying defaults
// where unset, and validates cross-field constraints.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PublishingEnabled reports whether prediction events should go to Kafka.
func (c *Config) PublishingEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.PredictionsTopic != ""
}

// Validate checks ranges and pairings envconfig tags cannot express.
func (c *Config) Validate() error {
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.GeocoderTimeout <= 0 {
		return errors.New("GEOCODER_TIMEOUT must be positive")
	}
	if c.ForecastTimeout <= 0 {
		return errors.New("FORECAST_TIMEOUT must be positive")
	}
	if c.GeocoderCacheSize <= 0 {
		return errors.New("GEOCODER_CACHE_SIZE must be positive")
	}
	if c.RainfallDays < 1 || c.RainfallDays > 16 {
		return fmt.Errorf("RAINFALL_DAYS must be 1-16, got %d", c.RainfallDays)
	}
	if c.PredictionHorizonDays < 1 {
		return errors.New("PREDICTION_HORIZON_DAYS must be positive")
	}
	if len(c.KafkaBrokers) > 0 && c.PredictionsTopic == "" {
		return errors.New("KAFKA_BROKERS is set but PREDICTIONS_TOPIC is not")
	}
	if c.PredictionsTopic != "" && len(c.KafkaBrokers) == 0 {
		return errors.New("PREDICTIONS_TOPIC is set but KAFKA_BROKERS is not")
	}
	return nil
}
