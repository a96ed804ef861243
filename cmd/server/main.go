// Command server runs the tank fill-level prediction service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/hydroforecast/prediction-service/internal/adapter/http"
	kafkaadapter "github.com/hydroforecast/prediction-service/internal/adapter/kafka"
	"github.com/hydroforecast/prediction-service/internal/adapter/nominatim"
	"github.com/hydroforecast/prediction-service/internal/adapter/openmeteo"
	"github.com/hydroforecast/prediction-service/internal/config"
	"github.com/hydroforecast/prediction-service/internal/forecast"
	"github.com/hydroforecast/prediction-service/internal/observability"
	"github.com/hydroforecast/prediction-service/internal/pipeline"
	"github.com/hydroforecast/prediction-service/internal/spatial"
	"github.com/hydroforecast/prediction-service/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// The survey index is immutable; an unloadable or empty dataset is fatal.
	records, err := spatial.LoadSurveyCSV(cfg.SurveyCSVPath)
	if err != nil {
		logger.Error("failed to load survey dataset", "path", cfg.SurveyCSVPath, "error", err)
		os.Exit(1)
	}
	index, err := spatial.NewIndex(records)
	if err != nil {
		logger.Error("failed to build survey index", "error", err)
		os.Exit(1)
	}
	metrics.SurveyIndexSize.Set(float64(index.Size()))
	logger.Info("survey index loaded", "records", index.Size(), "path", cfg.SurveyCSVPath)

	geocoder := nominatim.NewCachedGeocoder(
		nominatim.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout, metrics, logger),
		cfg.GeocoderCacheSize,
		metrics,
	)
	meteo := openmeteo.NewClient(cfg.ForecastBaseURL, cfg.ForecastTimeout, metrics, logger)

	groundwater := pipeline.NewGroundwaterEstimator(geocoder, index, metrics, logger)
	rainfall := pipeline.NewRainfallForecaster(geocoder, meteo, cfg.RainfallDays, logger)
	predictor := pipeline.NewPredictor(st, groundwater, rainfall, forecast.New(), cfg.PredictionHorizonDays, metrics, logger)

	var publisher httpadapter.Publisher
	if cfg.PublishingEnabled() {
		kp := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.PredictionsTopic, metrics, logger)
		defer kp.Close()
		publisher = kp
		logger.Info("prediction event publishing enabled", "topic", cfg.PredictionsTopic)
	} else {
		logger.Info("prediction event publishing disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, st, predictor, publisher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
