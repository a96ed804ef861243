package domain

import "errors"

// Sentinel errors for every failure class a prediction can hit. Callers branch
// with errors.Is; adapters wrap these with %w so the original cause stays
// attached.
var (
	// ErrTankNotFound: the tank id has no record, or a tank has no log rows.
	ErrTankNotFound = errors.New("tank not found")

	// ErrLocationMissing: the tank record exists but carries no location text.
	ErrLocationMissing = errors.New("tank has no location")

	// ErrLocationNotFound: the geocoding service returned no match.
	ErrLocationNotFound = errors.New("location not found")

	// ErrGeocodingUnavailable: transport or service failure talking to the
	// geocoding provider.
	ErrGeocodingUnavailable = errors.New("geocoding service unavailable")

	// ErrForecastUnavailable: transport failure or malformed response from the
	// rainfall forecast provider.
	ErrForecastUnavailable = errors.New("rainfall forecast unavailable")

	// ErrEmptyIndex: the survey dataset produced zero usable records. Fatal at
	// startup, never a per-request condition.
	ErrEmptyIndex = errors.New("survey index is empty")

	// ErrInsufficientHistory: fewer distinct readings than the forecaster
	// minimum.
	ErrInsufficientHistory = errors.New("insufficient tank history")

	// ErrUpstreamFailure: anything unanticipated from an external collaborator.
	ErrUpstreamFailure = errors.New("upstream failure")
)
