package domain

import "time"

// DateFormat is the wire format for civil dates (forecast days, rainfall days).
const DateFormat = "2006-01-02"

// GeoPoint is a WGS-84 latitude/longitude coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SurveyRecord is one row of the static groundwater survey dataset.
type SurveyRecord struct {
	Point     GeoPoint `json:"point"`
	DepthMBGL float64  `json:"depth_mbgl"`
}

// Tank is a registered water storage tank.
type Tank struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CapacityLiters float64   `json:"capacity_liters"`
	Location       string    `json:"location"` // free text, e.g. "Mumbai, India"
	Type           string    `json:"type"`     // Rainwater, Groundwater, Reservoir, Other
	Status         string    `json:"status"`   // Active or Inactive
	CurrentLevel   float64   `json:"current_level"`
	CreatedAt      time.Time `json:"created_at"`
}

// Tank type and status values accepted by the API.
const (
	TankTypeRainwater   = "Rainwater"
	TankTypeGroundwater = "Groundwater"
	TankTypeReservoir   = "Reservoir"
	TankTypeOther       = "Other"

	TankStatusActive   = "Active"
	TankStatusInactive = "Inactive"
)

// TankLogEntry is a single time-stamped level reading.
type TankLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     float64   `json:"level"`
}

// TankLog is a full reading row as stored, including operator metadata.
type TankLog struct {
	ID          int64     `json:"id"`
	TankID      string    `json:"tank_id"`
	Timestamp   time.Time `json:"timestamp"`
	Level       float64   `json:"level"`
	RainfallMm  float64   `json:"rainfall_mm"`
	UsageLiters float64   `json:"usage_liters"`
	Notes       string    `json:"notes,omitempty"`
	LogType     string    `json:"log_type"` // manual or automated
}

// Entry projects the row down to the (timestamp, level) pair the forecaster
// consumes.
func (l TankLog) Entry() TankLogEntry {
	return TankLogEntry{Timestamp: l.Timestamp, Level: l.Level}
}

// RainfallDay is one forecast day of precipitation.
type RainfallDay struct {
	Date time.Time `json:"date"`
	Mm   float64   `json:"mm"`
}

// RainfallSeries is a chronological daily precipitation forecast. The provider
// horizon caps it at 16 days; a shorter series is valid (missing provider
// entries are dropped, not zero-filled).
type RainfallSeries []RainfallDay

// Values returns just the millimeter amounts, in series order.
func (s RainfallSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, d := range s {
		out[i] = d.Mm
	}
	return out
}

// ForecastResult is the output of the time-series forecaster. All slices are
// index-aligned and exactly one entry per calendar day, starting the day after
// the last training observation.
type ForecastResult struct {
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`

	// 80% uncertainty interval around Values.
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

// GroundwaterEstimate is the resolved groundwater depth for a location, with
// the survey point that produced it.
type GroundwaterEstimate struct {
	DepthMBGL  float64  `json:"depth_mbgl"`
	Nearest    GeoPoint `json:"nearest"`
	DistanceKm float64  `json:"distance_km"`
}

// PredictedPoint is one forecast day in the prediction response.
type PredictedPoint struct {
	Date  CivilDate `json:"date"`
	Value float64   `json:"predicted_value"`
}

// PredictionResponse is the aggregate answer for one tank. Groundwater and
// rainfall are null/empty when their signal failed; Warnings names each
// degraded signal. Built fresh per request, never persisted here.
type PredictionResponse struct {
	TankID               string           `json:"tank_id"`
	Location             string           `json:"location"`
	GroundwaterLevelMBGL *float64         `json:"groundwater_level_mbgl"`
	RainfallForecast     []float64        `json:"rainfall_forecast"`
	Predictions          []PredictedPoint `json:"predictions"`
	Warnings             []string         `json:"warnings,omitempty"`
	GeneratedAt          time.Time        `json:"generated_at"`
}

// CivilDate marshals as an ISO-8601 calendar date without a time component.
type CivilDate struct {
	time.Time
}

// MarshalJSON renders the date as "YYYY-MM-DD".
func (d CivilDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateFormat) + `"`), nil
}

// UnmarshalJSON parses a "YYYY-MM-DD" date.
func (d *CivilDate) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
