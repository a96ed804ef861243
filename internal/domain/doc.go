// Package domain models water storage tanks, their level history, and the
// signals fused into a fill-level prediction.
//
// # Groundwater survey dataset
//
// Groundwater depth comes from a static geospatial survey table loaded once at
// process start. Each row carries a WGS-84 coordinate pair and the measured
// water level in meters below ground level (mbgl), the standard unit for
// borewell readings. The dataset is read-only for the process lifetime; a
// changed dataset requires a restart.
//
// Column conventions follow the original survey export:
//
//	LATITUDE, LONGITUDE  →  decimal degrees
//	WL(mbgl)             →  water level, meters below ground level
//
// Rows with unparseable coordinates are skipped during load rather than
// failing the whole file, since field surveys routinely contain blank or
// malformed cells.
//
// # Tank level logs
//
// Tank readings arrive from manual entry and automated sensors, so the raw log
// stream is neither sorted nor free of duplicates. [NormalizeLogs] is the
// single place that turns a raw reading sequence into forecaster input:
// duplicates on the same timestamp resolve last-write-wins, and the result is
// strictly ascending by timestamp.
//
// # Prediction composition
//
// A prediction fuses three independent signals: the nearest survey record's
// groundwater depth, a short-term daily rainfall forecast for the tank's
// location, and a trend+seasonality projection of the tank's own history.
// Groundwater and rainfall degrade to null fields with an entry in
// [PredictionResponse.Warnings] when their upstreams fail; the history
// projection is mandatory and its failure fails the whole prediction.
package domain
