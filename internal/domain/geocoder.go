package domain

import "context"

// Geocoder resolves free-text locations to coordinates.
//
// Resolution is not pure: the same text may resolve differently over time as
// the upstream provider's data changes, so callers must not assume a cached
// result is permanent.
type Geocoder interface {
	// Resolve converts a location string to a coordinate pair. Returns
	// ErrLocationNotFound when the provider has no match and
	// ErrGeocodingUnavailable on transport or service failure.
	Resolve(ctx context.Context, text string) (GeoPoint, error)
}
