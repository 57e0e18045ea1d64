package domain

import "errors"

// Failure taxonomy. Every error leaving a usecase wraps one of these so the
// HTTP layer can map it to a status and a user notice without string matching.
var (
	// ErrInvalidInput covers missing required fields and the via-point cap.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBuildInProgress rejects a build while another is in flight.
	ErrBuildInProgress = errors.New("route build already in progress")

	// ErrViaLimit signals an attempt to add more than MaxViaPoints.
	ErrViaLimit = errors.New("via point limit reached")

	// ErrGeocodeNotFound means the geocoder resolved nothing for the text.
	ErrGeocodeNotFound = errors.New("address not found")

	// ErrNoRoute means the provider could not connect the waypoints.
	ErrNoRoute = errors.New("no route between points")

	// ErrProvider covers any other provider or network failure.
	ErrProvider = errors.New("routing provider error")

	// ErrLayerLoad covers non-404 geodata fetch failures and malformed
	// documents. A 404 is not an error; it maps to ErrLayerNoData.
	ErrLayerLoad = errors.New("layer load failed")

	// ErrLayerNoData is the defined "no data for this area" signal.
	ErrLayerNoData = errors.New("no data for layer")

	// ErrShareDecode means a share token could not be decoded.
	ErrShareDecode = errors.New("malformed share token")

	// ErrNotFound is a generic missing-entity error for lookups.
	ErrNotFound = errors.New("not found")
)
