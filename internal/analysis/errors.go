package analysis

import "errors"

var (
	// ErrNotConfigured indicates no API key was provided.
	ErrNotConfigured = errors.New("ai analysis not configured")
	// ErrUpstream signals a non-success response from the vision service.
	ErrUpstream = errors.New("vision service request failed")
	// ErrEmptyResponse signals a reply without any completion text.
	ErrEmptyResponse = errors.New("vision service returned no analysis")
)
