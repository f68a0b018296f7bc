package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrUnauthorized      = fmt.Errorf("missing or invalid bearer credential")
	ErrMissingCredential = fmt.Errorf("missing bearer credential")

	// Streaming errors
	ErrTransportClosed   = fmt.Errorf("transport closed")
	ErrStreamIncomplete  = fmt.Errorf("stream ended without a terminal frame")
	ErrStreamUnsupported = fmt.Errorf("response writer does not support streaming")

	// Persistence errors
	ErrSessionNotFound = fmt.Errorf("session not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
