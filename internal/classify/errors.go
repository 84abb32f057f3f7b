package classify

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEngine means the requested provider is not registered.
	ErrNoEngine = errors.New("unknown classification engine")
	// ErrNoAPIKey means the selected provider has no credential configured.
	// This is a deployment problem, not a request problem.
	ErrNoAPIKey = errors.New("api key is empty")
)

// UpstreamError is a transport-level failure or a non-success status from
// the model provider. Body is kept for the server log only and must never
// reach a client response.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s upstream %d: %s", e.Provider, e.Status, e.Body)
	}
	return fmt.Sprintf("%s upstream: %s", e.Provider, e.Body)
}

// MalformedError means the model answered, but with empty content or
// content that fails to parse or violates the result schema. Callers treat
// it like an upstream failure; it is logged distinctly for diagnosis.
type MalformedError struct {
	Provider string
	Reason   string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s returned malformed result: %s", e.Provider, e.Reason)
}
