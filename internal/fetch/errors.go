package fetch

import "errors"

// Failure classification for the ingestion stage. Callers match with
// errors.Is; the wrapped chain keeps the underlying cause.
var (
	// ErrUnreachable is returned when the API could not be reached with a
	// successful status after exhausting the retry budget.
	ErrUnreachable = errors.New("api unreachable after exhausting retries")

	// ErrMalformedResponse is returned when a page body is not valid JSON or
	// is not shaped as an array/object of records. Never retried: a malformed
	// payload is a contract violation, not a transient fault.
	ErrMalformedResponse = errors.New("malformed api response")

	// ErrAuthFailure is returned when the API rejects the supplied
	// credentials (401/403). Never retried.
	ErrAuthFailure = errors.New("api credentials rejected")
)
