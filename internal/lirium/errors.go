package lirium

import "fmt"

// APIError carries the partner's HTTP status and raw body so callers can
// log validation failures without re-reading the response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lirium: status %d: %s", e.Status, e.Body)
}

// Retryable reports whether the failure is worth retrying on the next
// pipeline pass. Partner validation errors (4xx) stay failed until the
// payload changes.
func (e *APIError) Retryable() bool {
	return e.Status >= 500
}
