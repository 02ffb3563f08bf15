package fetcher

import "fmt"

// AuthError means the remote API rejected the credentials (401/403).
// It is fatal to the requesting collector and never retried.
type AuthError struct {
	Endpoint string
	Status   int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("fetcher: credentials rejected by %s (status %d)", e.Endpoint, e.Status)
}

// FetchError means a page request failed after exhausting its retry budget.
// Pagination of that source stops; pages already retrieved are still
// returned to the caller.
type FetchError struct {
	Endpoint string
	Page     int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher: fetch %s page %d: %v", e.Endpoint, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
