package openalex

import (
	"fmt"

	"github.com/JakeFAU/pubharvest/internal/harvest"
)

// StatusError reports a non-success HTTP status from the API.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openalex: HTTP %d for %s", e.StatusCode, e.URL)
}

// Unwrap lets callers match the error with errors.Is(err, harvest.ErrRemoteFetchFailed).
func (e *StatusError) Unwrap() error {
	return harvest.ErrRemoteFetchFailed
}
