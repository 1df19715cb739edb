// Package harvest defines the contract between harvesters and the snapshot writer.
package harvest

import (
	"errors"

	"github.com/JakeFAU/pubharvest/internal/publication"
)

var (
	// ErrIdentityNotFound means the author lookup matched nothing. Fatal.
	ErrIdentityNotFound = errors.New("author identity not found")
	// ErrRemoteFetchFailed means the remote API answered with a non-success status. Fatal.
	ErrRemoteFetchFailed = errors.New("remote fetch failed")
	// ErrSuspectedBlock means a challenge or CAPTCHA page was served instead of the profile.
	ErrSuspectedBlock = errors.New("suspected block")
	// ErrEmptyExtraction means the page yielded no rows, or no rows could be mapped.
	ErrEmptyExtraction = errors.New("empty extraction")
	// ErrBrowserFailure means the browser session failed before extraction finished.
	ErrBrowserFailure = errors.New("browser failure")
)

// Result is what one harvester run hands to the snapshot writer.
type Result struct {
	Source string
	Author string
	Items  []publication.Record
	// ConfirmedEmpty marks an empty Items as a real answer rather than a failed harvest.
	ConfirmedEmpty bool
	// Preserve, when set, asks the writer to keep the previous snapshot. It wraps one of
	// the policy sentinels above.
	Preserve error
}

// Preserved builds a Result that keeps the previous snapshot for the given reason.
func Preserved(source string, reason error) Result {
	return Result{Source: source, Preserve: reason}
}

// IsPolicyOutcome reports whether err is a non-fatal outcome that must not fail the process.
func IsPolicyOutcome(err error) bool {
	return errors.Is(err, ErrSuspectedBlock) ||
		errors.Is(err, ErrEmptyExtraction) ||
		errors.Is(err, ErrBrowserFailure)
}
