package downloads

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by FileStore lookups for unknown or expired
// artifacts. Recoverable: surfaced as a 404, never logged as a fault.
var ErrNotFound = errors.New("artifact not found")

// ResolutionError means the playlist reference was invalid, inaccessible or
// resolved to zero segments. Terminal for the job.
type ResolutionError struct {
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("playlist resolution failed: %v", e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// TransientFetchError covers timeouts, connection resets, 5xx and
// rate-limit responses. Retried inside the fetcher.
type TransientFetchError struct {
	Locator string
	Err     error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("transient fetch error for %s: %v", e.Locator, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// PermanentFetchError covers 4xx (other than rate-limit) and malformed
// responses. Fails the segment immediately, without retry.
type PermanentFetchError struct {
	Locator string
	Err     error
}

func (e *PermanentFetchError) Error() string {
	return fmt.Sprintf("permanent fetch error for %s: %v", e.Locator, e.Err)
}

func (e *PermanentFetchError) Unwrap() error { return e.Err }

// AssemblyError covers failures while writing the final output file. Any
// partial output is discarded before this is returned.
type AssemblyError struct {
	Err error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembly failed: %v", e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

func IsTransientFetch(err error) bool {
	var t *TransientFetchError
	return errors.As(err, &t)
}

func IsPermanentFetch(err error) bool {
	var p *PermanentFetchError
	return errors.As(err, &p)
}
