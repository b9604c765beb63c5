package downloads

import "context"

// Fetcher retrieves one segment's bytes. Implementations retry transient
// failures internally; an error escaping Fetch is either a
// *PermanentFetchError or a *TransientFetchError whose retry bound was
// exhausted.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}
