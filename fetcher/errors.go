package fetcher

import "errors"

// Sentinel errors for fetch operations.
// Callers should use errors.Is to check.
var (
	// ErrFetchFailed indicates the location could not be retrieved.
	ErrFetchFailed = errors.New("fetcher: fetch failed")
	// ErrHTTPStatus indicates an unexpected HTTP status (e.g. 500) when using HTTPFetcher.
	ErrHTTPStatus = errors.New("fetcher: unexpected HTTP status")
	// ErrNotFound indicates nothing exists at the location (HTTP 404 or missing file).
	ErrNotFound = errors.New("fetcher: not found")
	// ErrInvalidLocation indicates an empty, unparsable or unsafe location.
	ErrInvalidLocation = errors.New("fetcher: invalid location")
)
