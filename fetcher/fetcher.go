package fetcher

import "context"

// Fetcher returns the raw bytes stored at location.
//
// Return ErrNotFound when nothing exists there and wrap other failures in
// ErrFetchFailed so callers can use errors.Is. Implementations must be safe
// for concurrent use and should honour ctx cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Func adapts an ordinary function to the Fetcher interface.
type Func func(ctx context.Context, location string) ([]byte, error)

// Fetch calls f(ctx, location).
func (f Func) Fetch(ctx context.Context, location string) ([]byte, error) {
	return f(ctx, location)
}

var _ Fetcher = Func(nil)
