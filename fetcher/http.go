package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodySize limits HTTP response body size (1 MB); HTML fragments are small.
const maxBodySize = 1 << 20

// defaultUserAgent is the User-Agent header value for HTTP requests.
const defaultUserAgent = "tplmgr/1.0"

// HTTPFetcher fetches template sources with GET requests.
// Absolute locations are requested as is; relative ones (e.g. /t/greeting.html) are
// resolved against the base URL. 404 returns ErrNotFound; other non-2xx returns ErrHTTPStatus.
type HTTPFetcher struct {
	base       *url.URL
	httpClient *http.Client
	authToken  string
	userAgent  string
}

var _ Fetcher = (*HTTPFetcher)(nil)

// HTTPOption configures HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient sets the HTTP client. Default has 30s timeout. If c is nil, the default client is left unchanged.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPFetcher) {
		if c != nil {
			h.httpClient = c
		}
	}
}

// WithAuthToken sets the Bearer token for Authorization header.
func WithAuthToken(token string) HTTPOption {
	return func(h *HTTPFetcher) {
		h.authToken = token
	}
}

// WithUserAgent overrides the User-Agent header. Empty keeps the default.
func WithUserAgent(ua string) HTTPOption {
	return func(h *HTTPFetcher) {
		if ua != "" {
			h.userAgent = ua
		}
	}
}

// NewHTTPFetcher creates an HTTPFetcher. baseURL may be empty, in which case every
// location must be an absolute http(s) URL; otherwise it must be a valid absolute URL.
func NewHTTPFetcher(baseURL string, opts ...HTTPOption) (*HTTPFetcher, error) {
	h := &HTTPFetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  defaultUserAgent,
	}
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("%w: invalid base URL %q", ErrInvalidLocation, baseURL)
		}
		if !strings.HasSuffix(parsed.Path, "/") {
			parsed.Path += "/"
		}
		h.base = parsed
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Resolve returns the absolute URL requested for location.
func (h *HTTPFetcher) Resolve(location string) (string, error) {
	if strings.TrimSpace(location) == "" {
		return "", fmt.Errorf("%w: empty location", ErrInvalidLocation)
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidLocation, location, err)
	}
	if ref.IsAbs() {
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocation, ref.Scheme)
		}
		return ref.String(), nil
	}
	if h.base == nil {
		return "", fmt.Errorf("%w: relative location %q without base URL", ErrInvalidLocation, location)
	}
	return h.base.ResolveReference(ref).String(), nil
}

// Fetch GETs the resolved location and returns the body.
func (h *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	u, err := h.Resolve(location)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html, text/plain;q=0.9, */*;q=0.1")
	if h.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+h.authToken)
	}
	resp, err := h.httpClient.Do(req) // #nosec G704 -- URL comes from the template registry
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %w: %s %s", ErrFetchFailed, ErrHTTPStatus, resp.Status, u)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFetchFailed, err)
	}
	if len(data) > maxBodySize {
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", ErrFetchFailed, maxBodySize)
	}
	return data, nil
}
