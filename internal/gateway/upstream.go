package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sheikhshariarnehal/nesttask-edge/internal/cachestore"
)

// Upstream fetches assets from the origin serving the app shell. It
// implements lifecycle.AssetFetcher.
type Upstream struct {
	origin    *url.URL
	transport http.RoundTripper
	timeout   time.Duration
}

// NewUpstream parses the origin and builds the fetcher. A nil transport
// falls back to http.DefaultTransport.
func NewUpstream(origin string, transport http.RoundTripper, timeout time.Duration) (*Upstream, error) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse upstream origin: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("upstream origin %q must be absolute", origin)
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Upstream{origin: parsed, transport: transport, timeout: timeout}, nil
}

// Resolve joins a request path onto the upstream origin.
func (u *Upstream) Resolve(path string) *url.URL {
	ref := &url.URL{Path: path}
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		ref.Path = path[:idx]
		ref.RawQuery = path[idx+1:]
	}
	return u.origin.ResolveReference(ref)
}

// FetchAsset downloads one shell asset. Non-2xx responses are errors so an
// install never caches an error page as part of the shell.
func (u *Upstream) FetchAsset(ctx context.Context, path string) (cachestore.Entry, error) {
	target := u.Resolve(path)

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return cachestore.Entry{}, fmt.Errorf("build asset request: %w", err)
	}
	resp, err := u.transport.RoundTrip(req)
	if err != nil {
		return cachestore.Entry{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return cachestore.Entry{}, fmt.Errorf("asset %q returned status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cachestore.Entry{}, fmt.Errorf("read asset body: %w", err)
	}

	return cachestore.Entry{
		URL:        target.String(),
		Method:     http.MethodGet,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

// Do forwards an arbitrary request to the upstream, preserving method,
// headers and body.
func (u *Upstream) Do(req *http.Request) (*http.Response, error) {
	return u.transport.RoundTrip(req)
}

// Origin returns the parsed upstream origin.
func (u *Upstream) Origin() *url.URL {
	return u.origin
}
