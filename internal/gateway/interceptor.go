package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sheikhshariarnehal/nesttask-edge/internal/cachestore"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/metrics"
)

const networkErrorBody = "Network error"

// InterceptorParams configure the fetch interceptor.
type InterceptorParams struct {
	Logger      *logger.Logger
	Store       cachestore.Store
	Upstream    *Upstream
	Generation  string
	BackendHost string
	OfflinePath string
	Timeout     time.Duration
	Metrics     *metrics.GatewayMetrics
}

// Interceptor serves requests network-first: try the upstream, cache
// successful GET responses, and fall back to the cache (then the offline
// page for navigations) when the network fails.
type Interceptor struct {
	logg        *logger.Logger
	store       cachestore.Store
	upstream    *Upstream
	generation  string
	backendHost string
	offlinePath string
	timeout     time.Duration
	metrics     *metrics.GatewayMetrics
}

// NewInterceptor validates dependencies.
func NewInterceptor(params InterceptorParams) (*Interceptor, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("cache store required")
	}
	if params.Upstream == nil {
		return nil, fmt.Errorf("upstream required")
	}
	if params.Generation == "" {
		return nil, fmt.Errorf("cache generation required")
	}
	if params.OfflinePath == "" {
		return nil, fmt.Errorf("offline path required")
	}
	return &Interceptor{
		logg:        params.Logger,
		store:       params.Store,
		upstream:    params.Upstream,
		generation:  params.Generation,
		backendHost: params.BackendHost,
		offlinePath: params.OfflinePath,
		timeout:     params.Timeout,
		metrics:     params.Metrics,
	}, nil
}

func (i *Interceptor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := i.upstream.Resolve(r.URL.RequestURI())

	// Data-backend traffic goes straight through; it is never cached and
	// never falls back to the offline page.
	if i.backendHost != "" && strings.Contains(strings.ToLower(r.Host), strings.ToLower(i.backendHost)) {
		i.metrics.IncFetch(metrics.FetchOutcomeBypassed)
		i.forward(w, r, target.String())
		return
	}

	// Non-GET requests are never cached and never fall back; they forward
	// like backend traffic so the caller sees the real transport error.
	if r.Method != http.MethodGet {
		i.metrics.IncFetch(metrics.FetchOutcomeBypassed)
		i.forward(w, r, target.String())
		return
	}

	status, header, body, err := i.fetchUpstream(r, target.String())
	if err == nil {
		if status >= 200 && status <= 299 {
			i.cacheResponse(r.Context(), target.String(), status, header, body)
		}
		i.metrics.IncFetch(metrics.FetchOutcomeNetwork)
		writeResponse(w, status, header, body)
		return
	}

	logCtx := i.logg.WithFields(r.Context(), map[string]any{
		"url":    target.String(),
		"method": r.Method,
	})
	i.logg.Warn(logCtx, "upstream fetch failed, falling back to cache")

	if entry, ok, cacheErr := i.store.Get(r.Context(), i.generation, r.Method, target.String()); cacheErr == nil && ok {
		i.metrics.IncFetch(metrics.FetchOutcomeCache)
		writeResponse(w, entry.StatusCode, entry.Header, entry.Body)
		return
	}

	if isNavigation(r) {
		offlineURL := i.upstream.Resolve(i.offlinePath).String()
		if entry, ok, cacheErr := i.store.Get(r.Context(), i.generation, http.MethodGet, offlineURL); cacheErr == nil && ok {
			i.metrics.IncFetch(metrics.FetchOutcomeOffline)
			writeResponse(w, http.StatusOK, entry.Header, entry.Body)
			return
		}
	}

	i.metrics.IncFetch(metrics.FetchOutcomeTimeout)
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusRequestTimeout)
	_, _ = w.Write([]byte(networkErrorBody))
}

func (i *Interceptor) fetchUpstream(r *http.Request, target string) (int, http.Header, []byte, error) {
	ctx := r.Context()
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, r.Body)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header = r.Header.Clone()

	resp, err := i.upstream.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, err
	}
	return resp.StatusCode, resp.Header.Clone(), body, nil
}

func (i *Interceptor) forward(w http.ResponseWriter, r *http.Request, target string) {
	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	req.Header = r.Header.Clone()
	resp, err := i.upstream.Do(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// cacheResponse stores a copy of the response. Failures only lose the cached
// copy; the live response is already on its way to the client.
func (i *Interceptor) cacheResponse(ctx context.Context, url string, status int, header http.Header, body []byte) {
	entry := cachestore.Entry{
		URL:        url,
		Method:     http.MethodGet,
		StatusCode: status,
		Header:     header,
		Body:       body,
	}
	if err := i.store.Put(ctx, i.generation, entry); err != nil {
		i.logg.Warn(i.logg.WithField(ctx, "url", url), "failed to cache response")
		i.metrics.IncCacheOp("put", "error")
		return
	}
	i.metrics.IncCacheOp("put", "ok")
}

// isNavigation mirrors browser navigation detection: an explicit
// Sec-Fetch-Mode of navigate, or a GET asking for an HTML document.
func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}

func writeResponse(w http.ResponseWriter, status int, header http.Header, body []byte) {
	copyHeader(w.Header(), header)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func copyHeader(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
