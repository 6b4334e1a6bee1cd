// Package fetcher retrieves page markup over HTTP, either with browser-like
// requests or through a headless browser.
package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/user/curation-service/internal/domain"
	"github.com/user/curation-service/internal/monitoring"
	"github.com/user/curation-service/internal/proxy"
	"github.com/user/curation-service/pkg/logger"
)

// Fetcher retrieves the markup behind a URL. Failures are always *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (domain.RawPage, error)
}

// Options configure an HTTPFetcher. Zero durations and sizes fall back to defaults.
type Options struct {
	Timeout      time.Duration
	MaxRetries   int
	Backoff      time.Duration
	MaxBodyBytes int64
	// InsecureTLS skips certificate verification. Enabled in production config to
	// reach sites with broken chains; turn it off where transport trust matters.
	InsecureTLS bool
	BrowserTLS  bool
	Proxies     *proxy.Manager
	Metrics     *monitoring.Metrics
	Logger      *zap.Logger
}

const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 2
	DefaultBackoff    = 500 * time.Millisecond
)

// HTTPFetcher fetches pages with browser-like headers and retries transient failures.
type HTTPFetcher struct {
	opts   Options
	client *http.Client

	mu           sync.Mutex
	proxyClients map[string]*http.Client
}

func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Proxies == nil {
		opts.Proxies = proxy.NewManager(nil)
	}
	opts.Logger = logger.OrNop(opts.Logger)

	f := &HTTPFetcher{opts: opts, proxyClients: make(map[string]*http.Client)}
	if opts.BrowserTLS {
		f.client = newBrowserClient(opts.Timeout, opts.InsecureTLS)
	} else {
		f.client = newStandardClient("", opts.Timeout, opts.InsecureTLS)
	}
	return f
}

// Fetch performs up to MaxRetries+1 attempts. Timeouts, connection errors, 429
// and 5xx are retried with linear backoff; every other failure returns at once.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (domain.RawPage, error) {
	start := time.Now()
	defer func() { f.opts.Metrics.ObserveFetch("http", time.Since(start)) }()

	var lastErr *FetchError
	operation := func() (domain.RawPage, error) {
		page, ferr, retry := f.attempt(ctx, rawURL)
		if ferr == nil {
			f.opts.Metrics.IncFetchAttempt("ok")
			return page, nil
		}
		f.opts.Metrics.IncFetchAttempt(string(ferr.Kind))
		lastErr = ferr
		if !retry {
			return page, backoff.Permanent(ferr)
		}
		return page, ferr
	}

	page, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&linearBackOff{step: f.opts.Backoff}),
		backoff.WithMaxTries(uint(f.opts.MaxRetries)+1),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(_ error, next time.Duration) {
			f.opts.Logger.Info("Retrying fetch",
				zap.String("url", rawURL),
				zap.Duration("backoff", next),
				zap.String("previous_error", string(lastErr.Kind)))
		}),
	)
	if err == nil {
		return page, nil
	}

	f.opts.Logger.Warn("Fetch failed",
		zap.String("url", rawURL),
		zap.String("kind", string(lastErr.Kind)),
		zap.Int("status", lastErr.StatusCode),
		zap.Error(lastErr.Err))
	return domain.RawPage{}, lastErr
}

// linearBackOff waits step, 2*step, 3*step ... between attempts.
type linearBackOff struct {
	step    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.step
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// attempt runs a single request. The boolean reports whether the failure is transient.
func (f *HTTPFetcher) attempt(ctx context.Context, rawURL string) (domain.RawPage, *FetchError, bool) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.RawPage{}, &FetchError{Kind: KindNetwork, URL: rawURL, Err: err}, false
	}
	setBrowserHeaders(req, f.opts.Proxies.GetUserAgent())

	resp, err := f.clientFor().Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return domain.RawPage{}, &FetchError{Kind: KindNetwork, URL: rawURL, Err: err}, false
		}
		return domain.RawPage{}, &FetchError{Kind: transportKind(err), URL: rawURL, Err: err}, true
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return domain.RawPage{}, newStatusError(rawURL, resp.StatusCode), retryableStatus(resp.StatusCode)
	}

	html, err := decodeBody(resp, f.opts.MaxBodyBytes)
	if err != nil {
		kind := transportKind(err)
		return domain.RawPage{}, &FetchError{Kind: kind, URL: rawURL, StatusCode: resp.StatusCode, Err: err},
			kind == KindTimeout
	}

	return domain.RawPage{HTML: html, FinalURL: resp.Request.URL.String()}, nil, false
}

// clientFor rotates proxies per attempt. Proxied requests use the standard TLS
// stack since the fingerprinting dialer cannot tunnel through CONNECT. One
// client is kept per proxy so idle connections are pooled and expire.
func (f *HTTPFetcher) clientFor() *http.Client {
	if !f.opts.Proxies.HasProxies() {
		return f.client
	}
	addr := f.opts.Proxies.GetProxy()

	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.proxyClients[addr]
	if !ok {
		c = newStandardClient(addr, f.opts.Timeout, f.opts.InsecureTLS)
		f.proxyClients[addr] = c
	}
	return c
}

func setBrowserHeaders(req *http.Request, userAgent string) {
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Cache-Control", "max-age=0")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
}
