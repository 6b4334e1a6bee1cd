package fetcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/curation-service/internal/domain"
	"github.com/user/curation-service/internal/monitoring"
	"github.com/user/curation-service/internal/proxy"
	"github.com/user/curation-service/pkg/logger"
)

// Renderer loads pages in headless Chrome so client-rendered posts are present
// in the returned markup.
type Renderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	agents      *proxy.Manager
	metrics     *monitoring.Metrics
	logger      *zap.Logger
}

// NewRenderer starts a shared browser allocator. Call Close to release it.
func NewRenderer(timeout time.Duration, agents *proxy.Manager, m *monitoring.Metrics, l *zap.Logger) *Renderer {
	if agents == nil {
		agents = proxy.NewManager(nil)
	}
	l = logger.OrNop(l)
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(agents.GetUserAgent()),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Renderer{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		timeout:     timeout,
		agents:      agents,
		metrics:     m,
		logger:      l,
	}
}

// Fetch navigates to rawURL and returns the rendered document. The status of
// the main document response is mapped the same way as HTTPFetcher does.
func (r *Renderer) Fetch(ctx context.Context, rawURL string) (domain.RawPage, error) {
	start := time.Now()
	defer func() { r.metrics.ObserveFetch("render", time.Since(start)) }()

	taskCtx, cancel := chromedp.NewContext(r.allocCtx)
	defer cancel()
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, r.timeout)
	defer cancelTimeout()

	// Abort the browser tab when the caller gives up.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var (
		mu         sync.Mutex
		statusCode int
	)
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			mu.Lock()
			if statusCode == 0 {
				statusCode = int(e.Response.Status)
			}
			mu.Unlock()
		}
	})

	var html, finalURL string
	err := chromedp.Run(taskCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": "en-US,en;q=0.9",
		}),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	mu.Lock()
	code := statusCode
	mu.Unlock()

	if err != nil {
		kind := KindNetwork
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
		r.metrics.IncFetchAttempt(string(kind))
		r.logger.Warn("Render failed", zap.String("url", rawURL), zap.Error(err))
		return domain.RawPage{}, &FetchError{Kind: kind, URL: rawURL, StatusCode: code, Err: err}
	}
	if code >= 400 {
		ferr := newStatusError(rawURL, code)
		r.metrics.IncFetchAttempt(string(ferr.Kind))
		return domain.RawPage{}, ferr
	}

	r.metrics.IncFetchAttempt("ok")
	if finalURL == "" {
		finalURL = rawURL
	}
	return domain.RawPage{HTML: html, FinalURL: finalURL}, nil
}

// Close shuts the browser down.
func (r *Renderer) Close() {
	r.allocCancel()
}
