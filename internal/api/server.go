// Package api exposes the preview pipeline and article storage over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/curation-service/internal/domain"
	"github.com/user/curation-service/internal/monitoring"
	"github.com/user/curation-service/internal/pinning"
	"github.com/user/curation-service/internal/storage"
	"github.com/user/curation-service/pkg/logger"
)

type Previewer interface {
	ProducePreview(ctx context.Context, rawURL string) (*domain.Preview, error)
}

// PreviewCache is satisfied by *storage.PreviewCache.
type PreviewCache interface {
	Get(ctx context.Context, rawURL string) (*domain.Preview, error)
	Set(ctx context.Context, rawURL string, p *domain.Preview) error
	Invalidate(ctx context.Context, rawURL string) error
	Ping(ctx context.Context) error
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	addr       string
	router     http.Handler
	httpServer *http.Server
	previews   Previewer
	store      storage.ArticleStore
	cache      PreviewCache
	pinner     pinning.Pinner
	validator  *requestValidator
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewServer builds the server. cache may be nil; a nil pinner disables pinning.
func NewServer(addr string, p Previewer, st storage.ArticleStore, c PreviewCache, pn pinning.Pinner, m *monitoring.Metrics, l *zap.Logger) *Server {
	if pn == nil {
		pn = pinning.Disabled{}
	}
	l = logger.OrNop(l)
	s := &Server{
		addr:      addr,
		previews:  p,
		store:     st,
		cache:     c,
		pinner:    pn,
		validator: newRequestValidator(),
		metrics:   m,
		logger:    l,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:        s.addr,
		Handler:     s.router,
		ReadTimeout: 10 * time.Second,
		// Previews can take several model round trips.
		WriteTimeout: 90 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
