package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.requestMetrics)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/health", s.handleHealthCheck)

	r.Route("/api/articles", func(r chi.Router) {
		r.Get("/", s.handleListArticles(true))
		r.Get("/all", s.handleListArticles(false))
		r.Get("/by-url", s.handleGetByURL)
		r.Post("/scrape", s.handleScrape)
		r.Post("/prepare", s.handlePrepare)
		r.Post("/pin", s.handlePin)
		r.Post("/mark-onchain", s.handleMarkOnChain)
	})

	return r
}
