package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/curation-service/internal/domain"
	"github.com/user/curation-service/internal/pinning"
	"github.com/user/curation-service/internal/pipeline"
	"github.com/user/curation-service/internal/storage"
	"github.com/user/curation-service/pkg/utils"
)

const (
	errInvalidRequest = "InvalidRequest"
	errAlreadyCurated = "AlreadyCurated"
	errArticleMissing = "ArticleNotFound"
	errPinning        = "PinningFailed"
	errInternal       = "Internal"

	maxRequestBody = 1 << 20
)

var kindStatus = map[pipeline.ErrorKind]int{
	pipeline.KindInvalidURL: http.StatusBadRequest,
	pipeline.KindNotFound:   http.StatusNotFound,
	pipeline.KindForbidden:  http.StatusForbidden,
	pipeline.KindTimeout:    http.StatusGatewayTimeout,
	pipeline.KindNetwork:    http.StatusBadGateway,
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, errInvalidRequest, "Invalid request body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if s.validator.missingFields(req) != nil {
		s.respondWithError(w, http.StatusBadRequest, string(pipeline.KindInvalidURL), "URL is required")
		return
	}
	rawURL := req.URL

	if existing, err := s.store.FindByURL(r.Context(), rawURL); err == nil {
		s.respondWithJSON(w, http.StatusConflict, errorResponse{
			Error:   errAlreadyCurated,
			Message: "Article already curated",
			Article: existing,
		})
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.logger.Error("failed to look up article", zap.String("url", rawURL), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, errInternal, "Could not check existing articles")
		return
	}

	if preview := s.cachedPreview(r.Context(), rawURL); preview != nil {
		s.respondWithJSON(w, http.StatusOK, scrapeResponse{Message: "Article scraped and summarized successfully", Preview: preview})
		return
	}

	preview, err := s.previews.ProducePreview(r.Context(), rawURL)
	if err != nil {
		var perr *pipeline.PipelineError
		if !errors.As(err, &perr) {
			s.logger.Error("preview failed", zap.String("url", rawURL), zap.Error(err))
			s.respondWithError(w, http.StatusInternalServerError, errInternal, "Could not produce preview")
			return
		}
		status, ok := kindStatus[perr.Kind]
		if !ok {
			status = http.StatusBadGateway
		}
		s.respondWithError(w, status, string(perr.Kind), perr.Kind.Message())
		return
	}

	if s.cache != nil {
		if err := s.cache.Set(r.Context(), rawURL, preview); err != nil {
			s.logger.Warn("failed to cache preview", zap.String("url", rawURL), zap.Error(err))
		}
	}
	s.respondWithJSON(w, http.StatusOK, scrapeResponse{Message: "Article scraped and summarized successfully", Preview: preview})
}

func (s *Server) cachedPreview(ctx context.Context, rawURL string) *domain.Preview {
	if s.cache == nil {
		return nil
	}
	preview, err := s.cache.Get(ctx, rawURL)
	if err != nil {
		s.logger.Warn("preview cache unavailable", zap.String("url", rawURL), zap.Error(err))
		return nil
	}
	return preview
}

func (s *Server) handlePrepare(w http.ResponseWriter, r *http.Request) {
	var req domain.Preview
	if err := decodeBody(r, &req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, errInvalidRequest, "Invalid request body")
		return
	}
	req.ArticleURL = strings.TrimSpace(req.ArticleURL)
	if missing := s.validator.missingFields(prepareFields{ArticleURL: req.ArticleURL, Title: req.Title, Summary: req.Summary}); missing != nil {
		s.respondMissingFields(w, missing)
		return
	}

	article := domain.ArticleFromPreview(req)
	if err := s.store.Create(r.Context(), article); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			existing, _ := s.store.FindByURL(r.Context(), req.ArticleURL)
			s.respondWithJSON(w, http.StatusConflict, errorResponse{
				Error:   errAlreadyCurated,
				Message: "Article already exists",
				Article: existing,
			})
			return
		}
		s.logger.Error("failed to save article", zap.String("url", req.ArticleURL), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, errInternal, "Could not save article")
		return
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(r.Context(), req.ArticleURL); err != nil {
			s.logger.Warn("failed to drop cached preview", zap.String("url", req.ArticleURL), zap.Error(err))
		}
	}
	s.logger.Info("article saved", zap.String("id", article.ID), zap.String("url", article.ArticleURL))
	s.respondWithJSON(w, http.StatusCreated, prepareResponse{Message: "Article saved", Article: article})
}

func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil || !json.Valid(body) {
		s.respondWithError(w, http.StatusBadRequest, errInvalidRequest, "Invalid request body")
		return
	}
	var req pinRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, errInvalidRequest, "Missing article data")
		return
	}
	if missing := s.validator.missingFields(req); missing != nil {
		s.respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: errInvalidRequest, Message: "Missing article data", Fields: missing})
		return
	}

	hash, err := s.pinner.Pin(r.Context(), "article-"+utils.HashURL(req.ArticleURL)+".json", json.RawMessage(body))
	if err != nil {
		if errors.Is(err, pinning.ErrDisabled) {
			s.respondWithError(w, http.StatusServiceUnavailable, errPinning, "Pinning is not configured")
			return
		}
		s.logger.Error("failed to pin article", zap.String("url", req.ArticleURL), zap.Error(err))
		s.respondWithError(w, http.StatusBadGateway, errPinning, "Could not pin article")
		return
	}

	s.logger.Info("article pinned", zap.String("url", req.ArticleURL), zap.String("ipfs_hash", hash))
	s.respondWithJSON(w, http.StatusOK, map[string]string{"ipfsHash": hash})
}

func (s *Server) handleMarkOnChain(w http.ResponseWriter, r *http.Request) {
	var req markOnChainRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, errInvalidRequest, "Invalid request body")
		return
	}
	if missing := s.validator.missingFields(req); missing != nil {
		s.respondMissingFields(w, missing)
		return
	}

	article, err := s.store.MarkOnChain(r.Context(), req.ArticleURL, req.IPFSHash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, errArticleMissing, "Article not found")
			return
		}
		s.logger.Error("failed to mark article on-chain", zap.String("url", req.ArticleURL), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, errInternal, "Could not update article")
		return
	}
	s.respondWithJSON(w, http.StatusOK, article)
}

func (s *Server) handleListArticles(onChainOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articles, err := s.store.List(r.Context(), onChainOnly)
		if err != nil {
			s.logger.Error("failed to list articles", zap.Bool("on_chain_only", onChainOnly), zap.Error(err))
			s.respondWithError(w, http.StatusInternalServerError, errInternal, "Could not list articles")
			return
		}
		if articles == nil {
			articles = []domain.Article{}
		}
		s.respondWithJSON(w, http.StatusOK, articles)
	}
}

func (s *Server) handleGetByURL(w http.ResponseWriter, r *http.Request) {
	urlParam := r.URL.Query().Get("url")
	if urlParam == "" {
		s.respondWithError(w, http.StatusBadRequest, errInvalidRequest, "URL query parameter is required")
		return
	}

	article, err := s.store.FindByURL(r.Context(), urlParam)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, errArticleMissing, "Article not found")
			return
		}
		s.logger.Error("failed to get article", zap.String("url", urlParam), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, errInternal, "Could not retrieve article")
		return
	}
	s.respondWithJSON(w, http.StatusOK, article)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthStatus := map[string]string{"store": "healthy"}
	healthy := true

	if err := s.store.Ping(ctx); err != nil {
		healthStatus["store"] = "unhealthy"
		healthy = false
		s.logger.Error("health check failed for store", zap.Error(err))
	}

	if s.cache != nil {
		healthStatus["cache"] = "healthy"
		if err := s.cache.Ping(ctx); err != nil {
			healthStatus["cache"] = "unhealthy"
			healthy = false
			s.logger.Error("health check failed for cache", zap.Error(err))
		}
	}

	if !healthy {
		s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

func decodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(v)
}
