package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/user/curation-service/internal/domain"
)

type errorResponse struct {
	Error   string          `json:"error"`
	Message string          `json:"message,omitempty"`
	Fields  []string        `json:"fields,omitempty"`
	Article *domain.Article `json:"article,omitempty"`
}

type scrapeRequest struct {
	URL string `json:"url" validate:"required"`
}

type scrapeResponse struct {
	Message string          `json:"message"`
	Preview *domain.Preview `json:"preview"`
}

type prepareResponse struct {
	Message string          `json:"message"`
	Article *domain.Article `json:"article"`
}

type pinRequest struct {
	Title      string `json:"title" validate:"required"`
	ArticleURL string `json:"articleUrl" validate:"required"`
}

// prepareFields are the preview fields an article cannot be saved without.
type prepareFields struct {
	ArticleURL string `json:"articleUrl" validate:"required"`
	Title      string `json:"title" validate:"required"`
	Summary    string `json:"summary" validate:"required"`
}

type markOnChainRequest struct {
	ArticleURL string `json:"articleUrl" validate:"required"`
	IPFSHash   string `json:"ipfsHash" validate:"required"`
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, kind, message string) {
	s.respondWithJSON(w, code, errorResponse{Error: kind, Message: message})
}

func (s *Server) respondMissingFields(w http.ResponseWriter, fields []string) {
	s.respondWithJSON(w, http.StatusBadRequest, errorResponse{
		Error:   errInvalidRequest,
		Message: "Missing required fields",
		Fields:  fields,
	})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		code = http.StatusInternalServerError
		response = []byte(`{"error":"Internal","message":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
