// Package pipeline turns a URL into an unsaved Preview: fetch, classify,
// extract and summarize.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/curation-service/internal/domain"
	"github.com/user/curation-service/internal/fetcher"
	"github.com/user/curation-service/internal/monitoring"
	"github.com/user/curation-service/internal/platform"
	"github.com/user/curation-service/pkg/logger"
	"github.com/user/curation-service/pkg/utils"
)

type Extractor interface {
	Extract(page domain.RawPage, p domain.Platform) domain.ExtractedContent
}

type Summarizer interface {
	Summarize(ctx context.Context, c domain.ExtractedContent) domain.SummaryBundle
}

// Service runs the preview pipeline. It keeps no per-request state.
type Service struct {
	fetcher    fetcher.Fetcher
	renderer   fetcher.Fetcher
	extractor  Extractor
	summarizer Summarizer
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewService wires the pipeline. renderer may be nil; when set it serves social
// platform URLs.
func NewService(f, renderer fetcher.Fetcher, e Extractor, s Summarizer, m *monitoring.Metrics, l *zap.Logger) *Service {
	l = logger.OrNop(l)
	return &Service{
		fetcher:    f,
		renderer:   renderer,
		extractor:  e,
		summarizer: s,
		metrics:    m,
		logger:     l,
	}
}

// ProducePreview fetches rawURL and builds its preview. Failures are *PipelineError;
// a failed fetch stops the pipeline before extraction.
func (s *Service) ProducePreview(ctx context.Context, rawURL string) (*domain.Preview, error) {
	start := time.Now()
	rawURL = strings.TrimSpace(rawURL)
	log := s.logger.With(zap.String("url", rawURL))

	if !utils.IsHTTPURL(rawURL) {
		s.metrics.IncPreview(string(KindInvalidURL))
		return nil, &PipelineError{Stage: StageValidate, Kind: KindInvalidURL, URL: rawURL, Err: errors.New("not an absolute http(s) URL")}
	}

	page, err := s.fetcherFor(rawURL).Fetch(ctx, rawURL)
	if err != nil {
		kind := fetchKind(err)
		s.metrics.IncPreview(string(kind))
		log.Warn("Preview aborted at fetch", zap.String("kind", string(kind)), zap.Error(err))
		return nil, &PipelineError{Stage: StageFetch, Kind: kind, URL: rawURL, Err: err}
	}

	p := platform.Classify(page.FinalURL)
	content := s.extractor.Extract(page, p)
	bundle := s.summarizer.Summarize(ctx, content)

	card, err := json.Marshal(bundle.CardPayload)
	if err != nil {
		log.Error("Failed to encode card payload", zap.Error(err))
		card = []byte("{}")
	}

	s.metrics.IncPreview("ok")
	log.Info("Preview produced",
		zap.String("platform", string(p)),
		zap.String("summary_path", string(bundle.Path)),
		zap.Duration("elapsed", time.Since(start)))

	return &domain.Preview{
		Title:            content.Title,
		Summary:          bundle.QuickSummary,
		DetailedSummary:  bundle.DetailedAnalysis,
		CondensedContent: bundle.CondensedContent,
		KeyPoints:        bundle.KeyTakeaways,
		Statistics:       bundle.Statistics,
		ImageURL:         content.Image,
		ArticleURL:       rawURL,
		CardJSON:         string(card),
		Author:           content.Author,
		Publisher:        content.Publisher,
		Date:             content.Date,
		Platform:         p,
	}, nil
}

func (s *Service) fetcherFor(rawURL string) fetcher.Fetcher {
	if s.renderer != nil && platform.Classify(rawURL) != domain.PlatformArticle {
		return s.renderer
	}
	return s.fetcher
}
