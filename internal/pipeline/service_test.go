package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/curation-service/internal/domain"
	"github.com/user/curation-service/internal/extractor"
	"github.com/user/curation-service/internal/fetcher"
	"github.com/user/curation-service/internal/monitoring"
	"github.com/user/curation-service/internal/summarizer"
)

type fakeFetcher struct {
	page  domain.RawPage
	err   error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (domain.RawPage, error) {
	f.calls = append(f.calls, rawURL)
	if f.err != nil {
		return domain.RawPage{}, f.err
	}
	page := f.page
	if page.FinalURL == "" {
		page.FinalURL = rawURL
	}
	return page, nil
}

type countingExtractor struct{ calls int }

func (c *countingExtractor) Extract(page domain.RawPage, p domain.Platform) domain.ExtractedContent {
	c.calls++
	return domain.ExtractedContent{Platform: p, URL: page.FinalURL, Images: []string{}}
}

type countingSummarizer struct{ calls int }

func (c *countingSummarizer) Summarize(context.Context, domain.ExtractedContent) domain.SummaryBundle {
	c.calls++
	return domain.SummaryBundle{}
}

func TestProducePreview_ForbiddenStopsBeforeExtraction(t *testing.T) {
	f := &fakeFetcher{err: &fetcher.FetchError{Kind: fetcher.KindForbidden, URL: "https://news.example.com/a", StatusCode: http.StatusForbidden}}
	ext := &countingExtractor{}
	sum := &countingSummarizer{}
	reg := prometheus.NewRegistry()
	m := monitoring.NewMetrics(reg)

	preview, err := NewService(f, nil, ext, sum, m, nil).ProducePreview(context.Background(), "https://news.example.com/a")

	assert.Nil(t, preview)
	var perr *PipelineError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindForbidden, perr.Kind)
	assert.Equal(t, StageFetch, perr.Stage)
	assert.Equal(t, 0, ext.calls)
	assert.Equal(t, 0, sum.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PreviewsTotal.WithLabelValues("Forbidden")))
}

func TestProducePreview_FetchKindMapping(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{&fetcher.FetchError{Kind: fetcher.KindNotFound}, KindNotFound},
		{&fetcher.FetchError{Kind: fetcher.KindTimeout}, KindTimeout},
		{&fetcher.FetchError{Kind: fetcher.KindNetwork}, KindNetwork},
		{errors.New("unexpected"), KindNetwork},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			svc := NewService(&fakeFetcher{err: tt.err}, nil, &countingExtractor{}, &countingSummarizer{}, nil, nil)
			_, err := svc.ProducePreview(context.Background(), "https://example.com/x")

			var perr *PipelineError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.want, perr.Kind)
			assert.NotEmpty(t, perr.Kind.Message())
		})
	}
}

func TestProducePreview_RejectsInvalidURLs(t *testing.T) {
	for _, raw := range []string{"", "   ", "not a url", "ftp://example.com/file", "/relative/path", "https://"} {
		t.Run(raw, func(t *testing.T) {
			f := &fakeFetcher{}
			_, err := NewService(f, nil, &countingExtractor{}, &countingSummarizer{}, nil, nil).ProducePreview(context.Background(), raw)

			var perr *PipelineError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, KindInvalidURL, perr.Kind)
			assert.Equal(t, StageValidate, perr.Stage)
			assert.Empty(t, f.calls)
		})
	}
}

func TestProducePreview_UsesRendererForSocialURLs(t *testing.T) {
	direct := &fakeFetcher{page: domain.RawPage{HTML: "<html></html>"}}
	renderer := &fakeFetcher{page: domain.RawPage{HTML: "<html></html>"}}
	svc := NewService(direct, renderer, &countingExtractor{}, &countingSummarizer{}, nil, nil)

	_, err := svc.ProducePreview(context.Background(), "https://x.com/jane/status/1")
	require.NoError(t, err)
	_, err = svc.ProducePreview(context.Background(), "https://news.example.com/story")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://x.com/jane/status/1"}, renderer.calls)
	assert.Equal(t, []string{"https://news.example.com/story"}, direct.calls)
}

func TestProducePreview_ClassifiesFinalURL(t *testing.T) {
	f := &fakeFetcher{page: domain.RawPage{HTML: "<html></html>", FinalURL: "https://twitter.com/jane/status/1"}}
	ext := &countingExtractor{}

	preview, err := NewService(f, nil, ext, &countingSummarizer{}, nil, nil).ProducePreview(context.Background(), "https://t.co/abc")

	require.NoError(t, err)
	assert.Equal(t, domain.PlatformSocialB, preview.Platform)
	assert.Equal(t, "https://t.co/abc", preview.ArticleURL)
}

func TestProducePreview_EndToEnd(t *testing.T) {
	para := func(s string) string { return "<p>" + s + "</p>" }
	paragraphs := []string{
		"The first paragraph of the story is long enough to count as prose.",
		"The second paragraph continues the story with more useful details.",
		"The third paragraph wraps the story up with a concluding statement.",
	}
	html := `<html><head>
<meta property="og:title" content="Big News">
<meta property="og:site_name" content="Example News">
<meta property="og:image" content="/img/lead-1200x630.jpg">
</head><body><article>` + para(paragraphs[0]) + para(paragraphs[1]) + "<p>Caption 01</p>" + para(paragraphs[2]) +
		`</article></body></html>`

	f := &fakeFetcher{page: domain.RawPage{HTML: html}}
	ext := extractor.NewRegistry(extractor.Options{Now: func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }})
	sum := summarizer.New(nil, summarizer.Options{})

	preview, err := NewService(f, nil, ext, sum, nil, nil).ProducePreview(context.Background(), "https://news.example.com/story")

	require.NoError(t, err)
	assert.Equal(t, "Big News", preview.Title)
	assert.Equal(t, "Example News", preview.Publisher)
	assert.Equal(t, "https://news.example.com/img/lead-1200x630.jpg", preview.ImageURL)
	assert.Equal(t, "https://news.example.com/story", preview.ArticleURL)
	assert.Equal(t, domain.PlatformArticle, preview.Platform)
	assert.Equal(t, "2024-05-01T00:00:00Z", preview.Date)

	full := strings.Join(paragraphs, "\n\n")
	assert.Equal(t, full, preview.DetailedSummary)
	assert.NotEmpty(t, preview.Summary)

	var card domain.CardPayload
	require.NoError(t, json.Unmarshal([]byte(preview.CardJSON), &card))
	assert.Equal(t, "Big News", card.Headline)
	assert.Equal(t, "Example News", card.Source)
	assert.Equal(t, preview.Summary, card.Summary)
}
