// Package summarizer condenses extracted content into a SummaryBundle using a
// language model, with deterministic fallbacks when the model is unavailable.
package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/user/curation-service/internal/domain"
	"github.com/user/curation-service/internal/monitoring"
	"github.com/user/curation-service/pkg/logger"
)

const (
	DefaultShortThreshold = 500
	DefaultMaxPromptChars = 12000

	maxTakeaways = 5
)

var errIncompleteResponse = errors.New("model response is missing required fields")

type Options struct {
	QuickPass      bool
	ShortThreshold int
	MaxPromptChars int
	Metrics        *monitoring.Metrics
	Logger         *zap.Logger
}

// Engine produces summary bundles. It never returns an error.
type Engine struct {
	client    ChatClient
	opts      Options
	sanitizer *bluemonday.Policy
}

// New returns an engine. A nil client sends everything above the short
// threshold down the fallback path.
func New(client ChatClient, opts Options) *Engine {
	if opts.ShortThreshold <= 0 {
		opts.ShortThreshold = DefaultShortThreshold
	}
	if opts.MaxPromptChars <= 0 {
		opts.MaxPromptChars = DefaultMaxPromptChars
	}
	opts.Logger = logger.OrNop(opts.Logger)
	return &Engine{
		client:    client,
		opts:      opts,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Summarize builds the bundle for c along one of three paths: short content is
// truncated directly, otherwise the model is asked, and any model failure
// switches to the fallback.
func (e *Engine) Summarize(ctx context.Context, c domain.ExtractedContent) domain.SummaryBundle {
	source := c.SourceText()
	log := e.opts.Logger.With(zap.String("url", c.URL), zap.String("platform", string(c.Platform)))

	var bundle domain.SummaryBundle
	switch {
	case runeLen(source) < e.opts.ShortThreshold:
		bundle = shortBundle(source)
	case e.client == nil:
		bundle = fallbackBundle(c, source, "")
	default:
		bundle = e.modelBundle(ctx, c, source, log)
	}

	bundle.CardPayload = cardPayload(c, bundle)
	e.opts.Metrics.IncSummary(string(bundle.Path))
	log.Info("Summary produced", zap.String("path", string(bundle.Path)), zap.Int("source_chars", runeLen(source)))
	return bundle
}

func (e *Engine) modelBundle(ctx context.Context, c domain.ExtractedContent, source string, log *zap.Logger) domain.SummaryBundle {
	user := userPrompt(c, source, e.opts.MaxPromptChars)

	var quick string
	if e.opts.QuickPass {
		q, err := e.quickPass(ctx, c, user)
		if err != nil {
			log.Warn("Quick summary failed, using fallback", zap.Error(err))
			return fallbackBundle(c, source, "")
		}
		quick = q
	}

	resp, err := e.structuredPass(ctx, c, source, user)
	if err != nil {
		log.Warn("Structured summary failed, using fallback", zap.Error(err))
		return fallbackBundle(c, source, quick)
	}

	if quick == "" {
		quick = resp.Overview
	}
	takeaways := resp.KeyTakeaways
	if len(takeaways) > maxTakeaways {
		takeaways = takeaways[:maxTakeaways]
	}
	stats := resp.Statistics
	if len(stats) == 0 {
		stats = []domain.Statistic{derivedStatistic(source)}
	}
	return domain.SummaryBundle{
		QuickSummary:     quick,
		DetailedAnalysis: resp.Analysis,
		KeyTakeaways:     takeaways,
		Statistics:       stats,
		CondensedContent: enforceCondensedLength(resp.Condensed, source, quick),
		Path:             domain.SummaryPathModel,
	}
}

type quickResponse struct {
	QuickSummary string `json:"quickSummary"`
}

func (e *Engine) quickPass(ctx context.Context, c domain.ExtractedContent, user string) (string, error) {
	raw, err := e.client.Complete(ctx, quickPrompt(c.Platform.Label()), user)
	if err != nil {
		return "", err
	}
	var resp quickResponse
	if err := decodeModelJSON(raw, &resp); err != nil {
		return "", err
	}
	quick := e.clean(resp.QuickSummary)
	if quick == "" {
		return "", fmt.Errorf("quick pass: %w", errIncompleteResponse)
	}
	return quick, nil
}

type rawStatistic struct {
	Label   string      `json:"label"`
	Value   interface{} `json:"value"`
	Context string      `json:"context"`
}

type rawStructuredResponse struct {
	Overview     string         `json:"overview"`
	Statistics   []rawStatistic `json:"statistics"`
	Analysis     string         `json:"analysis"`
	KeyTakeaways []string       `json:"keyTakeaways"`
	Condensed    string         `json:"condensed"`
}

type structuredResponse struct {
	Overview     string
	Statistics   []domain.Statistic
	Analysis     string
	KeyTakeaways []string
	Condensed    string
}

func (e *Engine) structuredPass(ctx context.Context, c domain.ExtractedContent, source, user string) (structuredResponse, error) {
	budget := percentOf(runeLen(source), condensedBudgetPercent)
	raw, err := e.client.Complete(ctx, structuredPrompt(c.Platform.Label(), budget), user)
	if err != nil {
		return structuredResponse{}, err
	}
	var r rawStructuredResponse
	if err := decodeModelJSON(raw, &r); err != nil {
		return structuredResponse{}, err
	}

	resp := structuredResponse{
		Overview:     e.clean(r.Overview),
		Analysis:     e.clean(r.Analysis),
		Condensed:    e.clean(r.Condensed),
		Statistics:   []domain.Statistic{},
		KeyTakeaways: []string{},
	}
	for _, t := range r.KeyTakeaways {
		if t = e.clean(t); t != "" {
			resp.KeyTakeaways = append(resp.KeyTakeaways, t)
		}
	}
	for _, s := range r.Statistics {
		stat := domain.Statistic{
			Label:   e.clean(s.Label),
			Value:   e.clean(statValue(s.Value)),
			Context: e.clean(s.Context),
		}
		if stat.Label != "" && stat.Value != "" {
			resp.Statistics = append(resp.Statistics, stat)
		}
	}

	if resp.Overview == "" || resp.Analysis == "" || resp.Condensed == "" || len(resp.KeyTakeaways) == 0 {
		return structuredResponse{}, fmt.Errorf("structured pass: %w", errIncompleteResponse)
	}
	return resp, nil
}

// clean strips any markup the model emitted and decodes the entities the
// sanitizer leaves behind.
func (e *Engine) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(e.sanitizer.Sanitize(s)))
}

// decodeModelJSON parses a model reply, tolerating a surrounding code fence.
func decodeModelJSON(raw string, v interface{}) error {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	return nil
}

func statValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func cardPayload(c domain.ExtractedContent, b domain.SummaryBundle) domain.CardPayload {
	return domain.CardPayload{
		Headline:         c.Title,
		Summary:          b.QuickSummary,
		DetailedSummary:  b.DetailedAnalysis,
		CondensedContent: b.CondensedContent,
		KeyPoints:        b.KeyTakeaways,
		Statistics:       b.Statistics,
		Source:           c.Publisher,
		Author:           c.Author,
		AuthorSubtitle:   c.AuthorSubtitle,
		PublishedAt:      c.Date,
		ImageURL:         c.Image,
		ArticleURL:       c.URL,
		Platform:         c.Platform,
	}
}
