// Package extractor turns fetched markup into normalized content records, with one
// strategy per platform.
package extractor

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/curation-service/internal/domain"
	"github.com/user/curation-service/pkg/logger"
	"github.com/user/curation-service/pkg/utils"
)

const (
	defaultTitle  = "Untitled"
	defaultAuthor = "Unknown"

	DefaultSocialAPlaceholder = "https://static.licdn.com/aero-v1/sc/h/c45fy346jw096z9pbphyyhdz7"
	DefaultSocialBPlaceholder = "https://abs.twimg.com/responsive-web/client-web/icon-ios.77d25eba.png"
)

// Extractor pulls an ExtractedContent out of a page. Implementations never fail;
// missing fields fall back to defaults.
type Extractor interface {
	Extract(page domain.RawPage) domain.ExtractedContent
}

// Options configure the built-in extractors.
type Options struct {
	ProfilePolicy      ProfileImagePolicy
	SocialAPlaceholder string
	SocialBPlaceholder string
	Now                func() time.Time
	Logger             *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.ProfilePolicy.MaxSquareDim == 0 {
		o.ProfilePolicy.MaxSquareDim = DefaultMaxSquareDim
	}
	if o.SocialAPlaceholder == "" {
		o.SocialAPlaceholder = DefaultSocialAPlaceholder
	}
	if o.SocialBPlaceholder == "" {
		o.SocialBPlaceholder = DefaultSocialBPlaceholder
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	o.Logger = logger.OrNop(o.Logger)
	return o
}

func (o Options) placeholder(p domain.Platform) string {
	switch p {
	case domain.PlatformSocialA:
		return o.SocialAPlaceholder
	case domain.PlatformSocialB:
		return o.SocialBPlaceholder
	default:
		return ""
	}
}

func (o Options) timestamp() string {
	return o.Now().UTC().Format(time.RFC3339)
}

// minimal is the record returned when nothing useful could be parsed.
func (o Options) minimal(page domain.RawPage, p domain.Platform) domain.ExtractedContent {
	return domain.ExtractedContent{
		Platform:  p,
		Title:     defaultTitle,
		Author:    defaultAuthor,
		Publisher: utils.Hostname(page.FinalURL),
		Date:      o.timestamp(),
		URL:       page.FinalURL,
		Image:     o.placeholder(p),
		Images:    []string{},
	}
}

// Registry selects the extractor for a platform.
type Registry struct {
	extractors map[domain.Platform]Extractor
	opts       Options
}

// NewRegistry returns a registry with the article and both social extractors registered.
func NewRegistry(opts Options) *Registry {
	opts = opts.withDefaults()
	r := &Registry{
		extractors: make(map[domain.Platform]Extractor),
		opts:       opts,
	}
	r.Register(domain.PlatformArticle, &articleExtractor{opts: opts})
	r.Register(domain.PlatformSocialA, &socialExtractor{profile: linkedInProfile, opts: opts})
	r.Register(domain.PlatformSocialB, &socialExtractor{profile: xProfile, opts: opts})
	return r
}

// Register installs or replaces the extractor for p.
func (r *Registry) Register(p domain.Platform, e Extractor) {
	r.extractors[p] = e
}

// Extract runs the extractor registered for platform, falling back to the article
// extractor for unknown platforms. A panicking extractor yields a minimal record.
func (r *Registry) Extract(page domain.RawPage, platform domain.Platform) (content domain.ExtractedContent) {
	e, ok := r.extractors[platform]
	if !ok {
		e = r.extractors[domain.PlatformArticle]
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.opts.Logger.Warn("Extraction failed, returning minimal record",
				zap.String("url", page.FinalURL),
				zap.String("platform", string(platform)),
				zap.String("panic", fmt.Sprint(rec)))
			content = r.opts.minimal(page, platform)
		}
	}()

	content = e.Extract(page)
	content.Platform = platform
	if content.Images == nil {
		content.Images = []string{}
	}
	return content
}
