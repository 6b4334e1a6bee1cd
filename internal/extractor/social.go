package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/curation-service/internal/domain"
)

// socialBoilerplate omits header: both platforms render the post author inside one.
var socialBoilerplate = []string{
	"script", "style", "noscript", "nav", "footer", "iframe", "ads", ".ad", "#ad", ".ads", ".advertisement",
}

// socialProfile captures the DOM conventions of one social platform.
type socialProfile struct {
	platform  domain.Platform
	publisher string
	logoURL   string

	textSelectors []string
	// longestText picks the longest candidate across all matches instead of the first.
	longestText bool

	containers        []string
	mediaSelectors    []string
	authorSelectors   []string
	subtitleSelectors []string
	timeSelectors     []string

	authorFilter   func(string) bool
	subtitleFilter func(string) bool
}

var linkedInProfile = socialProfile{
	platform:  domain.PlatformSocialA,
	publisher: "LinkedIn",
	logoURL:   "https://www.linkedin.com/favicon.ico",
	textSelectors: []string{
		`[data-test-id="main-feed-activity-card__commentary"]`,
		".attributed-text-segment-list__content",
		".feed-shared-update-v2__description",
		".update-components-text",
		".feed-shared-text",
		".break-words",
	},
	longestText: true,
	containers: []string{
		".main-feed-activity-card",
		`[data-test-id="main-feed-activity-card"]`,
		".feed-shared-update-v2",
		".update-components-update-v2",
	},
	mediaSelectors: []string{
		`[data-test-id="feed-images-content"] img`,
		".feed-images-content img",
		".update-components-image img",
		".feed-shared-image img",
	},
	authorSelectors: []string{
		`[data-tracking-control-name="public_post_feed-actor-name"]`,
		".update-components-actor__name",
		".feed-shared-actor__name",
		".base-main-card__title",
	},
	subtitleSelectors: []string{
		".update-components-actor__description",
		".feed-shared-actor__description",
		".base-main-card__subtitle",
	},
	timeSelectors: []string{
		"time[datetime]",
		"time",
		".update-components-actor__sub-description",
		".feed-shared-actor__sub-description",
	},
}

var xProfile = socialProfile{
	platform:  domain.PlatformSocialB,
	publisher: "X (Twitter)",
	logoURL:   "https://abs.twimg.com/favicons/twitter.3.ico",
	textSelectors: []string{
		`[data-testid="tweetText"]`,
		`article div[lang]`,
		".tweet-text",
	},
	containers: []string{
		`article[data-testid="tweet"]`,
		`[data-testid="tweet"]`,
		".tweet",
		"article",
	},
	mediaSelectors: []string{
		`[data-testid="tweetPhoto"] img`,
		`[data-testid="card.layoutLarge.media"] img`,
		".AdaptiveMedia-photoContainer img",
	},
	authorSelectors: []string{
		`[data-testid="User-Name"] span`,
		".fullname",
	},
	subtitleSelectors: []string{
		`[data-testid="User-Name"] span`,
		".username",
	},
	timeSelectors: []string{
		"time[datetime]",
		"time",
	},
	authorFilter:   func(s string) bool { return !strings.HasPrefix(s, "@") },
	subtitleFilter: func(s string) bool { return strings.HasPrefix(s, "@") },
}

type socialExtractor struct {
	profile socialProfile
	opts    Options
}

func (e *socialExtractor) Extract(page domain.RawPage) domain.ExtractedContent {
	platform := e.profile.platform
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		e.opts.Logger.Warn("Failed to parse post markup", zap.String("url", page.FinalURL), zap.Error(err))
		return e.opts.minimal(page, platform)
	}
	base := parseBase(page.FinalURL)
	p := e.profile

	meta := extractMetadata(doc, page.HTML, base)
	stripBoilerplate(doc.Selection, socialBoilerplate)
	root := doc.Selection

	text := firstText(root, p.textSelectors, textOf)
	if p.longestText {
		text = longestText(root, p.textSelectors, textOf)
	}
	text = firstNonEmpty(text, meta.Description)

	author := firstNonEmpty(
		firstText(root, p.authorSelectors, filtered(textOf, p.authorFilter)),
		authorFromTitle(meta.Title),
		meta.Author,
		defaultAuthor,
	)
	subtitle := firstText(root, p.subtitleSelectors, filtered(textOf, p.subtitleFilter))
	date := firstNonEmpty(
		normalizeDate(firstText(root, p.timeSelectors, attrOrText("datetime"))),
		meta.Date,
		e.opts.timestamp(),
	)

	images := collectImages(root, p.mediaSelectors, strings.Join(p.containers, ", "),
		newImageSet(base, e.opts.ProfilePolicy))

	return domain.ExtractedContent{
		Platform:       platform,
		Title:          firstNonEmpty(meta.Title, fmt.Sprintf("%s by %s", platform.Label(), author)),
		Author:         author,
		AuthorSubtitle: subtitle,
		Publisher:      p.publisher,
		Date:           date,
		URL:            firstNonEmpty(meta.URL, page.FinalURL),
		LogoURL:        p.logoURL,
		Description:    meta.Description,
		Image:          e.opts.placeholder(platform),
		Images:         images,
		FullContent:    text,
	}
}

func filtered(fn valueFunc, keep func(string) bool) valueFunc {
	if keep == nil {
		return fn
	}
	return func(s *goquery.Selection) string {
		if v := fn(s); keep(v) {
			return v
		}
		return ""
	}
}

// authorFromTitle reads the name out of share titles such as
// `Jane Doe on X: "..."` or `Jane Doe on LinkedIn: ...`.
func authorFromTitle(title string) string {
	for _, marker := range []string{" on X", " on Twitter", " on LinkedIn"} {
		if i := strings.Index(title, marker); i > 0 {
			return strings.TrimSpace(title[:i])
		}
	}
	return ""
}
