package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/curation-service/internal/domain"
	"github.com/user/curation-service/pkg/utils"
)

const minFragmentLength = 20

var boilerplateSelectors = []string{
	"script", "style", "noscript", "nav", "header", "footer", "aside", "iframe",
	"ads", ".ad", "#ad", ".ads", ".advertisement",
}

var contentSelectors = []string{
	"article",
	`[role="main"]`,
	".article-content",
	".post-content",
	".entry-content",
	"main",
	"#content",
}

var articleImageSelectors = []string{"img[src]", "img[data-src]"}

type articleExtractor struct {
	opts Options
}

func (e *articleExtractor) Extract(page domain.RawPage) domain.ExtractedContent {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		e.opts.Logger.Warn("Failed to parse article markup", zap.String("url", page.FinalURL), zap.Error(err))
		return e.opts.minimal(page, domain.PlatformArticle)
	}
	base := parseBase(page.FinalURL)

	meta := extractMetadata(doc, page.HTML, base)

	stripBoilerplate(doc.Selection, boilerplateSelectors)
	container := locateContent(doc)

	images := collectImages(container, articleImageSelectors, "", newImageSet(base, e.opts.ProfilePolicy))

	image := meta.Image
	if image == "" || e.opts.ProfilePolicy.IsProfileImage(image) {
		image = ""
		if len(images) > 0 {
			image = images[0]
		}
	}

	return domain.ExtractedContent{
		Platform:    domain.PlatformArticle,
		Title:       firstNonEmpty(meta.Title, defaultTitle),
		Author:      firstNonEmpty(meta.Author, defaultAuthor),
		Publisher:   firstNonEmpty(meta.Publisher, utils.Hostname(page.FinalURL)),
		Date:        firstNonEmpty(meta.Date, e.opts.timestamp()),
		URL:         firstNonEmpty(meta.URL, page.FinalURL),
		LogoURL:     meta.Logo,
		Description: meta.Description,
		Image:       image,
		Images:      images,
		FullContent: collectParagraphs(container),
	}
}

func stripBoilerplate(root *goquery.Selection, selectors []string) {
	root.Find(strings.Join(selectors, ", ")).Remove()
}

// locateContent returns the main content container, or the body when no known
// container is present.
func locateContent(doc *goquery.Document) *goquery.Selection {
	if found, ok := firstSelection(doc.Selection, contentSelectors); ok {
		return found
	}
	return doc.Find("body")
}

// collectParagraphs joins the text blocks of container with blank lines, skipping
// fragments too short to be prose.
func collectParagraphs(container *goquery.Selection) string {
	var parts []string
	container.Find("p, h1, h2, h3, h4, h5, h6, li").Each(func(_ int, s *goquery.Selection) {
		text := textOf(s)
		if utf8.RuneCountInString(text) < minFragmentLength {
			return
		}
		parts = append(parts, text)
	})
	return strings.Join(parts, "\n\n")
}
