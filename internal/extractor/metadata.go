package extractor

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/user/curation-service/pkg/utils"
)

// Metadata is the page-level information gathered before the body is located.
type Metadata struct {
	Title       string
	Author      string
	Date        string
	Description string
	Image       string
	Publisher   string
	Logo        string
	URL         string
}

// merge fills every empty field of m from o.
func (m *Metadata) merge(o Metadata) {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = strings.TrimSpace(src)
		}
	}
	fill(&m.Title, o.Title)
	fill(&m.Author, o.Author)
	fill(&m.Date, o.Date)
	fill(&m.Description, o.Description)
	fill(&m.Image, o.Image)
	fill(&m.Publisher, o.Publisher)
	fill(&m.Logo, o.Logo)
	fill(&m.URL, o.URL)
}

func (m Metadata) complete() bool {
	return m.Title != "" && m.Author != "" && m.Date != "" && m.Description != "" &&
		m.Image != "" && m.Publisher != "" && m.Logo != "" && m.URL != ""
}

type metadataProducer func(doc *goquery.Document, rawHTML string, base *url.URL) Metadata

// metadataChain is consulted in order; the first producer with a value wins per field.
var metadataChain = []metadataProducer{
	metaTagMetadata,
	jsonLDMetadata,
	readabilityMetadata,
	htmlMetadata,
}

// extractMetadata runs the chain against the unmodified document and resolves
// URL-valued fields against base.
func extractMetadata(doc *goquery.Document, rawHTML string, base *url.URL) Metadata {
	var m Metadata
	for _, produce := range metadataChain {
		m.merge(produce(doc, rawHTML, base))
		if m.complete() {
			break
		}
	}
	m.Title = normalizeText(m.Title)
	m.Author = normalizeText(m.Author)
	m.Description = normalizeText(m.Description)
	m.Date = normalizeDate(m.Date)
	m.Image = absolute(base, m.Image)
	m.Logo = absolute(base, m.Logo)
	m.URL = absolute(base, m.URL)
	return m
}

func absolute(base *url.URL, raw string) string {
	if raw == "" {
		return ""
	}
	abs, err := utils.ToAbsoluteURL(base, raw)
	if err != nil {
		return ""
	}
	return abs
}

func metaContent(selectors ...string) func(*goquery.Document) string {
	return func(doc *goquery.Document) string {
		return firstText(doc.Selection, selectors, attrOf("content"))
	}
}

var (
	metaTitle     = metaContent(`meta[property="og:title"]`, `meta[name="twitter:title"]`, `meta[name="title"]`)
	metaDesc      = metaContent(`meta[property="og:description"]`, `meta[name="description"]`, `meta[name="twitter:description"]`)
	metaPublisher = metaContent(`meta[property="og:site_name"]`, `meta[name="application-name"]`, `meta[name="publisher"]`)
	metaURL       = metaContent(`meta[property="og:url"]`)
	metaImage     = metaContent(
		`meta[property="og:image"]`,
		`meta[property="og:image:url"]`,
		`meta[name="twitter:image"]`,
		`meta[name="twitter:image:src"]`,
	)
	metaDate = metaContent(
		`meta[property="article:published_time"]`,
		`meta[name="date"]`,
		`meta[name="pubdate"]`,
		`meta[itemprop="datePublished"]`,
		`meta[name="parsely-pub-date"]`,
		`meta[property="og:updated_time"]`,
	)
)

var authorMetaSelectors = []string{
	`meta[name="author"]`,
	`meta[property="article:author"]`,
	`meta[name="parsely-author"]`,
	`meta[name="sailthru.author"]`,
	`meta[name="twitter:creator"]`,
}

func metaTagMetadata(doc *goquery.Document, _ string, _ *url.URL) Metadata {
	// article:author is frequently a profile URL rather than a name.
	author := firstText(doc.Selection, authorMetaSelectors, func(s *goquery.Selection) string {
		v := attrOf("content")(s)
		if looksLikeURL(v) {
			return ""
		}
		return v
	})
	return Metadata{
		Title:       metaTitle(doc),
		Author:      author,
		Date:        metaDate(doc),
		Description: metaDesc(doc),
		Image:       firstNonEmpty(metaImage(doc), doc.Find(`link[rel="image_src"]`).AttrOr("href", "")),
		Publisher:   metaPublisher(doc),
		URL:         firstNonEmpty(doc.Find(`link[rel="canonical"]`).AttrOr("href", ""), metaURL(doc)),
	}
}

var jsonLDTypes = map[string]bool{
	"Article":                true,
	"NewsArticle":            true,
	"BlogPosting":            true,
	"ReportageNewsArticle":   true,
	"AnalysisNewsArticle":    true,
	"SocialMediaPosting":     true,
	"DiscussionForumPosting": true,
	"WebPage":                true,
}

func jsonLDMetadata(doc *goquery.Document, _ string, _ *url.URL) Metadata {
	var m Metadata
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var payload interface{}
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return true
		}
		if node := findLDNode(payload); node != nil {
			m = ldMetadata(node)
			return false
		}
		return true
	})
	return m
}

// findLDNode searches a JSON-LD payload, including arrays and @graph lists, for
// the first node describing a piece of content.
func findLDNode(v interface{}) map[string]interface{} {
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			if node := findLDNode(item); node != nil {
				return node
			}
		}
	case map[string]interface{}:
		if ldHasType(t["@type"]) {
			return t
		}
		if graph, ok := t["@graph"]; ok {
			return findLDNode(graph)
		}
	}
	return nil
}

func ldHasType(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return jsonLDTypes[t]
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && jsonLDTypes[s] {
				return true
			}
		}
	}
	return false
}

func ldMetadata(node map[string]interface{}) Metadata {
	m := Metadata{
		Title:       firstNonEmpty(ldString(node["headline"]), ldString(node["name"])),
		Author:      ldString(node["author"]),
		Date:        firstNonEmpty(ldString(node["datePublished"]), ldString(node["dateCreated"])),
		Description: ldString(node["description"]),
		Image:       ldURL(node["image"]),
		URL:         firstNonEmpty(ldString(node["url"]), ldURL(node["mainEntityOfPage"])),
	}
	if pub, ok := node["publisher"].(map[string]interface{}); ok {
		m.Publisher = ldString(pub["name"])
		m.Logo = ldURL(pub["logo"])
	}
	return m
}

// ldString reads a JSON-LD value that may be a string, an object with a name,
// or a list of either.
func ldString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]interface{}:
		return ldString(t["name"])
	case []interface{}:
		for _, item := range t {
			if s := ldString(item); s != "" {
				return s
			}
		}
	}
	return ""
}

func ldURL(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]interface{}:
		return firstNonEmpty(ldURL(t["url"]), ldURL(t["@id"]), ldURL(t["contentUrl"]))
	case []interface{}:
		for _, item := range t {
			if s := ldURL(item); s != "" {
				return s
			}
		}
	}
	return ""
}

func readabilityMetadata(_ *goquery.Document, rawHTML string, base *url.URL) Metadata {
	if base == nil {
		return Metadata{}
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		return Metadata{}
	}
	return Metadata{
		Title:       article.Title,
		Author:      article.Byline,
		Description: article.Excerpt,
		Image:       article.Image,
		Publisher:   article.SiteName,
		Logo:        article.Favicon,
	}
}

func htmlMetadata(doc *goquery.Document, _ string, _ *url.URL) Metadata {
	return Metadata{
		Title: firstNonEmpty(doc.Find("title").First().Text(), doc.Find("h1").First().Text()),
		Date:  firstText(doc.Selection, []string{"time[datetime]", "time"}, attrOrText("datetime")),
		Logo: firstText(doc.Selection,
			[]string{`link[rel="apple-touch-icon"]`, `link[rel="icon"]`, `link[rel="shortcut icon"]`}, attrOf("href")),
	}
}
