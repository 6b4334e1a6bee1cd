package domain

import "time"

// Platform identifies the content-source convention that selects an extraction strategy.
type Platform string

const (
	PlatformArticle Platform = "article"
	PlatformSocialA Platform = "social_a" // LinkedIn-style posts
	PlatformSocialB Platform = "social_b" // X/Twitter-style posts
)

// Label is the human-readable content type used in prompts.
func (p Platform) Label() string {
	switch p {
	case PlatformSocialA:
		return "LinkedIn post"
	case PlatformSocialB:
		return "X (Twitter) post"
	default:
		return "article"
	}
}

// RawPage is the markup returned by a fetcher. It is discarded after extraction.
type RawPage struct {
	HTML     string
	FinalURL string
}

// ExtractedContent holds the normalized fields pulled out of a page.
type ExtractedContent struct {
	Platform       Platform `json:"platform"`
	Title          string   `json:"title"`
	Author         string   `json:"author"`
	AuthorSubtitle string   `json:"authorSubtitle,omitempty"`
	Publisher      string   `json:"publisher"`
	Date           string   `json:"date"`
	URL            string   `json:"url"`
	LogoURL        string   `json:"logoUrl,omitempty"`
	Description    string   `json:"description,omitempty"`
	Image          string   `json:"image,omitempty"`
	Images         []string `json:"images"`
	FullContent    string   `json:"fullContent"`
}

// SourceText is the text the summarizer works from: the body when present,
// otherwise whatever metadata is left.
func (c ExtractedContent) SourceText() string {
	switch {
	case c.FullContent != "":
		return c.FullContent
	case c.Description != "":
		return c.Description
	case c.Title != "":
		return c.Title
	default:
		return "Untitled"
	}
}

// Statistic is a single figure reported by the structured summary.
type Statistic struct {
	Label   string `json:"label" bson:"label"`
	Value   string `json:"value" bson:"value"`
	Context string `json:"context" bson:"context"`
}

// SummaryPath records how a SummaryBundle was produced.
type SummaryPath string

const (
	SummaryPathModel    SummaryPath = "model"
	SummaryPathFallback SummaryPath = "fallback"
	SummaryPathShort    SummaryPath = "short"
)

// SummaryBundle is the immutable output of the summarization engine.
type SummaryBundle struct {
	QuickSummary     string      `json:"quickSummary"`
	DetailedAnalysis string      `json:"detailedAnalysis"`
	KeyTakeaways     []string    `json:"keyTakeaways"`
	Statistics       []Statistic `json:"statistics"`
	CondensedContent string      `json:"condensedContent"`
	CardPayload      CardPayload `json:"cardPayload"`
	Path             SummaryPath `json:"-"`
}

// CardPayload is the flattened record handed to the pinning service.
type CardPayload struct {
	Headline         string      `json:"headline"`
	Summary          string      `json:"summary"`
	DetailedSummary  string      `json:"detailedSummary"`
	CondensedContent string      `json:"condensedContent"`
	KeyPoints        []string    `json:"keyPoints"`
	Statistics       []Statistic `json:"statistics"`
	Source           string      `json:"source"`
	Author           string      `json:"author"`
	AuthorSubtitle   string      `json:"authorSubtitle,omitempty"`
	PublishedAt      string      `json:"publishedAt"`
	ImageURL         string      `json:"imageUrl"`
	ArticleURL       string      `json:"articleUrl"`
	Platform         Platform    `json:"platform"`
}

// Preview is the unsaved result of running the pipeline once. Field names are
// the contract shared with the UI.
type Preview struct {
	Title            string      `json:"title"`
	Summary          string      `json:"summary"`
	DetailedSummary  string      `json:"detailedSummary"`
	CondensedContent string      `json:"condensedContent"`
	KeyPoints        []string    `json:"keyPoints"`
	Statistics       []Statistic `json:"statistics"`
	ImageURL         string      `json:"imageUrl"`
	ArticleURL       string      `json:"articleUrl"`
	CardJSON         string      `json:"cardJson"`
	Author           string      `json:"author"`
	Publisher        string      `json:"publisher"`
	Date             string      `json:"date"`
	Platform         Platform    `json:"platform"`
}

// Article is the persisted record created from a preview.
type Article struct {
	ID              string      `json:"id" bson:"_id"`
	ArticleURL      string      `json:"articleUrl" bson:"article_url"`
	Title           string      `json:"title" bson:"title"`
	Summary         string      `json:"summary" bson:"summary"`
	DetailedSummary string      `json:"detailedSummary" bson:"detailed_summary"`
	FullContent     string      `json:"fullContent" bson:"full_content"`
	KeyPoints       []string    `json:"keyPoints" bson:"key_points"`
	Statistics      []Statistic `json:"statistics" bson:"statistics"`
	ImageURL        string      `json:"imageUrl" bson:"image_url"`
	CardJSON        string      `json:"cardJson" bson:"card_json"`
	Author          string      `json:"author" bson:"author"`
	Publisher       string      `json:"publisher" bson:"publisher"`
	Date            string      `json:"date" bson:"date"`
	IPFSHash        string      `json:"ipfsHash,omitempty" bson:"ipfs_hash,omitempty"`
	OnChain         bool        `json:"onChain" bson:"on_chain"`
	CreatedAt       time.Time   `json:"createdAt" bson:"created_at"`
}

// ArticleFromPreview maps a preview onto a new, not yet persisted article.
// The condensed content is what gets stored as the article body.
func ArticleFromPreview(p Preview) *Article {
	detailed := p.DetailedSummary
	if detailed == "" {
		detailed = p.Summary
	}
	keyPoints := p.KeyPoints
	if keyPoints == nil {
		keyPoints = []string{}
	}
	stats := p.Statistics
	if stats == nil {
		stats = []Statistic{}
	}
	return &Article{
		ArticleURL:      p.ArticleURL,
		Title:           p.Title,
		Summary:         p.Summary,
		DetailedSummary: detailed,
		FullContent:     p.CondensedContent,
		KeyPoints:       keyPoints,
		Statistics:      stats,
		ImageURL:        p.ImageURL,
		CardJSON:        p.CardJSON,
		Author:          p.Author,
		Publisher:       p.Publisher,
		Date:            p.Date,
	}
}
