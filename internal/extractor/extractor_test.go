package extractor

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/curation-service/internal/domain"
	"github.com/user/curation-service/internal/platform"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestRegistry() *Registry {
	return NewRegistry(Options{
		SocialAPlaceholder: "https://static.example.com/social-a.png",
		SocialBPlaceholder: "https://static.example.com/social-b.png",
		Now:                func() time.Time { return fixedNow },
	})
}

const (
	para1 = "The first paragraph of the story is long enough to count as prose."
	para2 = "The second paragraph continues the story with more useful details."
	para3 = "The third paragraph wraps the story up with a concluding statement."
)

func TestArticle_CollectsParagraphsAndDropsShortFragments(t *testing.T) {
	html := `<html><head><title>Story</title></head><body>
<nav><p>Home News Sports Weather Opinion Contact Us</p></nav>
<article>
  <p>` + para1 + `</p>
  <p>` + para2 + `</p>
  <p>Caption 01</p>
  <p>` + para3 + `</p>
</article>
<footer><p>Copyright 2024 Example News, all rights reserved.</p></footer>
</body></html>`

	got := newTestRegistry().Extract(domain.RawPage{HTML: html, FinalURL: "https://news.example.com/story"}, domain.PlatformArticle)

	assert.Equal(t, para1+"\n\n"+para2+"\n\n"+para3, got.FullContent)
	assert.NotContains(t, got.FullContent, "Caption 01")
	assert.Equal(t, domain.PlatformArticle, got.Platform)
	assert.Equal(t, "Unknown", got.Author)
	assert.Equal(t, "news.example.com", got.Publisher)
	assert.Equal(t, "2024-05-01T12:00:00Z", got.Date)
	assert.Equal(t, "https://news.example.com/story", got.URL)
	assert.NotNil(t, got.Images)
}

func TestArticle_BoilerplateNeverReachesContent(t *testing.T) {
	html := `<html><body>
<header><p>Header text that is definitely longer than twenty characters</p></header>
<nav><ul><li>Navigation item that is longer than twenty characters</li></ul></nav>
<div class="ad"><p>Advertisement copy that is longer than twenty characters</p></div>
<div id="ad"><p>Another advertisement paragraph longer than twenty chars</p></div>
<aside><p>Sidebar paragraph text that is longer than twenty characters</p></aside>
<script>document.write("script text that should never be extracted at all")</script>
<style>.body { color: red; } /* style text that should never be extracted */</style>
<div><p>` + para1 + `</p></div>
<footer><p>Footer paragraph text that is longer than twenty characters</p></footer>
</body></html>`

	got := newTestRegistry().Extract(domain.RawPage{HTML: html, FinalURL: "https://blog.example.org/post"}, domain.PlatformArticle)

	assert.Equal(t, para1, got.FullContent)
	for _, leaked := range []string{"Header", "Navigation", "Advertisement", "advertisement", "Sidebar", "script", "style", "Footer"} {
		assert.NotContains(t, got.FullContent, leaked)
	}
}

func TestArticle_PrefersMetaTagsOverMarkup(t *testing.T) {
	html := `<html><head>
<title>Fallback Title | Site</title>
<meta property="og:title" content="Open Graph Title">
<meta property="og:site_name" content="Example Daily">
<meta property="article:author" content="https://facebook.com/someone">
<meta name="parsely-author" content="Grace Hopper">
<meta property="article:published_time" content="2024-03-01T09:15:00Z">
<meta name="description" content="A short description of the story.">
<link rel="canonical" href="/stories/canonical">
</head><body><article><p>` + para1 + `</p></article></body></html>`

	got := newTestRegistry().Extract(domain.RawPage{HTML: html, FinalURL: "https://daily.example.com/stories/canonical?utm=x"}, domain.PlatformArticle)

	assert.Equal(t, "Open Graph Title", got.Title)
	assert.Equal(t, "Grace Hopper", got.Author)
	assert.Equal(t, "Example Daily", got.Publisher)
	assert.Equal(t, "2024-03-01T09:15:00Z", got.Date)
	assert.Equal(t, "A short description of the story.", got.Description)
	assert.Equal(t, "https://daily.example.com/stories/canonical", got.URL)
}

func TestArticle_ReadsJSONLDGraph(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":"WebSite","name":"Site"},
  {"@type":"NewsArticle","headline":"LD Headline",
   "author":[{"@type":"Person","name":"Ada Lovelace"}],
   "datePublished":"2024-02-10T08:30:00+01:00",
   "image":["https://news.example.com/img/lead-1200x630.jpg"],
   "publisher":{"@type":"Organization","name":"Example Times","logo":{"@type":"ImageObject","url":"/logo.png"}}}
]}
</script></head><body><article><p>` + para1 + `</p></article></body></html>`

	got := newTestRegistry().Extract(domain.RawPage{HTML: html, FinalURL: "https://news.example.com/a"}, domain.PlatformArticle)

	assert.Equal(t, "LD Headline", got.Title)
	assert.Equal(t, "Ada Lovelace", got.Author)
	assert.Equal(t, "2024-02-10T07:30:00Z", got.Date)
	assert.Equal(t, "Example Times", got.Publisher)
	assert.Equal(t, "https://news.example.com/logo.png", got.LogoURL)
	assert.Equal(t, "https://news.example.com/img/lead-1200x630.jpg", got.Image)
}

func TestArticle_ImagesExcludeProfilesAndDuplicates(t *testing.T) {
	html := `<html><head><meta property="og:image" content="https://news.example.com/avatar/jane.png"></head><body>
<article>
  <p>` + para1 + `</p>
  <img src="/images/hero-1200x630.jpg">
  <img src="/avatars/jane.jpg">
  <img src="https://cdn.example.com/u/48x48/pic.jpg">
  <img src="/images/hero-1200x630.jpg">
  <img class="author-headshot" src="/img/a.jpg">
  <img src="/static/logo.png">
  <img data-src="/images/lazy.jpg">
</article>
<img src="/images/outside-container.jpg">
</body></html>`

	got := newTestRegistry().Extract(domain.RawPage{HTML: html, FinalURL: "https://news.example.com/story"}, domain.PlatformArticle)

	assert.Equal(t, []string{
		"https://news.example.com/images/hero-1200x630.jpg",
		"https://news.example.com/images/lazy.jpg",
	}, got.Images)
	assert.Equal(t, "https://news.example.com/images/hero-1200x630.jpg", got.Image)

	policy := ProfileImagePolicy{MaxSquareDim: DefaultMaxSquareDim}
	for _, img := range got.Images {
		assert.False(t, policy.IsProfileImage(img), img)
	}
}

func TestSocialB_UsesPlaceholderImage(t *testing.T) {
	html := `<html><head><meta property="og:title" content="Jane Doe on X: &quot;Shipping today&quot;"></head><body>
<article data-testid="tweet">
  <div data-testid="User-Name"><a><span>Jane Doe</span></a><a><span>@janedoe</span></a></div>
  <div data-testid="tweetText" lang="en">Shipping the new release today, thanks to everyone who helped.</div>
  <div data-testid="tweetPhoto"><img src="https://pbs.twimg.com/media/abc.jpg"></div>
  <img src="https://pbs.twimg.com/profile_images/1/jane_normal.jpg">
  <a href="/janedoe/status/1"><time datetime="2024-03-05T10:00:00.000Z">Mar 5</time></a>
</article>
<div data-testid="tweetPhoto"><img src="https://pbs.twimg.com/media/outside.jpg"></div>
</body></html>`
	rawURL := "https://twitter.com/janedoe/status/1"

	p := platform.Classify(rawURL)
	require.Equal(t, domain.PlatformSocialB, p)

	got := newTestRegistry().Extract(domain.RawPage{HTML: html, FinalURL: rawURL}, p)

	assert.Equal(t, "https://static.example.com/social-b.png", got.Image)
	assert.Equal(t, []string{"https://pbs.twimg.com/media/abc.jpg"}, got.Images)
	assert.Equal(t, "Shipping the new release today, thanks to everyone who helped.", got.FullContent)
	assert.Equal(t, "Jane Doe", got.Author)
	assert.Equal(t, "@janedoe", got.AuthorSubtitle)
	assert.Equal(t, "2024-03-05T10:00:00Z", got.Date)
	assert.Equal(t, "X (Twitter)", got.Publisher)
	assert.NotEmpty(t, got.LogoURL)
}

func TestSocialA_TakesLongestTextCandidate(t *testing.T) {
	body := "This is the full post body, which is much longer than the other fragments on the page."
	html := `<html><body>
<div class="feed-shared-update-v2">
  <span class="break-words">Short bit</span>
  <div class="update-components-text"><span class="break-words">` + body + `</span></div>
  <div class="update-components-actor__name">Sam Lee</div>
  <div class="update-components-actor__description">Engineer at Example</div>
  <div class="update-components-image">
    <img src="https://media.licdn.com/dms/image/feedshare-shrink_800/post.jpg">
    <img class="emoji" src="https://media.licdn.com/dms/image/smile.png">
  </div>
  <time datetime="2024-01-02">1d</time>
</div>
</body></html>`

	got := newTestRegistry().Extract(domain.RawPage{HTML: html, FinalURL: "https://www.linkedin.com/posts/sam-lee_123"}, domain.PlatformSocialA)

	assert.Equal(t, body, got.FullContent)
	assert.Equal(t, "Sam Lee", got.Author)
	assert.Equal(t, "Engineer at Example", got.AuthorSubtitle)
	assert.Equal(t, "2024-01-02T00:00:00Z", got.Date)
	assert.Equal(t, "LinkedIn", got.Publisher)
	assert.Equal(t, "https://static.example.com/social-a.png", got.Image)
	assert.Equal(t, []string{"https://media.licdn.com/dms/image/feedshare-shrink_800/post.jpg"}, got.Images)
	assert.Equal(t, "LinkedIn post by Sam Lee", got.Title)
}

func TestSocial_FallsBackToDescription(t *testing.T) {
	html := `<html><head><meta property="og:description" content="Post text carried only in the share card."></head><body></body></html>`

	got := newTestRegistry().Extract(domain.RawPage{HTML: html, FinalURL: "https://x.com/a/status/2"}, domain.PlatformSocialB)

	assert.Equal(t, "Post text carried only in the share card.", got.FullContent)
	assert.Equal(t, "Unknown", got.Author)
	assert.Equal(t, "2024-05-01T12:00:00Z", got.Date)
	assert.Empty(t, got.Images)
	assert.NotNil(t, got.Images)
}

type panickingExtractor struct{}

func (panickingExtractor) Extract(domain.RawPage) domain.ExtractedContent {
	panic("boom")
}

func TestRegistry_RecoversToMinimalRecord(t *testing.T) {
	r := newTestRegistry()
	r.Register(domain.PlatformSocialB, panickingExtractor{})

	got := r.Extract(domain.RawPage{HTML: "<html></html>", FinalURL: "https://x.com/a/status/1"}, domain.PlatformSocialB)

	assert.Equal(t, domain.PlatformSocialB, got.Platform)
	assert.Equal(t, "Untitled", got.Title)
	assert.Equal(t, "Unknown", got.Author)
	assert.Equal(t, "x.com", got.Publisher)
	assert.Equal(t, "2024-05-01T12:00:00Z", got.Date)
	assert.Equal(t, "https://x.com/a/status/1", got.URL)
	assert.Equal(t, "https://static.example.com/social-b.png", got.Image)
	assert.Empty(t, got.FullContent)
	assert.NotNil(t, got.Images)
}

func TestRegistry_UnknownPlatformUsesArticleExtractor(t *testing.T) {
	html := `<html><body><main><p>` + para1 + `</p></main></body></html>`

	got := newTestRegistry().Extract(domain.RawPage{HTML: html, FinalURL: "https://example.com/x"}, domain.Platform("forum"))

	assert.Equal(t, para1, got.FullContent)
	assert.Equal(t, domain.Platform("forum"), got.Platform)
}

func TestRegistry_EmptyMarkup(t *testing.T) {
	got := newTestRegistry().Extract(domain.RawPage{HTML: "", FinalURL: "https://example.com/empty"}, domain.PlatformArticle)

	assert.Equal(t, "Untitled", got.Title)
	assert.Empty(t, strings.TrimSpace(got.FullContent))
	assert.Equal(t, "example.com", got.Publisher)
}
