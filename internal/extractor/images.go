package extractor

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/curation-service/pkg/utils"
)

// DefaultMaxSquareDim is the largest square image, in pixels, still treated as an avatar.
const DefaultMaxSquareDim = 200

var profileMarkers = []string{
	"profile", "avatar", "user", "/p/", "profile_image", "profile-photo", "headshot", "pfp",
}

var decorativeMarkers = []string{"icon", "emoji", "logo"}

var dimensionPattern = regexp.MustCompile(`(\d{1,4})x(\d{1,4})`)

// ProfileImagePolicy decides whether an image candidate is an avatar or profile picture.
// It is intentionally conservative: a false positive only loses a content image.
type ProfileImagePolicy struct {
	// MaxSquareDim is the largest NxN size encoded in a URL that still counts as a
	// profile image. Zero or negative disables the size check.
	MaxSquareDim int
}

// IsProfileImage applies the substring and square-dimension heuristics to rawURL.
func (p ProfileImagePolicy) IsProfileImage(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, m := range profileMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return p.hasSmallSquareDims(lower)
}

// Excludes reports whether an image with this URL and class attribute must be left out
// of content images: profile pictures plus icons, emoji and logos.
func (p ProfileImagePolicy) Excludes(rawURL, class string) bool {
	if p.IsProfileImage(rawURL) {
		return true
	}
	lowerURL := strings.ToLower(rawURL)
	lowerClass := strings.ToLower(class)
	for _, m := range decorativeMarkers {
		if strings.Contains(lowerURL, m) || strings.Contains(lowerClass, m) {
			return true
		}
	}
	for _, m := range profileMarkers {
		if strings.Contains(lowerClass, m) {
			return true
		}
	}
	return false
}

func (p ProfileImagePolicy) hasSmallSquareDims(lower string) bool {
	if p.MaxSquareDim <= 0 {
		return false
	}
	for _, m := range dimensionPattern.FindAllStringSubmatch(lower, -1) {
		if m[1] == m[2] && p.withinLimit(m[1]) {
			return true
		}
	}

	u, err := url.Parse(lower)
	if err != nil {
		return false
	}
	q := u.Query()
	for _, pair := range [][2]string{{"w", "h"}, {"width", "height"}} {
		w, h := q.Get(pair[0]), q.Get(pair[1])
		if w != "" && w == h && p.withinLimit(w) {
			return true
		}
	}
	return false
}

func (p ProfileImagePolicy) withinLimit(dim string) bool {
	n, err := strconv.Atoi(dim)
	return err == nil && n > 0 && n <= p.MaxSquareDim
}

var imageSourceAttrs = []string{"src", "data-src", "data-lazy-src", "data-delayed-url"}

// imageSource returns the first usable source attribute of an <img>.
func imageSource(s *goquery.Selection) string {
	for _, attr := range imageSourceAttrs {
		v := strings.TrimSpace(s.AttrOr(attr, ""))
		if v != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	return ""
}

// imageSet accumulates absolute, de-duplicated content image URLs in document order.
type imageSet struct {
	base   *url.URL
	policy ProfileImagePolicy
	seen   map[string]bool
	urls   []string
}

func newImageSet(base *url.URL, policy ProfileImagePolicy) *imageSet {
	return &imageSet{base: base, policy: policy, seen: map[string]bool{}, urls: []string{}}
}

func (is *imageSet) add(img *goquery.Selection) {
	raw := imageSource(img)
	if raw == "" {
		return
	}
	abs, err := utils.ToAbsoluteURL(is.base, raw)
	if err != nil || abs == "" {
		return
	}
	if is.policy.Excludes(abs, img.AttrOr("class", "")) || is.seen[abs] {
		return
	}
	is.seen[abs] = true
	is.urls = append(is.urls, abs)
}
