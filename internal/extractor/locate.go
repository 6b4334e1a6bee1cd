package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// valueFunc turns a matched element into a candidate value; "" means no candidate.
type valueFunc func(*goquery.Selection) string

func textOf(s *goquery.Selection) string {
	return normalizeText(s.Text())
}

func attrOf(name string) valueFunc {
	return func(s *goquery.Selection) string {
		v, _ := s.Attr(name)
		return strings.TrimSpace(v)
	}
}

// attrOrText prefers a machine-readable attribute and falls back to the element text.
func attrOrText(name string) valueFunc {
	return func(s *goquery.Selection) string {
		if v := attrOf(name)(s); v != "" {
			return v
		}
		return textOf(s)
	}
}

// firstText walks selectors in order and returns the first non-empty value fn
// produces for any element they match.
func firstText(root *goquery.Selection, selectors []string, fn valueFunc) string {
	for _, sel := range selectors {
		var found string
		root.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = fn(s)
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// longestText returns the longest value fn produces across every element matched by
// any of the selectors. Used where a post body is split over several inline spans.
func longestText(root *goquery.Selection, selectors []string, fn valueFunc) string {
	var best string
	bestLen := 0
	for _, sel := range selectors {
		root.Find(sel).Each(func(_ int, s *goquery.Selection) {
			v := fn(s)
			if n := utf8.RuneCountInString(v); n > bestLen {
				best, bestLen = v, n
			}
		})
	}
	return best
}

// firstSelection returns the elements matched by the first selector that matches anything.
func firstSelection(root *goquery.Selection, selectors []string) (*goquery.Selection, bool) {
	for _, sel := range selectors {
		if found := root.Find(sel); found.Length() > 0 {
			return found, true
		}
	}
	return nil, false
}

// collectImages gathers content images matched by selectors under root. When
// containers is non-empty an image only counts if it sits inside one of them.
func collectImages(root *goquery.Selection, selectors []string, containers string, set *imageSet) []string {
	for _, sel := range selectors {
		root.Find(sel).Each(func(_ int, img *goquery.Selection) {
			if containers != "" && img.Closest(containers).Length() == 0 {
				return
			}
			set.add(img)
		})
	}
	return set.urls
}
