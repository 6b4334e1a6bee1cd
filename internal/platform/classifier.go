// Package platform maps a URL onto the extraction strategy for its source.
package platform

import (
	"net/url"
	"strings"

	"github.com/user/curation-service/internal/domain"
)

type rule struct {
	platform domain.Platform
	domains  []string
}

// Domain sets are disjoint, so rule order only matters as a tie-breaker.
var rules = []rule{
	{platform: domain.PlatformSocialA, domains: []string{"linkedin.com", "lnkd.in"}},
	{platform: domain.PlatformSocialB, domains: []string{"twitter.com", "x.com", "t.co"}},
}

// Classify returns the platform for rawURL. It never fails; anything unmatched is an article.
func Classify(rawURL string) domain.Platform {
	lower := strings.ToLower(strings.TrimSpace(rawURL))
	host := hostOf(lower)

	for _, r := range rules {
		for _, d := range r.domains {
			if host != "" {
				if host == d || strings.HasSuffix(host, "."+d) {
					return r.platform
				}
				continue
			}
			if strings.Contains(lower, d) {
				return r.platform
			}
		}
	}
	return domain.PlatformArticle
}

func hostOf(lower string) string {
	candidate := lower
	if !strings.Contains(candidate, "://") {
		candidate = "http://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
