package robox

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is an anchor on a page: its target and trimmed display text.
type Link struct {
	HRef string
	Text string
}

// extractLinks collects every anchor with a non-empty href.
func extractLinks(doc *goquery.Document) []Link {
	var links []Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if href == "" {
			return
		}
		links = append(links, Link{HRef: href, Text: strings.TrimSpace(s.Text())})
	})
	return links
}

// stripFragments removes page jumps, keeping only the part of each target
// before the fragment.
func stripFragments(links []Link) []Link {
	out := make([]Link, 0, len(links))
	for _, l := range links {
		l.HRef, _, _ = strings.Cut(l.HRef, "#")
		out = append(out, l)
	}
	return out
}

// dedupeLinks drops links whose target was already seen, keeping the first.
func dedupeLinks(links []Link) []Link {
	seen := make(map[string]bool, len(links))
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if seen[l.HRef] {
			continue
		}
		seen[l.HRef] = true
		out = append(out, l)
	}
	return out
}

// internalLinks keeps only links whose target, resolved against base,
// shares the base host. Relative targets are internal by definition.
func internalLinks(links []Link, base *url.URL) []Link {
	out := make([]Link, 0, len(links))
	for _, l := range links {
		ref, err := url.Parse(l.HRef)
		if err != nil {
			continue
		}
		if base.ResolveReference(ref).Host == base.Host {
			out = append(out, l)
		}
	}
	return out
}
