package cleaner

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is one anchor discovered on a page, with its href resolved to an
// absolute URL.
type Link struct {
	Href string
	Text string
}

// LinksResult splits a page's links into same-host and cross-host sets, the
// content a `format=links` request renders.
type LinksResult struct {
	Internal []Link
	External []Link
}

// ExtractLinks parses rawHTML and separates links into internal and
// external based on whether their host matches sourceURL's host.
func ExtractLinks(rawHTML string, sourceURL string) LinksResult {
	result := LinksResult{}

	base, err := url.Parse(sourceURL)
	if err != nil {
		return result
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return result
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return
		}

		absURL := resolved.String()
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		if _, ok := seen[absURL]; ok {
			return
		}
		seen[absURL] = struct{}{}

		link := Link{Href: absURL, Text: strings.TrimSpace(s.Text())}
		if strings.EqualFold(resolved.Host, base.Host) {
			result.Internal = append(result.Internal, link)
		} else {
			result.External = append(result.External, link)
		}
	})

	return result
}

// RenderLinksMarkdown renders a LinksResult as the Markdown body for a
// `format=links` request.
func RenderLinksMarkdown(links LinksResult) string {
	var b strings.Builder
	writeGroup := func(title string, group []Link) {
		if len(group) == 0 {
			return
		}
		b.WriteString("## " + title + "\n\n")
		for _, l := range group {
			text := l.Text
			if text == "" {
				text = l.Href
			}
			b.WriteString("- [" + text + "](" + l.Href + ")\n")
		}
		b.WriteString("\n")
	}
	writeGroup("Internal links", links.Internal)
	writeGroup("External links", links.External)
	return strings.TrimSpace(b.String())
}
