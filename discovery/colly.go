package discovery

import (
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// HomepageLinks visits homeURL once and returns every same-host <a href>
// link it finds. Bounded to one page — this is the last-resort fallback
// source when both sitemap and robots.txt discovery come up empty.
// Replaces a goquery-based link scrape with colly, the pack's established
// way to do link-following HTTP crawling.
func HomepageLinks(homeURL string, host string) []string {
	var links []string
	seen := make(map[string]bool)

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(10 * time.Second)

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := e.Attr("href")
		abs := e.Request.AbsoluteURL(href)
		if abs == "" {
			return
		}
		u, err := url.Parse(abs)
		if err != nil || !strings.EqualFold(u.Hostname(), host) {
			return
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, abs)
	})

	_ = c.Visit(homeURL)
	c.Wait()
	return links
}
