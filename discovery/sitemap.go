// Package discovery implements the local fallback map uses when the remote
// map operation itself fails (§4.6): sitemap parsing, robots.txt Sitemap:
// directives, and a bounded homepage link crawl.
package discovery

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"time"
)

const sitemapMaxBytes = 5 * 1024 * 1024

type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc string `xml:"loc"`
}

type urlset struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc string `xml:"loc"`
}

// FetchSitemap fetches and parses a sitemap URL, recursing into sitemap
// index files. Any failure (network, non-200, malformed XML) yields an
// empty result rather than an error: sitemap discovery is best-effort.
func FetchSitemap(ctx context.Context, sitemapURL string) []string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	body, ok := fetchBody(ctx, sitemapURL, sitemapMaxBytes)
	if !ok {
		return nil
	}

	var idx sitemapIndex
	if err := xml.Unmarshal(body, &idx); err == nil && len(idx.Sitemaps) > 0 {
		var urls []string
		for _, s := range idx.Sitemaps {
			if s.Loc != "" {
				urls = append(urls, FetchSitemap(ctx, s.Loc)...)
			}
		}
		return urls
	}

	var us urlset
	var urls []string
	if err := xml.Unmarshal(body, &us); err == nil {
		for _, u := range us.URLs {
			if u.Loc != "" {
				urls = append(urls, u.Loc)
			}
		}
	}
	return urls
}

func fetchBody(ctx context.Context, rawURL string, maxBytes int64) ([]byte, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, false
	}
	return body, true
}
