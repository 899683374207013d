// Package resource builds and parses the opaque URIs returned to clients
// for cached artifacts, map pages, and crawl result snapshots.
package resource

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ScrapedURI builds a scrape artifact's URI: scraped://<host>/<path>_<ISO-timestamp>.
func ScrapedURI(targetURL string, producedAt time.Time) string {
	u, err := url.Parse(targetURL)
	host := "unknown"
	path := "/"
	if err == nil {
		if u.Hostname() != "" {
			host = u.Hostname()
		}
		if u.Path != "" {
			path = u.Path
		}
	}
	return fmt.Sprintf("scraped://%s%s_%s", host, path, producedAt.UTC().Format(time.RFC3339))
}

// MapPageURI builds a map page's URI: pulse-crawl://map/<host>/<epoch-ms>/page-<n>.
func MapPageURI(targetURL string, producedAt time.Time, page int) string {
	u, err := url.Parse(targetURL)
	host := "unknown"
	if err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return fmt.Sprintf("pulse-crawl://map/%s/%d/page-%d", host, producedAt.UnixMilli(), page)
}

// CrawlResultsURI builds a crawl result snapshot's URI:
// pulse-crawl://crawl/results/<epoch-ms>.
func CrawlResultsURI(producedAt time.Time) string {
	return fmt.Sprintf("pulse-crawl://crawl/results/%d", producedAt.UnixMilli())
}

// Scheme reports the scheme component of an opaque URI, used only to route
// reads to the right backend; callers must not otherwise interpret URIs.
func Scheme(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		return uri[:i]
	}
	return ""
}

// parseEpochMs is a small helper shared by callers that need to recover the
// timestamp embedded in a pulse-crawl URI for retention/debugging purposes.
func parseEpochMs(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
