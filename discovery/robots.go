package discovery

import (
	"context"
	"time"

	"github.com/temoto/robotstxt"
)

const robotsMaxBytes = 1024 * 1024

// FetchRobotsSitemaps fetches robots.txt at robotsURL and returns every
// Sitemap: directive it lists. Replaces a hand-rolled line scanner with
// temoto/robotstxt's parser; best-effort like FetchSitemap.
func FetchRobotsSitemaps(ctx context.Context, robotsURL string) []string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	body, ok := fetchBody(ctx, robotsURL, robotsMaxBytes)
	if !ok {
		return nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	return data.Sitemaps
}
