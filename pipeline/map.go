package pipeline

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/fetchmcp/discovery"
	"github.com/use-agent/fetchmcp/models"
	"github.com/use-agent/fetchmcp/remote"
	"github.com/use-agent/fetchmcp/resource"
)

// MapClient is the subset of remote.Client the map operation needs, narrow
// enough to fake in tests.
type MapClient interface {
	Map(ctx context.Context, req *models.MapRequest) (*models.MapResult, error)
}

// MapPipeline runs the map tool: delegate to the remote service, falling
// back to local discovery (sitemap -> robots.txt -> bounded homepage crawl)
// when the remote call itself fails (§4.6).
type MapPipeline struct {
	client MapClient
}

func NewMapPipeline(client MapClient) *MapPipeline {
	return &MapPipeline{client: client}
}

// Map executes the map operation and paginates entries per startIndex.
func (p *MapPipeline) Map(ctx context.Context, req *models.MapRequest) (*models.MapResponse, error) {
	result, err := p.client.Map(ctx, req)
	if err != nil {
		result = p.discoveryFallback(ctx, req)
		if result == nil {
			return nil, err
		}
	}

	entries := result.Entries
	if req.Search != "" {
		entries = filterEntries(entries, req.Search)
	}
	matched := len(entries)

	start := req.StartIndex
	if start < 0 {
		start = 0
	}
	if start >= len(entries) {
		entries = nil
	} else {
		end := start + req.MaxResults
		if end > len(entries) || req.MaxResults <= 0 {
			end = len(entries)
		}
		entries = entries[start:end]
	}

	resp := &models.MapResponse{
		Entries: entries,
		Total:   len(result.Entries),
	}
	if start+len(entries) < matched {
		resp.NextIndex = start + len(entries)
	}

	if req.ResultHandling != models.ReturnOnly {
		resp.URI = resource.MapPageURI(req.URL, time.Now(), 1)
	}
	return resp, nil
}

// discoveryFallback tries sitemap.xml, then robots.txt Sitemap: directives,
// then a bounded homepage link crawl, returning the first source that
// yields anything. Returns nil when every source comes up empty, letting
// the caller surface the original remote error instead.
func (p *MapPipeline) discoveryFallback(ctx context.Context, req *models.MapRequest) *models.MapResult {
	u, err := url.Parse(req.URL)
	if err != nil || u.Host == "" {
		return nil
	}
	base := u.Scheme + "://" + u.Host

	if urls := discovery.FetchSitemap(ctx, base+"/sitemap.xml"); len(urls) > 0 {
		return mapResultFromURLs(urls)
	}

	if sitemaps := discovery.FetchRobotsSitemaps(ctx, base+"/robots.txt"); len(sitemaps) > 0 {
		var all []string
		for _, sm := range sitemaps {
			all = append(all, discovery.FetchSitemap(ctx, sm)...)
		}
		if len(all) > 0 {
			return mapResultFromURLs(all)
		}
	}

	if links := discovery.HomepageLinks(base, u.Hostname()); len(links) > 0 {
		return mapResultFromURLs(links)
	}

	return nil
}

func mapResultFromURLs(urls []string) *models.MapResult {
	entries := make([]models.MapEntry, 0, len(urls))
	for _, u := range urls {
		entries = append(entries, models.MapEntry{URL: u})
	}
	return &models.MapResult{Entries: entries}
}

func filterEntries(entries []models.MapEntry, search string) []models.MapEntry {
	search = strings.ToLower(search)
	out := make([]models.MapEntry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.URL), search) ||
			strings.Contains(strings.ToLower(e.Title), search) {
			out = append(out, e)
		}
	}
	return out
}

var _ MapClient = (*remote.Client)(nil)
