package cache

import (
	"fmt"
	"time"

	"github.com/use-agent/fetchmcp/fingerprint"
	"github.com/use-agent/fetchmcp/models"
	"github.com/use-agent/fetchmcp/resource"
)

// Cache is the public resource cache: content-addressed persistence of
// multi-tier artifacts, fingerprint-keyed lookup, retention enforcement,
// and at-most-once concurrent build per fingerprint.
type Cache struct {
	backend   Backend
	retention RetentionPolicy
	sink      EvictionSink
	inflight  *inflightGroup
}

// New wires a backend and retention policy into a Cache. A nil sink is
// replaced with a no-op so callers needn't guard every eviction.
func New(backend Backend, retention RetentionPolicy, sink EvictionSink) *Cache {
	if sink == nil {
		sink = noopSink{}
	}
	return &Cache{backend: backend, retention: retention, sink: sink, inflight: newInflightGroup()}
}

// TierWrite is one tier's body and MIME type within a WriteMulti call.
type TierWrite struct {
	Tier     models.Tier
	Body     []byte
	MimeType string
}

// MultiWrite describes a multi-tier write produced by one pipeline
// run: all tiers share OriginURL/ExtractPrompt/SourceStrategy provenance.
type MultiWrite struct {
	OriginURL      string
	ExtractPrompt  string
	SourceStrategy string
	Tiers          []TierWrite
}

// WriteMulti persists every tier in w and returns the resulting resources
// keyed by tier. Each tier's Put is atomic on its own (temp+rename on the
// filesystem backend), but the tiers are Put one after another in the
// order given: a concurrent reader can observe an earlier tier before a
// later one is written, and a failed Put returns an error while leaving
// the tiers written before it in the cache.
func (c *Cache) WriteMulti(w MultiWrite) (map[models.Tier]*models.Resource, error) {
	now := time.Now()
	out := make(map[models.Tier]*models.Resource, len(w.Tiers))

	for _, tw := range w.Tiers {
		fp := fingerprintFor(w.OriginURL, w.ExtractPrompt, tw.Tier)
		uri := resource.ScrapedURI(w.OriginURL, now) + "_" + string(tw.Tier) + "_" + string(fp)[:8]
		s := &stored{
			URI:         uri,
			OriginURL:   w.OriginURL,
			Fingerprint: fp,
			Tier:        tw.Tier,
			MimeType:    tw.MimeType,
			Body:        tw.Body,
			StoredAt:    now,
			Metadata: models.ResourceMetadata{
				SourceStrategy: w.SourceStrategy,
				Timestamp:      now,
				Tier:           tw.Tier,
				ExtractPrompt:  w.ExtractPrompt,
				OriginURL:      w.OriginURL,
			},
		}
		if _, err := c.backend.Put(s); err != nil {
			return out, models.NewError(models.ErrCache, fmt.Sprintf("write tier %s", tw.Tier), err)
		}
		out[tw.Tier] = s.toResource()
		c.sink.RecordCacheWrite()
	}

	c.enforce()
	return out, nil
}

// fingerprintFor builds the tuple key for one tier of a multi-write. Kept
// local to avoid exposing fingerprint construction rules outside this
// package and fingerprint/key.go, which both implement the same tuple.
func fingerprintFor(originURL, extractPrompt string, tier models.Tier) fingerprint.Key {
	req := &models.ScrapeRequest{URL: originURL, ExtractPrompt: extractPrompt}
	return fingerprint.For(req, tier)
}

// Lookup returns a fresh artifact for fp if one exists and is within
// maxAge (or the cache's own TTL, whichever is tighter). A miss triggers
// opportunistic retention enforcement.
func (c *Cache) Lookup(fp fingerprint.Key, maxAge time.Duration) (*models.Resource, bool) {
	s, ok := c.backend.Get(fp)
	if !ok {
		c.sink.RecordCacheMiss()
		c.enforce()
		return nil, false
	}
	if !fresh(s.StoredAt, c.retention.TTL, maxAge) {
		c.sink.RecordCacheMiss()
		c.enforce()
		return nil, false
	}
	c.sink.RecordCacheHit()
	return s.toResource(), true
}

// Build runs fn at most once among concurrent callers sharing fp, typically
// wrapping a strategy fetch + cache write. Callers that lose the race
// receive the winner's result without re-fetching.
func (c *Cache) Build(fp fingerprint.Key, fn func() (*models.Resource, error)) (*models.Resource, error) {
	v, err := c.inflight.Do(fp, func() (any, error) { return fn() })
	if v == nil {
		return nil, err
	}
	return v.(*models.Resource), err
}

// Read returns the artifact stored at uri, independent of fingerprint.
func (c *Cache) Read(uri string) (*models.Resource, error) {
	s, ok := c.backend.GetByURI(uri)
	if !ok {
		return nil, models.NewError(models.ErrCache, "resource not found: "+uri, nil)
	}
	return s.toResource(), nil
}

// FindByURL returns every stored tier for originURL, any extract prompt.
func (c *Cache) FindByURL(originURL string) []*models.Resource {
	stored := c.backend.FindByURL(originURL)
	out := make([]*models.Resource, 0, len(stored))
	for _, s := range stored {
		out = append(out, s.toResource())
	}
	return out
}

// FindByURLAndExtract returns stored tiers for originURL restricted to the
// given extract prompt (empty string matches raw/cleaned tiers only).
func (c *Cache) FindByURLAndExtract(originURL, extractPrompt string) []*models.Resource {
	var out []*models.Resource
	for _, s := range c.backend.FindByURL(originURL) {
		if s.Metadata.ExtractPrompt == extractPrompt {
			out = append(out, s.toResource())
		}
	}
	return out
}

// List returns every stored resource, most-recently-used first.
func (c *Cache) List() []*models.Resource {
	stored := c.backend.List()
	out := make([]*models.Resource, 0, len(stored))
	for _, s := range stored {
		out = append(out, s.toResource())
	}
	return out
}

// Exists reports whether uri addresses a stored resource.
func (c *Cache) Exists(uri string) bool {
	_, ok := c.backend.GetByURI(uri)
	return ok
}

// Delete removes the resource addressed by uri.
func (c *Cache) Delete(uri string) error {
	return c.backend.Delete(uri)
}
