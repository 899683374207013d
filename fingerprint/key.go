// Package fingerprint computes the cache key identifying a reusable
// artifact for a given user intent: (normalized URL, content tier, and —
// only for the extracted tier — the extract prompt). Two requests with the
// same fingerprint are served from one artifact.
//
// The raw and cleaned tiers deliberately exclude extractPrompt from their
// key: the fetch and the clean pass are both prompt-independent work, so
// overlapping scrape calls that differ only in extractPrompt must still
// share one raw fetch and one cleaned artifact (spec.md §8 Scenario S2).
// Only the extracted tier's key depends on extractPrompt, since two
// different prompts against the same page genuinely produce two different
// artifacts.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/use-agent/fetchmcp/models"
)

// Key is an opaque, stable fingerprint string.
type Key string

// For computes the fingerprint for a scrape request targeting tier.
// Tier is passed explicitly rather than derived from r so raw/cleaned-tier
// lookups and builds can be driven independently of the request's ultimate
// target tier (§4.2's per-stage caching and fallback-to-highest-successful-
// tier behavior).
func For(r *models.ScrapeRequest, tier models.Tier) Key {
	extractPrompt := ""
	if tier == models.TierExtracted {
		extractPrompt = r.ExtractPrompt
	}
	return build(normalizeURL(r.URL), extractPrompt, tier)
}

// ForURL computes the raw-tier fingerprint for a bare URL, used by callers
// (map/crawl page fetches) that have no extract prompt.
func ForURL(rawURL string) Key {
	return build(normalizeURL(rawURL), "", models.TierRaw)
}

func build(normalizedURL, extractPrompt string, tier models.Tier) Key {
	h := sha256.New()
	h.Write([]byte(normalizedURL))
	h.Write([]byte{0})
	h.Write([]byte(extractPrompt))
	h.Write([]byte{0})
	h.Write([]byte(tier))
	return Key(hex.EncodeToString(h.Sum(nil)))
}

// normalizeURL lowercases the scheme and host, strips a default port, and
// drops a trailing slash on a bare path so equivalent URLs fingerprint
// identically.
func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && u.Port() == "80":
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && u.Port() == "443":
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}
	if u.Path == "" {
		u.Path = "/"
	} else if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	u.Fragment = ""
	return u.String()
}

// Domain extracts the registrable-ish host (no port) for learned-strategy
// lookups, mirroring the teacher's engine.extractDomain.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
