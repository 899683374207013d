// Package cache implements the multi-tier content-addressed resource
// cache: fingerprint-keyed lookup, at-most-once concurrent build per
// fingerprint, atomic multi-tier writes, and retention enforcement.
package cache

import (
	"time"

	"github.com/use-agent/fetchmcp/fingerprint"
	"github.com/use-agent/fetchmcp/models"
)

// stored is one persisted tier artifact, independent of backend.
type stored struct {
	URI        string
	OriginURL  string
	Fingerprint fingerprint.Key
	Tier       models.Tier
	MimeType   string
	Body       []byte
	Metadata   models.ResourceMetadata
	StoredAt   time.Time
}

func (s *stored) toResource() *models.Resource {
	return &models.Resource{
		URI:         s.URI,
		Name:        s.OriginURL,
		MimeType:    s.MimeType,
		Description: describeTier(s.Tier),
		Text:        string(s.Body),
		Metadata:    s.Metadata,
	}
}

func describeTier(t models.Tier) string {
	switch t {
	case models.TierRaw:
		return "raw fetched content"
	case models.TierCleaned:
		return "cleaned markdown content"
	case models.TierExtracted:
		return "LLM-extracted content"
	default:
		return ""
	}
}

// Backend is a storage backend for cached artifacts. Implementations must
// be safe for concurrent use; the Cache wrapper serializes writes per
// fingerprint itself, so a backend need only guarantee its own internal
// bookkeeping (maps, files) doesn't race.
type Backend interface {
	// Put stores one tier's artifact and returns its URI. Put overwrites
	// any existing artifact for the same fingerprint.
	Put(s *stored) (uri string, err error)

	// Get looks up the artifact for a fingerprint, returning ok=false on
	// miss. Found entries are marked recently-used for LRU purposes.
	Get(fp fingerprint.Key) (*stored, bool)

	// GetByURI reads an artifact by its opaque URI, independent of
	// fingerprint (used for resultHandling=saveOnly follow-up reads).
	GetByURI(uri string) (*stored, bool)

	// FindByURL returns every stored artifact whose OriginURL matches.
	FindByURL(originURL string) []*stored

	// List returns every stored artifact, most-recently-used first.
	List() []*stored

	// Delete removes the artifact addressed by uri.
	Delete(uri string) error

	// Size reports current total body bytes across all stored artifacts.
	Size() int64

	// Count reports the current number of stored artifacts.
	Count() int

	// EvictOldest removes and returns the least-recently-used artifact.
	// ok is false when the backend holds nothing to evict.
	EvictOldest() (uri string, ok bool)
}
