package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/use-agent/fetchmcp/fingerprint"
	"github.com/use-agent/fetchmcp/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemoryBackendLRUEviction(t *testing.T) {
	b := NewMemoryBackend()
	for i := 0; i < 3; i++ {
		_, err := b.Put(&stored{
			URI:         "uri-" + string(rune('a'+i)),
			OriginURL:   "https://example.com",
			Fingerprint: fingerprint.Key("fp-" + string(rune('a'+i))),
			Tier:        models.TierRaw,
			Body:        []byte("x"),
			StoredAt:    time.Now(),
		})
		require.NoError(t, err)
	}
	require.Equal(t, 3, b.Count())

	// touch "uri-a" so it's no longer least-recently-used
	_, ok := b.GetByURI("uri-a")
	require.True(t, ok)

	evicted, ok := b.EvictOldest()
	require.True(t, ok)
	assert.Equal(t, "uri-b", evicted)
}

func TestCacheWriteMultiAndLookup(t *testing.T) {
	c := New(NewMemoryBackend(), RetentionPolicy{}, nil)

	res, err := c.WriteMulti(MultiWrite{
		OriginURL:      "https://example.com/a",
		SourceStrategy: "http",
		Tiers: []TierWrite{
			{Tier: models.TierRaw, Body: []byte("<html></html>"), MimeType: "text/html"},
			{Tier: models.TierCleaned, Body: []byte("cleaned"), MimeType: "text/markdown"},
		},
	})
	require.NoError(t, err)
	require.Len(t, res, 2)

	req := &models.ScrapeRequest{URL: "https://example.com/a"}
	fp := fingerprint.For(req, models.TierCleaned)
	got, ok := c.Lookup(fp, time.Hour)
	require.True(t, ok)
	assert.Equal(t, "cleaned", got.Text)
}

func TestCacheBuildDeduplicatesConcurrentCallers(t *testing.T) {
	c := New(NewMemoryBackend(), RetentionPolicy{}, nil)
	fp := fingerprint.Key("shared-fp")

	var calls int32
	const n = 20
	var wg sync.WaitGroup
	results := make([]*models.Resource, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := c.Build(fp, func() (*models.Resource, error) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(5 * time.Millisecond)
				return &models.Resource{URI: "built-once"}, nil
			})
			require.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "build function must run at most once per fingerprint")
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, "built-once", r.URI)
	}
}

func TestRetentionEnforcesMaxItems(t *testing.T) {
	c := New(NewMemoryBackend(), RetentionPolicy{MaxItems: 2}, nil)

	for i := 0; i < 5; i++ {
		_, err := c.WriteMulti(MultiWrite{
			OriginURL: "https://example.com/" + string(rune('a'+i)),
			Tiers:     []TierWrite{{Tier: models.TierRaw, Body: []byte("x")}},
		})
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, len(c.List()), 2)
}
