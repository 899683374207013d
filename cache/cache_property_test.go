package cache

import (
	"reflect"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/use-agent/fetchmcp/fingerprint"
	"github.com/use-agent/fetchmcp/models"
)

// TestWriteMultiLookupRoundTripsProperty verifies invariant 1 (content
// addressing): whatever bytes WriteMulti stores for a tier, Lookup at that
// tier's fingerprint returns the same bytes back, for any URL/tier/body.
func TestWriteMultiLookupRoundTripsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("WriteMulti then Lookup returns the written body", prop.ForAll(
		func(url string, tier models.Tier, body string) bool {
			c := New(NewMemoryBackend(), RetentionPolicy{}, nil)
			_, err := c.WriteMulti(MultiWrite{
				OriginURL:      url,
				SourceStrategy: "http",
				Tiers:          []TierWrite{{Tier: tier, Body: []byte(body), MimeType: "text/plain"}},
			})
			if err != nil {
				return false
			}
			req := &models.ScrapeRequest{URL: url}
			res, ok := c.Lookup(fingerprint.For(req, tier), 0)
			return ok && res.Text == body
		},
		genURL(),
		gen.OneConstOf(models.TierRaw, models.TierCleaned, models.TierExtracted),
		genBody(),
	))

	properties.TestingRun(t)
}

// TestBuildDedupesConcurrentCallersProperty verifies invariant 10 (at-most-
// once build): for any number of concurrent callers sharing a fingerprint,
// Build runs fn exactly once and every caller observes the same resource.
func TestBuildDedupesConcurrentCallersProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("Build runs fn once for N concurrent callers sharing a fingerprint", prop.ForAll(
		func(url string, callers int) bool {
			c := New(NewMemoryBackend(), RetentionPolicy{}, nil)
			req := &models.ScrapeRequest{URL: url}
			fp := fingerprint.For(req, models.TierRaw)

			var calls int
			var mu sync.Mutex
			var wg sync.WaitGroup
			results := make([]*models.Resource, callers)

			ready := make(chan struct{})
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(idx int) {
					defer wg.Done()
					<-ready
					res, _ := c.Build(fp, func() (*models.Resource, error) {
						mu.Lock()
						calls++
						mu.Unlock()
						return &models.Resource{Text: url}, nil
					})
					results[idx] = res
				}(i)
			}
			close(ready)
			wg.Wait()

			if calls != 1 {
				return false
			}
			for _, r := range results {
				if r == nil || r.Text != url {
					return false
				}
			}
			return true
		},
		genURL(),
		gen.IntRange(2, 12),
	))

	properties.TestingRun(t)
}

func genURL() gopter.Gen {
	return gen.IntRange(3, 12).FlatMap(func(length any) gopter.Gen {
		return gen.SliceOfN(length.(int), gen.AlphaLowerChar()).Map(func(chars []rune) string {
			return "https://example.test/" + string(chars)
		})
	}, reflect.TypeOf(""))
}

func genBody() gopter.Gen {
	return gen.IntRange(0, 64).FlatMap(func(length any) gopter.Gen {
		return gen.SliceOfN(length.(int), gen.AlphaChar()).Map(func(chars []rune) string {
			return string(chars)
		})
	}, reflect.TypeOf(""))
}
