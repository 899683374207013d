package monitoring_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/fetchmcp/monitoring"
)

func TestCollectorAggregatesCacheCounters(t *testing.T) {
	c := monitoring.New()
	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheMiss()
	c.RecordEviction("scraped://example.com/a", "ttl")

	snap := c.Read()
	assert.EqualValues(t, 2, snap.CacheHits)
	assert.EqualValues(t, 1, snap.CacheMisses)
	assert.EqualValues(t, 1, snap.CacheEvictions)
}

func TestCollectorComputesStrategyPercentiles(t *testing.T) {
	c := monitoring.New()
	for i := 0; i < 100; i++ {
		c.RecordStrategyAttempt("http", true, time.Duration(i+1)*time.Millisecond)
	}
	c.RecordStrategyAttempt("http", false, 500*time.Millisecond)

	snap := c.Read()
	st, ok := snap.Strategies["http"]
	require.True(t, ok)
	assert.EqualValues(t, 101, st.Attempts)
	assert.EqualValues(t, 100, st.Successes)
	assert.EqualValues(t, 1, st.Failures)
	assert.Greater(t, st.P99Ms, st.P50Ms)
}

func TestRenderTextIncludesRequestAndErrorTotals(t *testing.T) {
	c := monitoring.New()
	c.RecordRequest("scrape")
	c.RecordRequest("scrape")
	c.RecordError("rate_limit")

	text := monitoring.RenderText(c.Read())
	assert.Contains(t, text, `requests_total{tool="scrape"} 2`)
	assert.Contains(t, text, `errors_total{kind="rate_limit"} 1`)
}

func TestRenderJSONRoundTripsCounts(t *testing.T) {
	c := monitoring.New()
	c.RecordCacheWrite()

	body, err := monitoring.RenderJSON(c.Read())
	require.NoError(t, err)
	assert.Contains(t, string(body), `"cacheWrites":1`)
}
