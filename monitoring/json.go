package monitoring

import "encoding/json"

// jsonSnapshot is the wire shape of the /metrics.json exporter: Snapshot's
// maps keyed by Go identifiers don't marshal predictably enough for a
// public endpoint, so this flattens them into arrays of named entries.
type jsonSnapshot struct {
	CacheHits      int64 `json:"cacheHits"`
	CacheMisses    int64 `json:"cacheMisses"`
	CacheWrites    int64 `json:"cacheWrites"`
	CacheEvictions int64 `json:"cacheEvictions"`
	StorageBytes   int64 `json:"storageBytes"`
	StorageItems   int64 `json:"storageItems"`

	Requests []namedCount `json:"requests"`
	Errors   []namedCount `json:"errors"`
	Strategies []strategyEntry `json:"strategies"`
}

type namedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type strategyEntry struct {
	Name      string  `json:"name"`
	Attempts  int64   `json:"attempts"`
	Successes int64   `json:"successes"`
	Failures  int64   `json:"failures"`
	P50Ms     float64 `json:"p50Ms"`
	P95Ms     float64 `json:"p95Ms"`
	P99Ms     float64 `json:"p99Ms"`
	AvgMs     float64 `json:"avgMs"`
}

// RenderJSON marshals a Snapshot as the structured exporter's body. Uses
// the standard library encoder: this endpoint is polled at human cadence,
// not a per-request hot path, so there's nothing for a faster encoder to
// buy here (unlike the cache's filesystem sidecar writes).
func RenderJSON(s Snapshot) ([]byte, error) {
	out := jsonSnapshot{
		CacheHits:      s.CacheHits,
		CacheMisses:    s.CacheMisses,
		CacheWrites:    s.CacheWrites,
		CacheEvictions: s.CacheEvictions,
		StorageBytes:   s.StorageBytes,
		StorageItems:   s.StorageItems,
	}
	for _, name := range sortedKeys(s.RequestTotals) {
		out.Requests = append(out.Requests, namedCount{Name: name, Count: s.RequestTotals[name]})
	}
	for _, name := range sortedKeys(s.ErrorTotals) {
		out.Errors = append(out.Errors, namedCount{Name: name, Count: s.ErrorTotals[name]})
	}
	for _, name := range sortedStrategyKeys(s.Strategies) {
		st := s.Strategies[name]
		out.Strategies = append(out.Strategies, strategyEntry{
			Name: name, Attempts: st.Attempts, Successes: st.Successes, Failures: st.Failures,
			P50Ms: st.P50Ms, P95Ms: st.P95Ms, P99Ms: st.P99Ms, AvgMs: st.AvgMs,
		})
	}
	return json.Marshal(out)
}
