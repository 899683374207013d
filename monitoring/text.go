package monitoring

import (
	"fmt"
	"sort"
	"strings"
)

// RenderText formats a Snapshot as the human-readable exporter: one line
// per counter, stable key ordering so diffs between scrapes are readable.
func RenderText(s Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "cache_hits %d\n", s.CacheHits)
	fmt.Fprintf(&b, "cache_misses %d\n", s.CacheMisses)
	fmt.Fprintf(&b, "cache_writes %d\n", s.CacheWrites)
	fmt.Fprintf(&b, "cache_evictions %d\n", s.CacheEvictions)
	fmt.Fprintf(&b, "storage_bytes %d\n", s.StorageBytes)
	fmt.Fprintf(&b, "storage_items %d\n", s.StorageItems)

	for _, tool := range sortedKeys(s.RequestTotals) {
		fmt.Fprintf(&b, "requests_total{tool=%q} %d\n", tool, s.RequestTotals[tool])
	}
	for _, kind := range sortedKeys(s.ErrorTotals) {
		fmt.Fprintf(&b, "errors_total{kind=%q} %d\n", kind, s.ErrorTotals[kind])
	}
	for _, name := range sortedStrategyKeys(s.Strategies) {
		st := s.Strategies[name]
		fmt.Fprintf(&b, "strategy_attempts_total{strategy=%q} %d\n", name, st.Attempts)
		fmt.Fprintf(&b, "strategy_successes_total{strategy=%q} %d\n", name, st.Successes)
		fmt.Fprintf(&b, "strategy_failures_total{strategy=%q} %d\n", name, st.Failures)
		fmt.Fprintf(&b, "strategy_latency_ms{strategy=%q,quantile=\"p50\"} %.2f\n", name, st.P50Ms)
		fmt.Fprintf(&b, "strategy_latency_ms{strategy=%q,quantile=\"p95\"} %.2f\n", name, st.P95Ms)
		fmt.Fprintf(&b, "strategy_latency_ms{strategy=%q,quantile=\"p99\"} %.2f\n", name, st.P99Ms)
		fmt.Fprintf(&b, "strategy_latency_ms{strategy=%q,quantile=\"avg\"} %.2f\n", name, st.AvgMs)
	}

	return b.String()
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStrategyKeys(m map[string]StrategyStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
