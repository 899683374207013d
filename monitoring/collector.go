// Package monitoring implements the process-wide metrics collector
// (§4.7): cache hit/miss/write/eviction counters, per-strategy attempt
// outcomes with latency percentiles, and request/error totals.
package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// latencyRingSize bounds each metric name's retained sample count; beyond
// it, the oldest sample is overwritten. Percentiles over a bounded recent
// window are good enough for an operator dashboard and avoid unbounded
// memory growth on a long-running process.
const latencyRingSize = 1024

// latencyRing is a mutex-guarded append-only ring of recent latency samples
// for one metric name, reduced to percentiles on read. Both add and
// percentiles take the lock; it is not lock-free.
type latencyRing struct {
	mu      sync.Mutex
	samples [latencyRingSize]float64
	next    int
	filled  bool
}

func (r *latencyRing) add(ms float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[r.next] = ms
	r.next = (r.next + 1) % latencyRingSize
	if r.next == 0 {
		r.filled = true
	}
}

func (r *latencyRing) percentiles() (p50, p95, p99, avg float64) {
	r.mu.Lock()
	n := latencyRingSize
	if !r.filled {
		n = r.next
	}
	if n == 0 {
		r.mu.Unlock()
		return 0, 0, 0, 0
	}
	sorted := make([]float64, n)
	copy(sorted, r.samples[:n])
	r.mu.Unlock()

	sort.Float64s(sorted)
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	avg = sum / float64(n)
	p50 = percentileOf(sorted, 0.50)
	p95 = percentileOf(sorted, 0.95)
	p99 = percentileOf(sorted, 0.99)
	return
}

func percentileOf(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

// StrategyStats is one strategy's aggregate standing across every domain.
type StrategyStats struct {
	Attempts int64
	Successes int64
	Failures  int64
	P50Ms, P95Ms, P99Ms, AvgMs float64
}

// Snapshot is a point-in-time read of every counter the collector tracks.
type Snapshot struct {
	CacheHits      int64
	CacheMisses    int64
	CacheWrites    int64
	CacheEvictions int64
	StorageBytes   int64
	StorageItems   int64
	RequestTotals  map[string]int64
	ErrorTotals    map[string]int64
	Strategies     map[string]StrategyStats
}

// Collector is the process-wide singleton metrics sink (§5). It implements
// cache.EvictionSink so the resource cache can report evictions directly.
type Collector struct {
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	cacheWrites    atomic.Int64
	cacheEvictions atomic.Int64

	mu            sync.Mutex
	requestTotals map[string]int64
	errorTotals   map[string]int64
	storageBytes  int64
	storageItems  int64

	stratMu  sync.Mutex
	strategy map[string]*strategyCounters
}

type strategyCounters struct {
	attempts  atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
	latency   latencyRing
}

// New constructs an empty Collector.
func New() *Collector {
	return &Collector{
		requestTotals: make(map[string]int64),
		errorTotals:   make(map[string]int64),
		strategy:      make(map[string]*strategyCounters),
	}
}

// RecordCacheHit/Miss/Write increment the resource-cache counters.
func (c *Collector) RecordCacheHit()  { c.cacheHits.Add(1) }
func (c *Collector) RecordCacheMiss() { c.cacheMisses.Add(1) }
func (c *Collector) RecordCacheWrite() { c.cacheWrites.Add(1) }

// RecordEviction implements cache.EvictionSink.
func (c *Collector) RecordEviction(uri string, reason string) {
	c.cacheEvictions.Add(1)
}

// SetStorageUsage records the cache backend's current footprint, called
// opportunistically by the cache after writes and evictions.
func (c *Collector) SetStorageUsage(bytes int64, items int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storageBytes = bytes
	c.storageItems = items
}

// RecordRequest increments the per-tool request total.
func (c *Collector) RecordRequest(tool string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestTotals[tool]++
}

// RecordError increments the per-kind error total.
func (c *Collector) RecordError(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorTotals[kind]++
}

// RecordStrategyAttempt records one strategy attempt's outcome and latency.
func (c *Collector) RecordStrategyAttempt(name string, success bool, elapsed time.Duration) {
	sc := c.strategyCounters(name)
	sc.attempts.Add(1)
	if success {
		sc.successes.Add(1)
	} else {
		sc.failures.Add(1)
	}
	sc.latency.add(float64(elapsed.Milliseconds()))
}

func (c *Collector) strategyCounters(name string) *strategyCounters {
	c.stratMu.Lock()
	defer c.stratMu.Unlock()
	sc, ok := c.strategy[name]
	if !ok {
		sc = &strategyCounters{}
		c.strategy[name] = sc
	}
	return sc
}

// Read returns a point-in-time snapshot of every counter.
func (c *Collector) Read() Snapshot {
	c.mu.Lock()
	requestTotals := make(map[string]int64, len(c.requestTotals))
	for k, v := range c.requestTotals {
		requestTotals[k] = v
	}
	errorTotals := make(map[string]int64, len(c.errorTotals))
	for k, v := range c.errorTotals {
		errorTotals[k] = v
	}
	storageBytes, storageItems := c.storageBytes, c.storageItems
	c.mu.Unlock()

	c.stratMu.Lock()
	strategies := make(map[string]StrategyStats, len(c.strategy))
	for name, sc := range c.strategy {
		p50, p95, p99, avg := sc.latency.percentiles()
		strategies[name] = StrategyStats{
			Attempts:  sc.attempts.Load(),
			Successes: sc.successes.Load(),
			Failures:  sc.failures.Load(),
			P50Ms:     p50,
			P95Ms:     p95,
			P99Ms:     p99,
			AvgMs:     avg,
		}
	}
	c.stratMu.Unlock()

	return Snapshot{
		CacheHits:      c.cacheHits.Load(),
		CacheMisses:    c.cacheMisses.Load(),
		CacheWrites:    c.cacheWrites.Load(),
		CacheEvictions: c.cacheEvictions.Load(),
		StorageBytes:   storageBytes,
		StorageItems:   storageItems,
		RequestTotals:  requestTotals,
		ErrorTotals:    errorTotals,
		Strategies:     strategies,
	}
}
