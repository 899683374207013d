package cache

import (
	"sync"

	"github.com/use-agent/fetchmcp/fingerprint"
)

// inflightGroup deduplicates concurrent builds for the same fingerprint:
// the first caller invokes its build function, every subsequent caller
// for the same key blocks on the first caller's result instead of
// repeating the work. This is the "at-most-once concurrent fetch" half of
// §4.2's in-flight dedup requirement; atomic multi-tier write is handled by
// the backend's Put being called only once per winning builder.
type inflightGroup struct {
	mu    sync.Mutex
	calls map[fingerprint.Key]*inflightCall
}

type inflightCall struct {
	wg     sync.WaitGroup
	result any
	err    error
}

func newInflightGroup() *inflightGroup {
	return &inflightGroup{calls: make(map[fingerprint.Key]*inflightCall)}
}

// Do runs fn at most once per key among concurrent callers sharing it.
func (g *inflightGroup) Do(key fingerprint.Key, fn func() (any, error)) (any, error) {
	g.mu.Lock()
	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		return c.result, c.err
	}

	c := &inflightCall{}
	c.wg.Add(1)
	g.calls[key] = c
	g.mu.Unlock()

	c.result, c.err = fn()
	c.wg.Done()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()

	return c.result, c.err
}
