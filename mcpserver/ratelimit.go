package mcpserver

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/use-agent/fetchmcp/config"
)

// ToolLimiter is a per-tool token-bucket limiter, grounded on the
// teacher's per-identity rate-limit middleware but keyed on tool name:
// a local MCP client has no API key or IP to distinguish callers by.
type ToolLimiter struct {
	mu       sync.Mutex
	cfg      config.RateLimitConfig
	limiters map[string]*rate.Limiter
}

// NewToolLimiter builds a ToolLimiter from the process's rate-limit
// configuration.
func NewToolLimiter(cfg config.RateLimitConfig) *ToolLimiter {
	return &ToolLimiter{cfg: cfg, limiters: make(map[string]*rate.Limiter)}
}

// Allow reports whether a call to tool may proceed now, consuming one
// token if so.
func (l *ToolLimiter) Allow(tool string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[tool]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)
		l.limiters[tool] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}
