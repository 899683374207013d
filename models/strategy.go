package models

import "time"

// Capability is one thing a strategy can do for a fetch.
type Capability string

const (
	CapJSRender       Capability = "javascript-render"
	CapAntiBotBypass  Capability = "anti-bot-bypass"
	CapPDFParse       Capability = "pdf-parse"
	CapScreenshot     Capability = "screenshot"
	CapRawHTML        Capability = "raw-html"
	CapBrowserActions Capability = "browser-actions"
)

// CostClass is a strategy's per-attempt billing class.
type CostClass string

const (
	CostFree CostClass = "free"
	CostPaid CostClass = "paid"
)

// LatencyClass is a strategy's typical per-attempt latency band.
type LatencyClass string

const (
	LatencyFast   LatencyClass = "fast"
	LatencyMedium LatencyClass = "medium"
	LatencySlow   LatencyClass = "slow"
)

// StrategyInfo describes a named fetcher's static capability profile.
type StrategyInfo struct {
	Name         string
	Capabilities map[Capability]bool
	CostClass    CostClass
	LatencyClass LatencyClass
}

// HasCapability reports whether the strategy advertises cap.
func (s StrategyInfo) HasCapability(cap Capability) bool {
	return s.Capabilities[cap]
}

// AttemptState is a strategy attempt's position in its state machine:
// pending -> running -> (success | failed).
type AttemptState string

const (
	AttemptPending AttemptState = "pending"
	AttemptRunning AttemptState = "running"
	AttemptSuccess AttemptState = "success"
	AttemptFailed  AttemptState = "failed"
)

// Attempt records one strategy's outcome for a single fetch, used both to
// build the pipeline's diagnostics and to feed the learned-strategy store.
type Attempt struct {
	Strategy string
	State    AttemptState
	Reason   string
	Kind     ErrorKind
	Latency  time.Duration
}
