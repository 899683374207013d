package strategy

import (
	"context"
	"time"

	"github.com/use-agent/fetchmcp/fingerprint"
	"github.com/use-agent/fetchmcp/models"
)

// OptimizeFor is the operator-chosen global optimization axis (§4.2): cost
// prefers free strategies first; speed prefers whichever strategy has most
// recently succeeded on the domain, regardless of cost.
type OptimizeFor string

const (
	OptimizeCost  OptimizeFor = "cost"
	OptimizeSpeed OptimizeFor = "speed"
)

// Requirements are the hard constraints a fetch imposes on strategy choice:
// a user-forced strategy name, or capabilities the request needs (actions,
// stealth proxy, screenshot, pdf). A strategy missing a required capability
// is eliminated outright, never merely deprioritized.
type Requirements struct {
	ForceStrategy string
	NeedCapable   []models.Capability
}

// AttemptSink receives one notification per strategy attempt, win or lose,
// so monitoring can track per-strategy success rate and latency.
// Implemented by monitoring.Collector.
type AttemptSink interface {
	RecordStrategyAttempt(name string, success bool, elapsed time.Duration)
}

type noopAttemptSink struct{}

func (noopAttemptSink) RecordStrategyAttempt(string, bool, time.Duration) {}

// Selector picks and runs strategies in order for a domain, recording
// outcomes to the learned store (§4.3) and returning the aggregate
// diagnostics the pipeline needs for both success and no-success responses.
type Selector struct {
	strategies  []Strategy
	learned     *LearnedStore
	optimizeFor OptimizeFor
	metrics     AttemptSink
}

// NewSelector wires a Selector. metrics may be nil; a no-op sink is
// substituted so callers needn't guard every attempt.
func NewSelector(strategies []Strategy, learned *LearnedStore, optimizeFor OptimizeFor, metrics AttemptSink) *Selector {
	if metrics == nil {
		metrics = noopAttemptSink{}
	}
	return &Selector{strategies: strategies, learned: learned, optimizeFor: optimizeFor, metrics: metrics}
}

// order computes the attempt order for domain honoring hard constraints
// first (forced strategy, or eliminate incapable strategies), then the
// learned per-domain order (soft), then the global cost/speed axis.
func (s *Selector) order(domain string, req Requirements) ([]Strategy, error) {
	eligible := make([]Strategy, 0, len(s.strategies))
	for _, strat := range s.strategies {
		if req.ForceStrategy != "" && strat.Info().Name != req.ForceStrategy {
			continue
		}
		if hasAllCapabilities(strat.Info(), req.NeedCapable) {
			eligible = append(eligible, strat)
		}
	}
	if len(eligible) == 0 {
		return nil, models.NewError(models.ErrValidation,
			"no configured strategy satisfies the requested capabilities", nil)
	}
	if req.ForceStrategy != "" {
		return eligible, nil
	}

	byName := make(map[string]Strategy, len(eligible))
	for _, strat := range eligible {
		byName[strat.Info().Name] = strat
	}

	learnedOrder := s.learned.Order(domain)
	ordered := make([]Strategy, 0, len(eligible))
	seen := make(map[string]bool, len(eligible))
	for _, name := range learnedOrder {
		if strat, ok := byName[name]; ok && !seen[name] {
			ordered = append(ordered, strat)
			seen[name] = true
		}
	}
	for _, strat := range eligible {
		if !seen[strat.Info().Name] {
			ordered = append(ordered, strat)
			seen[strat.Info().Name] = true
		}
	}

	if s.optimizeFor == OptimizeCost && len(learnedOrder) == 0 {
		ordered = stableSortByCost(ordered)
	}
	return ordered, nil
}

func hasAllCapabilities(info models.StrategyInfo, need []models.Capability) bool {
	for _, c := range need {
		if !info.HasCapability(c) {
			return false
		}
	}
	return true
}

// stableSortByCost moves free strategies ahead of paid ones, preserving
// relative order within each group.
func stableSortByCost(strategies []Strategy) []Strategy {
	out := make([]Strategy, 0, len(strategies))
	for _, strat := range strategies {
		if strat.Info().CostClass == models.CostFree {
			out = append(out, strat)
		}
	}
	for _, strat := range strategies {
		if strat.Info().CostClass != models.CostFree {
			out = append(out, strat)
		}
	}
	return out
}

// Outcome is the result of running the attempt loop: either a successful
// fetch plus the strategy that produced it, or no success at all plus the
// full set of attempts for diagnostics.
type Outcome struct {
	Result   *FetchResult
	Strategy string
	Attempts []models.Attempt
}

// Run executes the attempt loop (§4.2 step 5): strategies in order, each
// bounded by a per-attempt timeout derived from the user's overall timeout,
// recording success/failure against the learned store and stopping at the
// first success.
func (s *Selector) Run(ctx context.Context, domain string, req Requirements, fetchReq *FetchRequest) (*Outcome, error) {
	candidates, err := s.order(domain, req)
	if err != nil {
		return nil, err
	}

	attempts := make([]models.Attempt, 0, len(candidates))
	perAttemptTimeout := fetchReq.Timeout
	if n := len(candidates); n > 1 {
		perAttemptTimeout = fetchReq.Timeout / time.Duration(n)
		if perAttemptTimeout < time.Second {
			perAttemptTimeout = fetchReq.Timeout
		}
	}

	for _, strat := range candidates {
		name := strat.Info().Name
		attemptCtx, cancel := context.WithTimeout(ctx, perAttemptTimeout)
		start := time.Now()
		attemptReq := *fetchReq
		attemptReq.Timeout = perAttemptTimeout

		result, fetchErr := strat.Fetch(attemptCtx, &attemptReq)
		cancel()
		elapsed := time.Since(start)

		if fetchErr == nil {
			s.learned.RecordSuccess(domain, name)
			s.metrics.RecordStrategyAttempt(name, true, elapsed)
			attempts = append(attempts, models.Attempt{Strategy: name, State: models.AttemptSuccess, Latency: elapsed})
			return &Outcome{Result: result, Strategy: name, Attempts: attempts}, nil
		}

		acqErr := models.AsAcquireError(fetchErr)
		kind := models.ErrNetwork
		reason := fetchErr.Error()
		var retryAfterMs int64
		if acqErr != nil {
			kind = acqErr.Kind
			reason = acqErr.Message
			retryAfterMs = acqErr.RetryAfterMs
		}
		s.learned.RecordFailure(domain, name, kind, reason, retryAfterMs)
		s.metrics.RecordStrategyAttempt(name, false, elapsed)
		attempts = append(attempts, models.Attempt{
			Strategy: name,
			State:    models.AttemptFailed,
			Reason:   reason,
			Kind:     kind,
			Latency:  elapsed,
		})
	}

	return nil, combinedFailure(attempts)
}

func combinedFailure(attempts []models.Attempt) error {
	if len(attempts) == 0 {
		return models.NewError(models.ErrValidation, "no strategies attempted", nil)
	}
	last := attempts[len(attempts)-1]
	err := models.NewError(last.Kind, "all strategies failed: "+last.Reason, nil)
	err.Attempts = attempts
	return err
}

// Domain extracts the domain key the learned store uses, delegating to the
// fingerprint package's URL normalization so cache and learning agree on
// what "the same domain" means.
func Domain(rawURL string) string {
	return fingerprint.Domain(rawURL)
}
