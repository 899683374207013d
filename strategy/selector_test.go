package strategy

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/fetchmcp/models"
)

type fakeStrategy struct {
	info  models.StrategyInfo
	fetch func(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

func (f *fakeStrategy) Info() models.StrategyInfo { return f.info }
func (f *fakeStrategy) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	return f.fetch(ctx, req)
}

func newFakeStrategy(name string, cost models.CostClass, caps []models.Capability, fetch func(ctx context.Context, req *FetchRequest) (*FetchResult, error)) *fakeStrategy {
	capSet := make(map[models.Capability]bool, len(caps))
	for _, c := range caps {
		capSet[c] = true
	}
	return &fakeStrategy{
		info:  models.StrategyInfo{Name: name, Capabilities: capSet, CostClass: cost, LatencyClass: models.LatencyFast},
		fetch: fetch,
	}
}

func TestSelectorFallsBackToNextStrategyOnFailure(t *testing.T) {
	httpCalls, remoteCalls := 0, 0
	httpStrat := newFakeStrategy("http", models.CostFree, []models.Capability{models.CapRawHTML},
		func(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
			httpCalls++
			return nil, models.NewError(models.ErrAuth, "403", nil)
		})
	remoteStrat := newFakeStrategy("remote", models.CostPaid, []models.Capability{models.CapRawHTML, models.CapJSRender},
		func(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
			remoteCalls++
			return &FetchResult{StrategyName: "remote", HTML: "<html>ok</html>"}, nil
		})

	learned := NewLearnedStore(filepath.Join(t.TempDir(), "learned.md"))
	sel := NewSelector([]Strategy{httpStrat, remoteStrat}, learned, OptimizeCost, nil)

	out, err := sel.Run(context.Background(), "blocked.test", Requirements{}, &FetchRequest{URL: "https://blocked.test/", Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, "remote", out.Strategy)
	assert.Equal(t, 1, httpCalls)
	assert.Equal(t, 1, remoteCalls)
	require.Len(t, out.Attempts, 2)
	assert.Equal(t, models.AttemptFailed, out.Attempts[0].State)
	assert.Equal(t, models.ErrAuth, out.Attempts[0].Kind)
	assert.Equal(t, models.AttemptSuccess, out.Attempts[1].State)
}

func TestSelectorDemotesAfterThirdConsecutiveFailure(t *testing.T) {
	httpStrat := newFakeStrategy("http", models.CostFree, []models.Capability{models.CapRawHTML},
		func(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
			return nil, models.NewError(models.ErrAuth, "403", nil)
		})
	remoteStrat := newFakeStrategy("remote", models.CostPaid, []models.Capability{models.CapRawHTML, models.CapJSRender},
		func(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
			return &FetchResult{StrategyName: "remote", HTML: "ok"}, nil
		})

	learned := NewLearnedStore(filepath.Join(t.TempDir(), "learned.md"))
	sel := NewSelector([]Strategy{httpStrat, remoteStrat}, learned, OptimizeCost, nil)

	for i := 0; i < 3; i++ {
		_, err := sel.Run(context.Background(), "blocked.test", Requirements{}, &FetchRequest{URL: "https://blocked.test/", Timeout: 5 * time.Second})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"remote", "http"}, learned.Order("blocked.test"))
}

func TestSelectorHardConstraintEliminatesIncapableStrategies(t *testing.T) {
	httpStrat := newFakeStrategy("http", models.CostFree, []models.Capability{models.CapRawHTML}, nil)
	browserStrat := newFakeStrategy("browser", models.CostFree, []models.Capability{models.CapRawHTML, models.CapBrowserActions},
		func(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
			return &FetchResult{StrategyName: "browser", HTML: "ok"}, nil
		})

	learned := NewLearnedStore(filepath.Join(t.TempDir(), "learned.md"))
	sel := NewSelector([]Strategy{httpStrat, browserStrat}, learned, OptimizeCost, nil)

	out, err := sel.Run(context.Background(), "actions.test",
		Requirements{NeedCapable: []models.Capability{models.CapBrowserActions}},
		&FetchRequest{URL: "https://actions.test/", Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, "browser", out.Strategy)
}

type fakeAttemptSink struct {
	mu       sync.Mutex
	recorded []recordedAttempt
}

type recordedAttempt struct {
	name    string
	success bool
}

func (f *fakeAttemptSink) RecordStrategyAttempt(name string, success bool, elapsed time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, recordedAttempt{name: name, success: success})
}

func TestSelectorRecordsLatencyAndAttemptMetrics(t *testing.T) {
	httpStrat := newFakeStrategy("http", models.CostFree, []models.Capability{models.CapRawHTML},
		func(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
			return nil, models.NewError(models.ErrAuth, "403", nil)
		})
	remoteStrat := newFakeStrategy("remote", models.CostPaid, []models.Capability{models.CapRawHTML, models.CapJSRender},
		func(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
			return &FetchResult{StrategyName: "remote", HTML: "ok"}, nil
		})

	learned := NewLearnedStore(filepath.Join(t.TempDir(), "learned.md"))
	sink := &fakeAttemptSink{}
	sel := NewSelector([]Strategy{httpStrat, remoteStrat}, learned, OptimizeCost, sink)

	out, err := sel.Run(context.Background(), "blocked.test", Requirements{}, &FetchRequest{URL: "https://blocked.test/", Timeout: 5 * time.Second})
	require.NoError(t, err)

	require.Len(t, out.Attempts, 2)
	for _, a := range out.Attempts {
		assert.GreaterOrEqual(t, a.Latency, time.Duration(0))
	}

	require.Len(t, sink.recorded, 2)
	assert.Equal(t, recordedAttempt{name: "http", success: false}, sink.recorded[0])
	assert.Equal(t, recordedAttempt{name: "remote", success: true}, sink.recorded[1])
}

func TestSelectorNoEligibleStrategyIsValidationError(t *testing.T) {
	httpStrat := newFakeStrategy("http", models.CostFree, []models.Capability{models.CapRawHTML}, nil)
	learned := NewLearnedStore(filepath.Join(t.TempDir(), "learned.md"))
	sel := NewSelector([]Strategy{httpStrat}, learned, OptimizeCost, nil)

	_, err := sel.Run(context.Background(), "actions.test",
		Requirements{NeedCapable: []models.Capability{models.CapBrowserActions}},
		&FetchRequest{URL: "https://actions.test/", Timeout: 5 * time.Second})
	require.Error(t, err)
	acqErr := models.AsAcquireError(err)
	require.NotNil(t, acqErr)
	assert.Equal(t, models.ErrValidation, acqErr.Kind)
}
