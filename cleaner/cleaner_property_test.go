package cleaner

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestCleanIsDeterministicProperty generalizes TestCleanIsDeterministic
// across every ExtractMode and tag-filter combination: Clean MUST be a pure
// function of (rawHTML, sourceURL, opts), never introducing run-to-run
// drift from the readability/pruning concurrency in autoExtract.
func TestCleanIsDeterministicProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	c := NewCleaner()

	properties.Property("Clean(html, url, opts) is deterministic", prop.ForAll(
		func(mode ExtractMode, includeNav bool) bool {
			opts := Options{Mode: mode}
			if includeNav {
				opts.IncludeTags = []string{"nav"}
			}
			r1, err1 := c.Clean(sampleHTML, "https://example.com/article", opts)
			r2, err2 := c.Clean(sampleHTML, "https://example.com/article", opts)
			if (err1 == nil) != (err2 == nil) {
				return false
			}
			if err1 != nil {
				return true
			}
			return r1.Markdown == r2.Markdown && r1.Tokens == r2.Tokens
		},
		gen.OneConstOf(ExtractReadability, ExtractPruning, ExtractAuto, ExtractRaw),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
