package fingerprint

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/use-agent/fetchmcp/models"
)

// TestFingerprintDeterministicProperty verifies that For is a pure function
// of its inputs: the same (url, tier, extractPrompt) always yields the same
// Key, regardless of how many times it's computed.
func TestFingerprintDeterministicProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("For is deterministic for identical inputs", prop.ForAll(
		func(tc fingerprintCase) bool {
			req := &models.ScrapeRequest{URL: tc.url, ExtractPrompt: tc.prompt}
			return For(req, tc.tier) == For(req, tc.tier)
		},
		genFingerprintCase(),
	))

	properties.TestingRun(t)
}

// TestRawAndCleanedTiersIgnoreExtractPromptProperty is the regression
// property for spec.md §8 Scenario S2: the raw and cleaned tiers must
// fingerprint identically regardless of extractPrompt, so overlapping scrape
// calls differing only in extractPrompt share one raw fetch and one cleaned
// artifact instead of each re-fetching independently.
func TestRawAndCleanedTiersIgnoreExtractPromptProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("raw/cleaned fingerprints don't depend on extractPrompt", prop.ForAll(
		func(url, promptA, promptB string, tier models.Tier) bool {
			reqA := &models.ScrapeRequest{URL: url, ExtractPrompt: promptA}
			reqB := &models.ScrapeRequest{URL: url, ExtractPrompt: promptB}
			return For(reqA, tier) == For(reqB, tier)
		},
		genURL(),
		genPrompt(),
		genPrompt(),
		gen.OneConstOf(models.TierRaw, models.TierCleaned),
	))

	properties.TestingRun(t)
}

// TestExtractedTierDependsOnPromptProperty verifies the complementary half
// of Scenario S2: two distinct prompts against the same URL at the
// extracted tier must produce distinct fingerprints, since they are
// genuinely different artifacts.
func TestExtractedTierDependsOnPromptProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("extracted-tier fingerprints differ when prompts differ", prop.ForAll(
		func(url, promptA, promptB string) bool {
			if promptA == promptB {
				return true
			}
			reqA := &models.ScrapeRequest{URL: url, ExtractPrompt: promptA}
			reqB := &models.ScrapeRequest{URL: url, ExtractPrompt: promptB}
			return For(reqA, models.TierExtracted) != For(reqB, models.TierExtracted)
		},
		genURL(),
		genPrompt(),
		genPrompt(),
	))

	properties.TestingRun(t)
}

// TestDistinctTiersFingerprintDistinctlyProperty verifies the fingerprint
// always distinguishes tiers for the same URL and prompt, so a raw-tier
// build can never be satisfied by a cleaned- or extracted-tier artifact.
func TestDistinctTiersFingerprintDistinctlyProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("distinct tiers never collide", prop.ForAll(
		func(url, prompt string) bool {
			req := &models.ScrapeRequest{URL: url, ExtractPrompt: prompt}
			raw := For(req, models.TierRaw)
			cleaned := For(req, models.TierCleaned)
			extracted := For(req, models.TierExtracted)
			return raw != cleaned && cleaned != extracted && raw != extracted
		},
		genURL(),
		genPrompt(),
	))

	properties.TestingRun(t)
}

// TestNormalizeURLIgnoresSchemeHostCaseProperty verifies that scheme/host
// casing and a bare trailing slash don't affect the fingerprint, so
// equivalent URLs share one cached artifact.
func TestNormalizeURLIgnoresSchemeHostCaseProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("scheme/host case and trailing slash don't affect the fingerprint", prop.ForAll(
		func(host string) bool {
			lower := fmt.Sprintf("https://%s/", host)
			upper := fmt.Sprintf("HTTPS://%s", host)
			return ForURL(lower) == ForURL(upper)
		},
		genHost(),
	))

	properties.TestingRun(t)
}

type fingerprintCase struct {
	url    string
	prompt string
	tier   models.Tier
}

func genFingerprintCase() gopter.Gen {
	return gopter.CombineGens(
		genURL(),
		genPrompt(),
		gen.OneConstOf(models.TierRaw, models.TierCleaned, models.TierExtracted),
	).Map(func(vals []any) fingerprintCase {
		return fingerprintCase{
			url:    vals[0].(string),
			prompt: vals[1].(string),
			tier:   vals[2].(models.Tier),
		}
	})
}

func genHost() gopter.Gen {
	return gen.IntRange(3, 12).FlatMap(func(length any) gopter.Gen {
		return gen.SliceOfN(length.(int), gen.AlphaLowerChar()).Map(func(chars []rune) string {
			return string(chars) + ".test"
		})
	}, reflect.TypeOf(""))
}

func genURL() gopter.Gen {
	return genHost().Map(func(host string) string {
		return "https://" + host + "/article"
	})
}

func genPrompt() gopter.Gen {
	return gen.IntRange(0, 24).FlatMap(func(length any) gopter.Gen {
		return gen.SliceOfN(length.(int), gen.AlphaChar()).Map(func(chars []rune) string {
			return string(chars)
		})
	}, reflect.TypeOf(""))
}
