package cleaner

import (
	"math"
	"unicode/utf8"

	"github.com/use-agent/fetchmcp/models"
)

// EstimateTokens provides a fast token count estimate without importing tiktoken.
//
// Heuristic: utf8 rune count / 3.
//
//   - English text averages ~4 chars/token, CJK text averages ~1.5 chars/token.
//   - Dividing by 3 is a reasonable middle-ground for mixed-language content.
//   - This intentionally over-estimates slightly (conservative), which is safer
//     for showing savings ratios — users see a genuine improvement, never inflated.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	est := n / 3
	if est < 1 {
		return 1
	}
	return est
}

// EstimateTokenInfo builds the before/after token estimate pipeline/scrape.go
// reports per tool response, shared by the stage that just ran Clean and by
// a race-losing concurrent caller that only has the raw and cleaned bodies.
func EstimateTokenInfo(original, cleaned string) models.TokenInfo {
	before := EstimateTokens(original)
	after := EstimateTokens(cleaned)
	savings := 0.0
	if before > 0 {
		savings = math.Round(float64(before-after)/float64(before)*100*100) / 100
	}
	return models.TokenInfo{
		OriginalEstimate: before,
		CleanedEstimate:  after,
		SavingsPercent:   savings,
	}
}
