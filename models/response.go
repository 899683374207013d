package models

// ScrapeResult is the acquisition pipeline's internal result: one tier's
// content plus enough provenance to build whichever tool-response shape
// resultHandling calls for, and a warning when a later pipeline stage
// degraded rather than failed the request outright.
type ScrapeResult struct {
	// Content is the body at ResultTier, already paginated per
	// StartIndex/MaxChars.
	Content string `json:"content"`

	// ResultTier is the highest tier that actually succeeded; it may be
	// lower than the request's requested tier on a clean/extract failure.
	ResultTier Tier `json:"resultTier"`

	// Metadata contains extracted page metadata.
	Metadata Metadata `json:"metadata"`

	// Tokens provides token estimates before and after cleaning.
	Tokens TokenInfo `json:"tokens"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// StrategyUsed is the name of the strategy that produced the raw tier.
	StrategyUsed string `json:"strategyUsed"`

	// Attempts records every strategy attempt made, successful or not.
	Attempts []Attempt `json:"attempts,omitempty"`

	// CacheHit indicates the result was served from the cache without a
	// fetch.
	CacheHit bool `json:"cacheHit"`

	// Warning is set when a non-fatal degradation occurred (e.g. cleaning
	// failed and the response falls back to raw).
	Warning string `json:"warning,omitempty"`

	// Resource is populated when the caller's resultHandling saved the
	// content to the cache.
	Resource *Resource `json:"resource,omitempty"`
}

// MapResponse is the map tool's paginated output: a window of Entries over
// the full discovered set, with Total the unpaginated count and NextIndex
// set when more entries remain.
type MapResponse struct {
	Entries   []MapEntry `json:"entries"`
	Total     int        `json:"total"`
	NextIndex int        `json:"nextIndex,omitempty"`

	// URI addresses the saved map-page resource when ResultHandling isn't
	// returnOnly.
	URI string `json:"uri,omitempty"`
}

// Metadata holds page-level information extracted during scraping.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
	Author      string `json:"author,omitempty"`
	Language    string `json:"language,omitempty"`
	SourceURL   string `json:"sourceUrl"`
}

// TokenInfo provides before/after token estimates to show cleaning efficacy.
type TokenInfo struct {
	// OriginalEstimate is the estimated token count of the raw content.
	OriginalEstimate int `json:"originalEstimate"`

	// CleanedEstimate is the estimated token count of the cleaned output.
	CleanedEstimate int `json:"cleanedEstimate"`

	// SavingsPercent is the percentage of tokens removed (0-100).
	SavingsPercent float64 `json:"savingsPercent"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"totalMs"`

	// FetchMs is the time spent acquiring content via the selected strategy.
	FetchMs int64 `json:"fetchMs"`

	// CleaningMs is the time spent extracting content and converting to markdown.
	CleaningMs int64 `json:"cleaningMs"`

	// ExtractionMs is the time spent in LLM-based field extraction, if any.
	ExtractionMs int64 `json:"extractionMs,omitempty"`
}
