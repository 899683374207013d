package models

import (
	"net/url"
	"strings"
)

// ResultHandling controls whether a tool's output is returned inline, saved
// to the resource cache and returned, or saved only (a link back).
type ResultHandling string

const (
	ReturnOnly    ResultHandling = "returnOnly"
	SaveAndReturn ResultHandling = "saveAndReturn"
	SaveOnly      ResultHandling = "saveOnly"
)

// ProxyMode selects the egress path a strategy should use.
type ProxyMode string

const (
	ProxyAuto    ProxyMode = "auto"
	ProxyBasic   ProxyMode = "basic"
	ProxyStealth ProxyMode = "stealth"
)

// Format is one member of a scrape request's requested output format set.
type Format string

const (
	FormatMarkdown   Format = "markdown"
	FormatHTML       Format = "html"
	FormatRawHTML    Format = "rawHtml"
	FormatLinks      Format = "links"
	FormatScreenshot Format = "screenshot"

	// FormatMarkdownCitations is a scrape-only supplemented format (not part
	// of the core five) that renders inline Markdown links as numbered
	// reference-style citations.
	FormatMarkdownCitations Format = "markdown_citations"
)

// Tier identifies one layer of a content artifact.
type Tier string

const (
	TierRaw       Tier = "raw"
	TierCleaned   Tier = "cleaned"
	TierExtracted Tier = "extracted"
)

// ScrapeRequest is the validated input to the scrape tool.
type ScrapeRequest struct {
	URL            string            `json:"url" validate:"required,url"`
	TimeoutMs      int               `json:"timeoutMs,omitempty" validate:"omitempty,min=1000,max=300000"`
	MaxChars       int               `json:"maxChars,omitempty" validate:"omitempty,min=1"`
	StartIndex     int               `json:"startIndex,omitempty" validate:"omitempty,min=0"`
	ResultHandling ResultHandling    `json:"resultHandling,omitempty" validate:"omitempty,oneof=returnOnly saveAndReturn saveOnly"`
	ForceRefresh   bool              `json:"forceRefresh,omitempty"`
	CleanContent   bool              `json:"cleanContent,omitempty"`
	ExtractPrompt  string            `json:"extractPrompt,omitempty"`
	Actions        []Action          `json:"actions,omitempty" validate:"omitempty,dive"`
	Headers        map[string]string `json:"headers,omitempty"`
	IncludeTags    []string          `json:"includeTags,omitempty"`
	ExcludeTags    []string          `json:"excludeTags,omitempty"`
	Formats        []Format          `json:"formats,omitempty"`
	ProxyMode      ProxyMode         `json:"proxyMode,omitempty" validate:"omitempty,oneof=auto basic stealth"`
	MaxAgeMs       int64             `json:"maxAgeMs,omitempty" validate:"omitempty,min=0"`
}

// Defaults fills unset fields with the tool's documented defaults. Must run
// after Normalize so URL defaulting doesn't mask a validation failure.
func (r *ScrapeRequest) Defaults() {
	if r.TimeoutMs == 0 {
		r.TimeoutMs = 30000
	}
	if r.ResultHandling == "" {
		r.ResultHandling = ReturnOnly
	}
	if r.ProxyMode == "" {
		r.ProxyMode = ProxyAuto
	}
	if len(r.Formats) == 0 {
		r.Formats = []Format{FormatMarkdown}
	}
}

// Normalize prepends a protocol when absent and trims the URL, matching the
// data model's requirement that the URL be absolute after normalization.
func (r *ScrapeRequest) Normalize() {
	r.URL = strings.TrimSpace(r.URL)
	if r.URL == "" {
		return
	}
	if !strings.Contains(r.URL, "://") {
		r.URL = "https://" + r.URL
	}
}

// Tier reports the content tier this request targets: extracted when an
// extract prompt is present, cleaned when clean-content is requested, raw
// otherwise.
func (r *ScrapeRequest) Tier() Tier {
	switch {
	case r.ExtractPrompt != "":
		return TierExtracted
	case r.CleanContent:
		return TierCleaned
	default:
		return TierRaw
	}
}

// SkipCache reports whether this request must bypass the cache lookup
// entirely, per the data model's saveOnly/force-refresh rules.
func (r *ScrapeRequest) SkipCache() bool {
	return r.ForceRefresh || r.ResultHandling == SaveOnly
}

// MapRequest is the validated input to the map tool.
type MapRequest struct {
	URL            string         `json:"url" validate:"required,url"`
	StartIndex     int            `json:"startIndex,omitempty" validate:"omitempty,min=0"`
	MaxResults     int            `json:"maxResults,omitempty" validate:"omitempty,min=1,max=1000"`
	Search         string         `json:"search,omitempty"`
	ResultHandling ResultHandling `json:"resultHandling,omitempty" validate:"omitempty,oneof=returnOnly saveAndReturn saveOnly"`
}

func (r *MapRequest) Defaults() {
	if r.MaxResults == 0 {
		r.MaxResults = 100
	}
	if r.ResultHandling == "" {
		r.ResultHandling = ReturnOnly
	}
}

func (r *MapRequest) Normalize() {
	r.URL = strings.TrimSpace(r.URL)
	if r.URL != "" && !strings.Contains(r.URL, "://") {
		r.URL = "https://" + r.URL
	}
}

// CrawlRequest is the validated input to the crawl tool. Exactly one of URL
// and JobID is present: URL starts a job, JobID addresses an existing one
// (status, or cancel when Cancel is true).
type CrawlRequest struct {
	URL      string `json:"url,omitempty" validate:"omitempty,url"`
	JobID    string `json:"jobId,omitempty"`
	Cancel   bool   `json:"cancel,omitempty"`
	MaxDepth int    `json:"maxDepth,omitempty" validate:"omitempty,min=1,max=10"`
	MaxPages int    `json:"maxPages,omitempty" validate:"omitempty,min=1,max=500"`
	// Scope is the link-following boundary: "domain" (same domain), "subdomain"
	// (same base domain), or "page" (single page only). Default: "subdomain".
	Scope           string   `json:"scope,omitempty" validate:"omitempty,oneof=domain subdomain page"`
	ExcludePatterns []string `json:"excludePatterns,omitempty"`
	WebhookURL      string   `json:"webhookUrl,omitempty" validate:"omitempty,url"`
	WebhookSecret   string   `json:"webhookSecret,omitempty"`
}

func (r *CrawlRequest) Defaults() {
	if r.MaxDepth == 0 {
		r.MaxDepth = 2
	}
	if r.MaxPages == 0 {
		r.MaxPages = 50
	}
	if r.Scope == "" {
		r.Scope = "subdomain"
	}
}

// IsStart reports whether this request starts a new job.
func (r *CrawlRequest) IsStart() bool { return r.URL != "" && r.JobID == "" }

// SearchRequest is the validated input to the search tool.
type SearchRequest struct {
	Query           string   `json:"query" validate:"required"`
	Limit           int      `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	Sources []string `json:"sources,omitempty" validate:"omitempty,dive,oneof=web news images"`
	// TimeBasedSearch is a preset (qdr:h|d|w|m|y) or custom (cdr:1,cd_min:MM/DD/YYYY,cd_max:MM/DD/YYYY)
	// token, passed through to the remote search operation unchanged.
	TimeBasedSearch string `json:"timeBasedSearch,omitempty" validate:"omitempty,startswith=qdr:|startswith=cdr:"`
	Country         string   `json:"country,omitempty"`
	Languages       []string `json:"languages,omitempty"`
}

func (r *SearchRequest) Defaults() {
	if r.Limit == 0 {
		r.Limit = 10
	}
	if len(r.Sources) == 0 {
		r.Sources = []string{"web"}
	}
}

// ValidAbsoluteURL reports whether s parses as an absolute URL with a host.
func ValidAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}
