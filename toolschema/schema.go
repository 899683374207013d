// Package toolschema builds the four tools' input schemas as plain JSON
// Schema maps, with a recursive self-check that no oneOf/anyOf/allOf key
// appears at any depth before the schema is ever advertised to a host.
package toolschema

import (
	"encoding/json"
	"fmt"
)

type schema map[string]any

// forbiddenKeys are the union combinators the transport rejects. A tagged
// union (browser actions) is flattened to a single object with an enum
// discriminator instead of being modeled with one of these.
var forbiddenKeys = []string{"oneOf", "anyOf", "allOf"}

// mustNotContainUnion panics if s (or anything nested in it) carries a
// union combinator key. This is a build-time programmer error, not a
// runtime condition: every schema here is a compile-time literal, so a
// violation can only come from a mistake in this package.
func mustNotContainUnion(path string, v any) {
	switch t := v.(type) {
	case map[string]any:
		for _, k := range forbiddenKeys {
			if _, ok := t[k]; ok {
				panic(fmt.Sprintf("toolschema: forbidden union combinator %q at %s", k, path))
			}
		}
		for k, sub := range t {
			mustNotContainUnion(path+"."+k, sub)
		}
	case []any:
		for i, sub := range t {
			mustNotContainUnion(fmt.Sprintf("%s[%d]", path, i), sub)
		}
	}
}

// actionSchema is the browser-action tagged union flattened per spec: one
// object carrying every variant's fields as optional, with type as the
// required discriminator. Per-variant required-field rules are enforced
// by validate.Validator.Scrape at runtime, not here.
func actionSchema() schema {
	return schema{
		"type": "object",
		"properties": schema{
			"type": schema{
				"type":        "string",
				"description": "Action kind",
				"enum":        []string{"wait", "click", "scroll", "execute_js", "scrape", "screenshot", "select", "type"},
			},
			"milliseconds": schema{"type": "integer", "description": "Duration to wait, for type=wait"},
			"selector":     schema{"type": "string", "description": "CSS selector, for type=click|select|type"},
			"amount":       schema{"type": "integer", "description": "Number of viewport-height steps to scroll (default 1), for type=scroll"},
			"direction":    schema{"type": "string", "description": "Scroll direction, for type=scroll", "enum": []string{"up", "down"}},
			"code":         schema{"type": "string", "description": "JavaScript source, for type=execute_js"},
			"value":        schema{"type": "string", "description": "Value to type or select, for type=select|type"},
		},
		"required": []string{"type"},
	}
}

// ScrapeSchema builds the scrape tool's input schema. extractAdvertised
// gates the extractPrompt property: callers omit it from the advertised
// schema entirely when no extractor is configured (spec.md §4.4).
func ScrapeSchema(extractAdvertised bool) json.RawMessage {
	props := schema{
		"url":          schema{"type": "string", "format": "uri", "description": "Target URL to scrape"},
		"timeoutMs":    schema{"type": "integer", "description": "Soft per-attempt timeout in milliseconds (default 30000)"},
		"maxChars":     schema{"type": "integer", "description": "Maximum characters to return in one response"},
		"startIndex":   schema{"type": "integer", "description": "Character offset to resume pagination from"},
		"resultHandling": schema{
			"type": "string", "description": "How to deliver the result",
			"enum": []string{"returnOnly", "saveAndReturn", "saveOnly"},
		},
		"forceRefresh": schema{"type": "boolean", "description": "Bypass the cache and re-fetch"},
		"cleanContent": schema{"type": "boolean", "description": "Run HTML through the cleaning pipeline"},
		"actions": schema{
			"type": "array", "description": "Browser-action sequence to run before capturing content",
			"items": actionSchema(),
		},
		"headers":     schema{"type": "object", "description": "Extra request headers", "additionalProperties": schema{"type": "string"}},
		"includeTags": schema{"type": "array", "description": "HTML tags to keep during cleaning", "items": schema{"type": "string"}},
		"excludeTags": schema{"type": "array", "description": "HTML tags to strip during cleaning", "items": schema{"type": "string"}},
		"formats": schema{
			"type": "array", "description": "Requested output formats",
			"items": schema{"type": "string", "enum": []string{"markdown", "html", "rawHtml", "links", "screenshot", "markdown_citations"}},
		},
		"proxyMode": schema{
			"type": "string", "description": "Egress path",
			"enum": []string{"auto", "basic", "stealth"},
		},
		"maxAgeMs": schema{"type": "integer", "description": "Maximum age in milliseconds for a cached artifact to count as fresh"},
	}
	if extractAdvertised {
		props["extractPrompt"] = schema{"type": "string", "description": "Natural-language extraction query run against the cleaned content"}
	}
	return build("scrape", schema{
		"type":       "object",
		"properties": props,
		"required":   []string{"url"},
	})
}

// MapSchema builds the map tool's input schema.
func MapSchema() json.RawMessage {
	return build("map", schema{
		"type": "object",
		"properties": schema{
			"url":        schema{"type": "string", "format": "uri", "description": "Site URL to map"},
			"startIndex": schema{"type": "integer", "description": "Entry offset to resume pagination from"},
			"maxResults": schema{"type": "integer", "description": "Maximum entries to return in one response"},
			"search":     schema{"type": "string", "description": "Filter discovered URLs containing this substring"},
			"resultHandling": schema{
				"type": "string", "description": "How to deliver the result",
				"enum": []string{"returnOnly", "saveAndReturn", "saveOnly"},
			},
		},
		"required": []string{"url"},
	})
}

// CrawlSchema builds the crawl tool's input schema. Exactly one of url and
// jobId must be present; enforced by validate.Validator.Crawl, not here.
func CrawlSchema() json.RawMessage {
	return build("crawl", schema{
		"type": "object",
		"properties": schema{
			"url":      schema{"type": "string", "format": "uri", "description": "Starting URL; starts a new crawl job"},
			"jobId":    schema{"type": "string", "description": "Existing job id; addresses get-status or cancel"},
			"cancel":   schema{"type": "boolean", "description": "Cancel the job named by jobId"},
			"maxDepth": schema{"type": "integer", "description": "Maximum link-following depth (default 2, max 10)"},
			"maxPages": schema{"type": "integer", "description": "Maximum pages to crawl (default 50, max 500)"},
			"scope": schema{
				"type": "string", "description": "Link-following boundary",
				"enum": []string{"domain", "subdomain", "page"},
			},
			"excludePatterns": schema{"type": "array", "description": "URL glob patterns to skip", "items": schema{"type": "string"}},
			"webhookUrl":      schema{"type": "string", "format": "uri", "description": "Endpoint notified on job completion"},
			"webhookSecret":   schema{"type": "string", "description": "HMAC secret for webhook signing"},
		},
	})
}

// SearchSchema builds the search tool's input schema.
func SearchSchema() json.RawMessage {
	return build("search", schema{
		"type": "object",
		"properties": schema{
			"query": schema{"type": "string", "description": "Search query text"},
			"limit": schema{"type": "integer", "description": "Maximum hits to return (default 10, max 100)"},
			"sources": schema{
				"type": "array", "description": "Source kinds to search",
				"items": schema{"type": "string", "enum": []string{"web", "news", "images"}},
			},
			"timeBasedSearch": schema{
				"type":        "string",
				"description": "Preset (qdr:h|d|w|m|y) or custom (cdr:1,cd_min:MM/DD/YYYY,cd_max:MM/DD/YYYY) recency token",
			},
			"country":   schema{"type": "string", "description": "Two-letter country bias code"},
			"languages": schema{"type": "array", "description": "Preferred result languages", "items": schema{"type": "string"}},
		},
		"required": []string{"query"},
	})
}

func build(tool string, s schema) json.RawMessage {
	mustNotContainUnion(tool, map[string]any(s))
	raw, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("toolschema: %s: %v", tool, err))
	}
	return raw
}
