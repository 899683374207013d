// Package content detects the semantic content type of a fetched body,
// the first stage of the detect → clean → extract pipeline (§4.4).
package content

import (
	"net/url"
	"strings"
)

// Type is one of the content categories the rest of the pipeline switches
// on: html, markdown, pdf, json, xml, text.
type Type string

const (
	TypeHTML     Type = "html"
	TypeMarkdown Type = "markdown"
	TypePDF      Type = "pdf"
	TypeJSON     Type = "json"
	TypeXML      Type = "xml"
	TypeText     Type = "text"
)

var suffixTypes = map[string]Type{
	".pdf":  TypePDF,
	".json": TypeJSON,
	".xml":  TypeXML,
	".md":   TypeMarkdown,
}

// Detect classifies a fetched body. Priority: the fetcher-reported MIME
// type, then the source URL's file suffix, then a sniff of the body's
// first bytes. A strategy that already identified the type should be
// trusted directly rather than routed through Detect.
func Detect(mimeType, sourceURL string, body []byte) Type {
	if t, ok := fromMIME(mimeType); ok {
		return t
	}
	if t, ok := fromSuffix(sourceURL); ok {
		return t
	}
	return sniff(body)
}

func fromMIME(mimeType string) (Type, bool) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mt, ";"); idx >= 0 {
		mt = mt[:idx]
	}
	switch {
	case mt == "":
		return "", false
	case strings.Contains(mt, "html"):
		return TypeHTML, true
	case mt == "application/pdf":
		return TypePDF, true
	case strings.Contains(mt, "json"):
		return TypeJSON, true
	case strings.Contains(mt, "xml"):
		return TypeXML, true
	case mt == "text/markdown" || mt == "text/x-markdown":
		return TypeMarkdown, true
	case strings.HasPrefix(mt, "text/"):
		return TypeText, true
	default:
		return "", false
	}
}

func fromSuffix(sourceURL string) (Type, bool) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return "", false
	}
	path := strings.ToLower(u.Path)
	for suffix, t := range suffixTypes {
		if strings.HasSuffix(path, suffix) {
			return t, true
		}
	}
	if strings.HasSuffix(path, ".html") || strings.HasSuffix(path, ".htm") {
		return TypeHTML, true
	}
	return "", false
}

// sniff inspects the body's leading bytes when MIME type and URL suffix
// both gave no answer. Falls back to text.
func sniff(body []byte) Type {
	trimmed := strings.TrimSpace(string(firstN(body, 512)))
	if trimmed == "" {
		return TypeText
	}
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(trimmed, "%PDF-"):
		return TypePDF
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		return TypeJSON
	case strings.HasPrefix(trimmed, "<?xml"):
		return TypeXML
	case strings.HasPrefix(lower, "<!doctype html") || strings.HasPrefix(lower, "<html") || strings.Contains(lower, "<body"):
		return TypeHTML
	default:
		return TypeText
	}
}

func firstN(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
