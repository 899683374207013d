// Package pipeline implements the acquisition pipeline (§4.2): the
// orchestration that ties fingerprinting, the resource cache, the strategy
// engine, content processing, and extraction into the nine-step algorithm
// each tool handler drives.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/use-agent/fetchmcp/cache"
	"github.com/use-agent/fetchmcp/cleaner"
	"github.com/use-agent/fetchmcp/content"
	"github.com/use-agent/fetchmcp/extractor"
	"github.com/use-agent/fetchmcp/fingerprint"
	"github.com/use-agent/fetchmcp/models"
	"github.com/use-agent/fetchmcp/resource"
	"github.com/use-agent/fetchmcp/strategy"
)

// Pipeline is the process-wide orchestrator wiring the cache, strategy
// engine, cleaner, and extractor singletons (§5) into the tool algorithms.
// Callers are expected to have already normalized and validated the request.
type Pipeline struct {
	cache     *cache.Cache
	selector  *strategy.Selector
	cleaner   *cleaner.Cleaner
	extractor extractor.Extractor
}

// New wires a Pipeline. extractorImpl may be nil when no extractor provider
// is configured (§4.4's "extract parameter not advertised" rule lives in
// toolschema/, not here; the pipeline just skips the extract step).
func New(c *cache.Cache, sel *strategy.Selector, cl *cleaner.Cleaner, extractorImpl extractor.Extractor) *Pipeline {
	return &Pipeline{cache: c, selector: sel, cleaner: cl, extractor: extractorImpl}
}

// Scrape runs the full nine-step acquisition algorithm for one request.
//
// Steps 3-8 run as three independently-fingerprinted, independently
// deduplicated stages (raw fetch, clean, extract) rather than one fingerprint
// wrapping the whole pipeline. The raw and cleaned stages key on
// (normalizedURL, tier) only, with no extractPrompt in the key, so two
// overlapping calls that differ solely in extractPrompt share one raw fetch
// and one cleaned artifact instead of each re-fetching independently
// (spec.md §8 Scenario S2). Only the extract stage's key depends on the
// prompt, since different prompts against the same page are genuinely
// different artifacts.
func (p *Pipeline) Scrape(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResult, error) {
	start := time.Now()
	tier := req.Tier()
	domain := strategy.Domain(req.URL)
	timeout := time.Duration(req.TimeoutMs) * time.Millisecond
	maxAge := time.Duration(req.MaxAgeMs) * time.Millisecond
	skipCache := req.SkipCache()
	persist := req.ResultHandling != models.ReturnOnly

	// Step 2: cache lookup at the requested tier.
	if !skipCache && req.ResultHandling != models.SaveOnly {
		if res, ok := p.cache.Lookup(fingerprint.For(req, tier), maxAge); ok {
			return p.respondFromCache(req, res, start), nil
		}
	}

	var (
		attempts     []models.Attempt
		strategyUsed string
		warning      string
		fetchMs      int64
		cleaningMs   int64
		extractionMs int64
	)

	boundedCtx := func() (context.Context, context.CancelFunc) {
		if timeout <= 0 {
			return ctx, func() {}
		}
		return context.WithTimeout(ctx, timeout)
	}

	// Stage 1 (steps 3-4): raw fetch, fingerprinted on tier=raw alone.
	rawFP := fingerprint.For(req, models.TierRaw)
	rawRes, _ := lookupUnlessSkipped(p.cache, rawFP, maxAge, skipCache)
	if rawRes == nil {
		built, err := p.cache.Build(rawFP, func() (*models.Resource, error) {
			attemptCtx, cancel := boundedCtx()
			defer cancel()

			fetchStart := time.Now()
			outcome, ferr := p.selector.Run(attemptCtx, domain, requirementsFor(req), &strategy.FetchRequest{
				URL:            req.URL,
				Headers:        req.Headers,
				Timeout:        timeout,
				ProxyMode:      req.ProxyMode,
				Actions:        req.Actions,
				WantScreenshot: hasFormat(req.Formats, models.FormatScreenshot),
			})
			fetchMs = time.Since(fetchStart).Milliseconds()
			if ferr != nil {
				if acq := models.AsAcquireError(ferr); acq != nil {
					attempts = acq.Attempts
				}
				return nil, ferr
			}
			attempts = outcome.Attempts
			strategyUsed = outcome.Strategy

			rawBody := []byte(outcome.Result.HTML)
			ctype := content.Detect("", req.URL, rawBody)
			mimeType := mimeForType(ctype)

			if !persist {
				return &models.Resource{
					URI:      resource.ScrapedURI(req.URL, time.Now()),
					Name:     outcome.Result.Title,
					MimeType: mimeType,
					Text:     outcome.Result.HTML,
					Metadata: models.ResourceMetadata{
						SourceStrategy: outcome.Strategy,
						Timestamp:      time.Now(),
						Tier:           models.TierRaw,
						OriginURL:      req.URL,
					},
				}, nil
			}

			written, werr := p.cache.WriteMulti(cache.MultiWrite{
				OriginURL:      req.URL,
				SourceStrategy: outcome.Strategy,
				Tiers:          []cache.TierWrite{{Tier: models.TierRaw, Body: rawBody, MimeType: mimeType}},
			})
			if werr != nil {
				return nil, werr
			}
			out := written[models.TierRaw]
			out.Name = outcome.Result.Title
			out.Text = outcome.Result.HTML
			return out, nil
		})
		if err != nil {
			return nil, err
		}
		rawRes = built
	}

	resultTier := models.TierRaw
	primaryText := rawRes.Text
	meta := models.Metadata{SourceURL: req.URL, Title: rawRes.Name}
	var tokens models.TokenInfo

	// Stage 2 (steps 5-6): clean, fingerprinted on tier=cleaned alone.
	rawCType := content.Detect(rawRes.MimeType, req.URL, []byte(rawRes.Text))
	wantsClean := req.CleanContent || tier != models.TierRaw
	if wantsClean && rawCType == content.TypeHTML {
		cleanedFP := fingerprint.For(req, models.TierCleaned)
		cleanedRes, _ := lookupUnlessSkipped(p.cache, cleanedFP, maxAge, skipCache)
		if cleanedRes == nil {
			built, err := p.cache.Build(cleanedFP, func() (*models.Resource, error) {
				cleanStart := time.Now()
				cr, cerr := p.cleaner.Clean(rawRes.Text, req.URL, cleaner.Options{
					IncludeTags: req.IncludeTags,
					ExcludeTags: req.ExcludeTags,
					Mode:        cleanModeForTier(tier),
				})
				cleaningMs = time.Since(cleanStart).Milliseconds()
				if cerr != nil {
					return nil, cerr
				}
				text := renderFormats(req.Formats, cr, rawRes.Text, req.URL)

				if !persist {
					return &models.Resource{
						URI:      resource.ScrapedURI(req.URL, time.Now()),
						Name:     cr.Metadata.Title,
						MimeType: mimeForTier(models.TierCleaned),
						Text:     text,
						Metadata: models.ResourceMetadata{
							SourceStrategy: rawRes.Metadata.SourceStrategy,
							Timestamp:      time.Now(),
							Tier:           models.TierCleaned,
							OriginURL:      req.URL,
						},
					}, nil
				}

				written, werr := p.cache.WriteMulti(cache.MultiWrite{
					OriginURL:      req.URL,
					SourceStrategy: rawRes.Metadata.SourceStrategy,
					Tiers:          []cache.TierWrite{{Tier: models.TierCleaned, Body: []byte(text), MimeType: mimeForTier(models.TierCleaned)}},
				})
				if werr != nil {
					return nil, werr
				}
				out := written[models.TierCleaned]
				out.Name = cr.Metadata.Title
				out.Text = text
				return out, nil
			})
			if err != nil {
				warning = appendWarning(warning, fmt.Sprintf("cleaning failed, falling back to raw: %v", err))
			} else {
				cleanedRes = built
			}
		}
		if cleanedRes != nil {
			primaryText = cleanedRes.Text
			resultTier = models.TierCleaned
			meta = models.Metadata{SourceURL: req.URL, Title: cleanedRes.Name}
			tokens = cleaner.EstimateTokenInfo(rawRes.Text, cleanedRes.Text)
		}
	}

	// Stage 3 (step 7): extract, fingerprinted on (url, tier=extracted,
	// extractPrompt) — the only stage whose key includes the prompt.
	if req.ExtractPrompt != "" && p.extractor != nil {
		extractFP := fingerprint.For(req, models.TierExtracted)
		extractedRes, _ := lookupUnlessSkipped(p.cache, extractFP, maxAge, skipCache)
		if extractedRes == nil {
			built, err := p.cache.Build(extractFP, func() (*models.Resource, error) {
				extractCtx, cancel := boundedCtx()
				defer cancel()

				extractStart := time.Now()
				answer, eerr := p.extractor.Extract(extractCtx, primaryText, req.ExtractPrompt)
				extractionMs = time.Since(extractStart).Milliseconds()
				if eerr != nil {
					return nil, eerr
				}

				if !persist {
					return &models.Resource{
						URI:      resource.ScrapedURI(req.URL, time.Now()),
						Name:     meta.Title,
						MimeType: mimeForTier(models.TierExtracted),
						Text:     answer,
						Metadata: models.ResourceMetadata{
							SourceStrategy: strategyUsed,
							Timestamp:      time.Now(),
							Tier:           models.TierExtracted,
							ExtractPrompt:  req.ExtractPrompt,
							OriginURL:      req.URL,
						},
					}, nil
				}

				written, werr := p.cache.WriteMulti(cache.MultiWrite{
					OriginURL:      req.URL,
					ExtractPrompt:  req.ExtractPrompt,
					SourceStrategy: strategyUsed,
					Tiers:          []cache.TierWrite{{Tier: models.TierExtracted, Body: []byte(answer), MimeType: mimeForTier(models.TierExtracted)}},
				})
				if werr != nil {
					return nil, werr
				}
				out := written[models.TierExtracted]
				out.Name = meta.Title
				out.Text = answer
				return out, nil
			})
			if err != nil {
				warning = appendWarning(warning, fmt.Sprintf("extraction failed, falling back to %s tier: %v", resultTier, err))
			} else {
				extractedRes = built
			}
		}
		if extractedRes != nil {
			primaryText = extractedRes.Text
			resultTier = models.TierExtracted
		}
	}

	if strategyUsed == "" {
		strategyUsed = rawRes.Metadata.SourceStrategy
	}

	body, truncated, nextIndex := paginate(primaryText, req.StartIndex, req.MaxChars)
	if truncated {
		body += fmt.Sprintf("\n\n[truncated; continue with startIndex=%d]", nextIndex)
	}

	result := &models.ScrapeResult{
		Content:      body,
		ResultTier:   resultTier,
		Metadata:     meta,
		Tokens:       tokens,
		StrategyUsed: strategyUsed,
		Attempts:     attempts,
		Warning:      warning,
		Timing: models.TimingInfo{
			TotalMs:      time.Since(start).Milliseconds(),
			FetchMs:      fetchMs,
			CleaningMs:   cleaningMs,
			ExtractionMs: extractionMs,
		},
	}

	if persist {
		if res, ok := p.cache.Lookup(fingerprint.For(req, resultTier), maxAge); ok {
			result.Resource = res
		}
	}
	return result, nil
}

// lookupUnlessSkipped checks the cache for fp unless skipCache forces a
// fresh build, letting each pipeline stage reuse a previously persisted
// artifact instead of re-running its work.
func lookupUnlessSkipped(c *cache.Cache, fp fingerprint.Key, maxAge time.Duration, skipCache bool) (*models.Resource, bool) {
	if skipCache {
		return nil, false
	}
	return c.Lookup(fp, maxAge)
}

func (p *Pipeline) respondFromCache(req *models.ScrapeRequest, res *models.Resource, start time.Time) *models.ScrapeResult {
	body, truncated, nextIndex := paginate(res.Text, req.StartIndex, req.MaxChars)
	if truncated {
		body += fmt.Sprintf("\n\n[truncated; continue with startIndex=%d]", nextIndex)
	}
	result := &models.ScrapeResult{
		Content:      body,
		ResultTier:   res.Metadata.Tier,
		Metadata:     models.Metadata{SourceURL: res.Metadata.OriginURL, Title: res.Name},
		StrategyUsed: res.Metadata.SourceStrategy,
		CacheHit:     true,
		Timing:       models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
	}
	if req.ResultHandling != models.ReturnOnly {
		result.Resource = res
	}
	return result
}

func requirementsFor(req *models.ScrapeRequest) strategy.Requirements {
	var need []models.Capability
	if req.ProxyMode == models.ProxyStealth {
		need = append(need, models.CapAntiBotBypass)
	}
	if len(req.Actions) > 0 {
		need = append(need, models.CapBrowserActions)
	}
	if hasFormat(req.Formats, models.FormatScreenshot) {
		need = append(need, models.CapScreenshot)
	}
	return strategy.Requirements{NeedCapable: need}
}

func hasFormat(formats []models.Format, f models.Format) bool {
	for _, candidate := range formats {
		if candidate == f {
			return true
		}
	}
	return false
}

func appendWarning(existing, next string) string {
	if existing == "" {
		return next
	}
	return existing + "; " + next
}

// paginate applies startIndex/maxChars (§4.2 step 9) to text, operating on
// runes so multi-byte characters are never split mid-codepoint.
func paginate(text string, startIndex, maxChars int) (body string, truncated bool, nextIndex int) {
	if startIndex < 0 {
		startIndex = 0
	}
	runes := []rune(text)
	if startIndex >= len(runes) {
		return "", false, 0
	}
	remaining := runes[startIndex:]
	if maxChars <= 0 || len(remaining) <= maxChars {
		return string(remaining), false, 0
	}
	return string(remaining[:maxChars]), true, startIndex + maxChars
}

func mimeForType(t content.Type) string {
	switch t {
	case content.TypeHTML:
		return "text/html"
	case content.TypeMarkdown:
		return "text/markdown"
	case content.TypePDF:
		return "application/pdf"
	case content.TypeJSON:
		return "application/json"
	case content.TypeXML:
		return "application/xml"
	default:
		return "text/plain"
	}
}

// cleanModeForTier picks the cleaning stage's extraction algorithm from the
// request's target tier. A cleaned-tier request is the end product a human
// reads, so readability+pruning's auto mode picks whichever yields denser
// text. An extracted-tier request instead feeds an LLM extractor, which
// benefits from pruning's wider, less aggressively trimmed DOM scoring over
// auto's narrower "what would a reader want" heuristic, since fields the
// extractor needs (bylines, dates, tables) are more likely to survive.
func cleanModeForTier(tier models.Tier) cleaner.ExtractMode {
	if tier == models.TierExtracted {
		return cleaner.ExtractPruning
	}
	return cleaner.ExtractAuto
}

func mimeForTier(tier models.Tier) string {
	switch tier {
	case models.TierCleaned:
		return "text/markdown"
	case models.TierExtracted:
		return "text/plain"
	default:
		return "text/html"
	}
}

// renderFormats produces the primary content body for the requested format
// set. A single format renders directly; multiple formats render as
// Markdown sections, one per format (screenshot is excluded since it isn't
// textual — its bytes travel on the strategy result instead).
func renderFormats(formats []models.Format, cr *cleaner.Result, rawHTML, sourceURL string) string {
	if len(formats) == 0 {
		formats = []models.Format{models.FormatMarkdown}
	}
	if len(formats) == 1 {
		return renderOneFormat(formats[0], cr, rawHTML, sourceURL)
	}
	var b strings.Builder
	for _, f := range formats {
		if f == models.FormatScreenshot {
			continue
		}
		b.WriteString("## format: " + string(f) + "\n\n")
		b.WriteString(renderOneFormat(f, cr, rawHTML, sourceURL))
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

func renderOneFormat(f models.Format, cr *cleaner.Result, rawHTML, sourceURL string) string {
	switch f {
	case models.FormatHTML:
		return cr.HTML
	case models.FormatRawHTML:
		return rawHTML
	case models.FormatLinks:
		return cleaner.RenderLinksMarkdown(cleaner.ExtractLinks(rawHTML, sourceURL))
	case models.FormatMarkdownCitations:
		return cleaner.ConvertToCitations(cr.Markdown)
	default:
		return cr.Markdown
	}
}
