package cleaner

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/use-agent/fetchmcp/models"
)

// ExtractMode selects which extraction stage produces the base content
// before format conversion (§4.4).
type ExtractMode string

const (
	ExtractReadability ExtractMode = "readability"
	ExtractPruning      ExtractMode = "pruning"
	ExtractAuto         ExtractMode = "auto"
	ExtractRaw          ExtractMode = "raw"
)

// Cleaner orchestrates the two-stage cleaning pipeline:
//
//	Stage 1 (readability/pruning/auto): extract main content, strip
//	  nav/footer/sidebar/ads.
//	Stage 2 (markdown): convert clean HTML -> Markdown (or html/text
//	  pass-through).
//
// The converter is created once and reused across all requests
// (goroutine-safe).
type Cleaner struct {
	mdConverter *converter.Converter
}

func NewCleaner() *Cleaner {
	return &Cleaner{mdConverter: newMarkdownConverter()}
}

// Options carries the request-level knobs that steer cleaning: tag filters
// and which ExtractMode to run. Format selection happens one layer up in
// pipeline/scrape.go, which asks for one Markdown body here and separately
// renders links/rawHtml/html variants as needed.
type Options struct {
	IncludeTags []string
	ExcludeTags []string
	Mode        ExtractMode
}

// Result is the cleaning stage's output: the cleaned Markdown body plus
// page metadata and token estimates, everything the pipeline needs to
// assemble a cleaned-tier artifact.
type Result struct {
	Markdown string
	HTML     string
	Text     string
	Metadata models.Metadata
	Tokens   models.TokenInfo
}

// Clean runs the full pipeline: filter -> extract (readability/pruning/auto)
// -> convert to Markdown -> token estimates. Cleaning MUST be deterministic
// for identical input and options.
func (c *Cleaner) Clean(rawHTML, sourceURL string, opts Options) (*Result, error) {
	filtered := rawHTML
	if len(opts.IncludeTags) > 0 || len(opts.ExcludeTags) > 0 {
		filtered = FilterContent(rawHTML, opts.IncludeTags, opts.ExcludeTags)
	}

	mode := opts.Mode
	if mode == "" {
		mode = ExtractReadability
	}

	var article readability.Article
	switch mode {
	case ExtractRaw:
		article = fallbackArticle(filtered)

	case ExtractPruning:
		prunedHTML, err := PruneContent(filtered, sourceURL)
		if err != nil {
			slog.Warn("cleaner: pruning failed, falling back to raw HTML", "url", sourceURL, "error", err)
			prunedHTML = filtered
		}
		metaArticle, _ := ExtractContent(filtered, sourceURL)
		article = readability.Article{
			Title:       metaArticle.Title,
			Byline:      metaArticle.Byline,
			Excerpt:     metaArticle.Excerpt,
			SiteName:    metaArticle.SiteName,
			Language:    metaArticle.Language,
			Content:     prunedHTML,
			TextContent: stripTags(prunedHTML),
		}

	case ExtractAuto:
		article = autoExtract(filtered, sourceURL)

	default:
		article, _ = ExtractContent(filtered, sourceURL)
	}

	markdown, err := ToMarkdown(c.mdConverter, article.Content, sourceURL)
	if err != nil {
		return nil, models.NewError(models.ErrContent, "markdown conversion failed", err)
	}

	return &Result{
		Markdown: markdown,
		HTML:     article.Content,
		Text:     article.TextContent,
		Metadata: models.Metadata{
			Title:       article.Title,
			Description: article.Excerpt,
			SiteName:    article.SiteName,
			Author:      article.Byline,
			Language:    article.Language,
			SourceURL:   sourceURL,
		},
		Tokens: EstimateTokenInfo(rawHTML, markdown),
	}, nil
}

// autoExtract runs both readability and pruning concurrently and picks the
// result with more extracted text content.
func autoExtract(rawHTML, sourceURL string) readability.Article {
	var (
		readabilityArticle readability.Article
		prunedHTML         string
		pruneErr           error
	)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		readabilityArticle, _ = ExtractContent(rawHTML, sourceURL)
	}()

	go func() {
		defer wg.Done()
		prunedHTML, pruneErr = PruneContent(rawHTML, sourceURL)
	}()

	wg.Wait()

	if pruneErr != nil {
		slog.Warn("cleaner: auto mode, pruning failed, using readability result", "url", sourceURL, "error", pruneErr)
		return readabilityArticle
	}

	prunedText := stripTags(prunedHTML)
	readabilityText := strings.TrimSpace(readabilityArticle.TextContent)

	useReadability := len(readabilityText) >= len(prunedText)

	if useReadability && len(prunedText) > minContentLength {
		if len(readabilityText) > 10*len(prunedText) {
			useReadability = false
		}
	} else if !useReadability && len(readabilityText) > minContentLength {
		if len(prunedText) > 10*len(readabilityText) {
			useReadability = true
		}
	}

	if useReadability {
		return readabilityArticle
	}

	return readability.Article{
		Title:       readabilityArticle.Title,
		Byline:      readabilityArticle.Byline,
		Excerpt:     readabilityArticle.Excerpt,
		SiteName:    readabilityArticle.SiteName,
		Language:    readabilityArticle.Language,
		Content:     prunedHTML,
		TextContent: prunedText,
	}
}

// stripTags extracts visible text from an HTML fragment via goquery.
func stripTags(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}
