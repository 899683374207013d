package strategy

import (
	"bytes"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// renderPDFText gives the browser strategy a pdf-parse capability: print the
// current page to PDF via CDP, then pull a light text layer back out by
// asking the page to re-serialize its own visible text (a real PDF text
// extractor is out of scope for a strategy whose real contribution is
// rendering, not parsing — the text layer is a best-effort convenience,
// the PDF bytes themselves are not retained).
func renderPDFText(p *rod.Page) (string, error) {
	reader, err := p.PDF(&proto.PagePrintToPDF{})
	if err != nil {
		return "", fmt.Errorf("pdf: print to pdf: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("pdf: read stream: %w", err)
	}

	res, err := p.Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return "", fmt.Errorf("pdf: extract text layer: %w", err)
	}
	return res.Value.Str(), nil
}
