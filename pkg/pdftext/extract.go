// Package pdftext reads the embedded text layer of a PDF.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"planner/pkg/logger"
	"planner/pkg/textline"
	"planner/pkg/textnorm"
)

// leadingMarker strips bullets and numbering ahead of the line body.
var (
	leadingMarker = regexp.MustCompile(`^[\-\x{2022}\*\d\)\(\.\s]*(.+)$`)
	lineBreak     = regexp.MustCompile(`\r\n|[\n\r\f\v\x{1c}\x{1d}\x{1e}\x{85}\x{2028}\x{2029}]`)
)

// Extractor implements textline.LineDetector over the text layer. It never sets
// Crossed since there is no imagery to inspect.
type Extractor struct {
	log zerolog.Logger
}

func New() *Extractor {
	return &Extractor{log: logger.WithComponent("pdftext")}
}

// Detect returns an empty slice when the document has no text layer. A
// document that cannot be parsed as PDF is an error.
func (e *Extractor) Detect(ctx context.Context, doc *textline.Document) (lines []textline.Line, err error) {
	// ledongthuc/pdf panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("pdftext: malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, fmt.Errorf("pdftext: open %s: %w", doc.Name, err)
	}
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			e.log.Debug().Err(err).Int("page", i).Msg("no text on page")
			continue
		}
		lines = append(lines, SplitLines(text)...)
	}
	e.log.Debug().Str("file", doc.Name).Int("pages", r.NumPage()).Int("lines", len(lines)).Msg("text layer read")
	return lines, nil
}

// SplitLines turns page text into normalized native lines.
func SplitLines(text string) []textline.Line {
	var out []textline.Line
	for _, raw := range lineBreak.Split(text, -1) {
		m := leadingMarker.FindStringSubmatch(strings.TrimSpace(raw))
		if m == nil {
			continue
		}
		if norm := textnorm.Normalize(m[1]); norm != "" {
			out = append(out, textline.Line{Text: norm, Source: textline.SourceNative})
		}
	}
	return out
}
