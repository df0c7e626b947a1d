package ocr

import (
	"context"
	"image"

	"github.com/rs/zerolog"

	"planner/pkg/logger"
	"planner/pkg/textline"
	"planner/pkg/textnorm"
)

// Orchestrator runs OCR for documents without a usable text layer. Remote
// results win whenever they are non-empty; otherwise the local engine reads
// the rasterized pages.
type Orchestrator struct {
	raster PageRasterizer
	remote RemoteOCR
	local  *LocalEngine
	log    zerolog.Logger
}

// NewOrchestrator wires the OCR chain. remote may be nil.
func NewOrchestrator(raster PageRasterizer, remote RemoteOCR, local *LocalEngine) *Orchestrator {
	return &Orchestrator{raster: raster, remote: remote, local: local, log: logger.WithComponent("ocr")}
}

func (o *Orchestrator) Detect(ctx context.Context, doc *textline.Document) ([]textline.Line, error) {
	pages := o.raster.Rasterize(ctx, doc)

	if o.remote != nil {
		if remote := o.remote.Detect(ctx, doc); len(remote) > 0 {
			lines := remoteToLines(remote, pages)
			o.log.Info().Int("lines", len(lines)).Int("pages", len(pages)).Msg("using remote ocr lines")
			return lines, nil
		}
	}

	if len(pages) == 0 || o.local == nil {
		o.log.Info().Str("file", doc.Name).Msg("no page images for local ocr")
		return nil, nil
	}
	return o.local.DetectPages(ctx, pages)
}

// remoteToLines normalizes remote regions and runs the strikethrough test on
// the matching page raster when one exists.
func remoteToLines(remote []RemoteLine, pages []*image.Gray) []textline.Line {
	out := make([]textline.Line, 0, len(remote))
	for _, r := range remote {
		text := textnorm.Normalize(r.Text)
		if text == "" {
			continue
		}
		line := textline.Line{Text: text, Page: r.Page, Source: textline.SourceRemote}
		if len(r.Vertices) > 0 && r.Page >= 0 && r.Page < len(pages) {
			page := pages[r.Page]
			box := NormalizedToPixels(r.Vertices, page.Bounds().Dx(), page.Bounds().Dy())
			line.Box = &box
			line.Crossed = IsStruck(page, box)
		}
		out = append(out, line)
	}
	return out
}
