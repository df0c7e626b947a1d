// Package textline holds the line and document types shared by every
// detector in the ingestion pipeline.
package textline

import (
	"context"
	"image"
)

// Line sources, also used as metric labels.
const (
	SourceNative       = "native"
	SourceRemote       = "remote"
	SourceLocalPrimary = "local-primary"
	SourceLocalLegacy  = "local-legacy"
)

// BBox is an axis-aligned pixel box, X2/Y2 exclusive.
type BBox struct {
	X1, Y1, X2, Y2 int
}

func (b BBox) Width() int  { return b.X2 - b.X1 }
func (b BBox) Height() int { return b.Y2 - b.Y1 }

// Union returns the smallest box containing b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		X1: min(b.X1, o.X1),
		Y1: min(b.Y1, o.Y1),
		X2: max(b.X2, o.X2),
		Y2: max(b.Y2, o.Y2),
	}
}

// BoxFromRect converts an image rectangle.
func BoxFromRect(r image.Rectangle) BBox {
	return BBox{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// BoxFromPoints returns the axis-aligned box spanning the extrema of pts.
func BoxFromPoints(pts []image.Point) BBox {
	if len(pts) == 0 {
		return BBox{}
	}
	b := BBox{X1: pts[0].X, Y1: pts[0].Y, X2: pts[0].X, Y2: pts[0].Y}
	for _, p := range pts[1:] {
		b.X1 = min(b.X1, p.X)
		b.Y1 = min(b.Y1, p.Y)
		b.X2 = max(b.X2, p.X)
		b.Y2 = max(b.Y2, p.Y)
	}
	return b
}

// Line is one candidate task line. Page and Box are only set for OCR output.
type Line struct {
	Text    string
	Crossed bool
	Page    int
	Box     *BBox
	Source  string
}

// Document is an uploaded file held in memory for the pipeline.
type Document struct {
	Name string
	Data []byte
}

// LineDetector turns a document into lines. An empty result without an error
// means the detector found nothing and the next one should be tried.
type LineDetector interface {
	Detect(ctx context.Context, doc *Document) ([]Line, error)
}

// Texts returns the text of every line in order.
func Texts(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return out
}
