package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"planner/pkg/logger"
	"planner/pkg/textline"
	"planner/pkg/textnorm"
)

// Region is raw reader output for one line of a page.
type Region struct {
	Text string
	Box  textline.BBox
}

// PageReader recognises text lines on a single page image.
type PageReader interface {
	Name() string
	ReadPage(ctx context.Context, page *image.Gray) ([]Region, error)
}

// TesseractLines reads whole text lines with their bounding boxes.
type TesseractLines struct {
	Lang string
}

func (TesseractLines) Name() string { return textline.SourceLocalPrimary }

func (t TesseractLines) ReadPage(ctx context.Context, page *image.Gray) ([]Region, error) {
	client, err := newTesseract(page, t.Lang)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract lines: %w", err)
	}
	var out []Region
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		out = append(out, Region{Text: text, Box: textline.BoxFromRect(b.Box)})
	}
	return out, nil
}

const (
	binarizeWindow = 31
	binarizeBias   = 10
)

// TesseractWords reads a binarized copy of the page as individual words and groups them by block, paragraph
// and line number.
type TesseractWords struct {
	Lang string
}

func (TesseractWords) Name() string { return textline.SourceLocalLegacy }

func (t TesseractWords) ReadPage(ctx context.Context, page *image.Gray) ([]Region, error) {
	client, err := newTesseract(Binarize(page, binarizeWindow, binarizeBias), t.Lang)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	boxes, err := client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("tesseract words: %w", err)
	}
	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{
			Text:  b.Word,
			Block: b.BlockNum,
			Par:   b.ParNum,
			Line:  b.LineNum,
			Box:   textline.BoxFromRect(b.Box),
		})
	}
	return GroupWords(words), nil
}

// Word is one recognised word with its layout indices.
type Word struct {
	Text             string
	Block, Par, Line int
	Box              textline.BBox
}

// GroupWords joins words sharing (block, paragraph, line) into one region,
// keeping first-seen order. The region box is the union of its words.
func GroupWords(words []Word) []Region {
	type key struct{ block, par, line int }
	type bucket struct {
		parts []string
		box   textline.BBox
	}
	var order []key
	buckets := map[key]*bucket{}
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		k := key{w.Block, w.Par, w.Line}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{box: w.Box}
			buckets[k] = b
			order = append(order, k)
		}
		b.parts = append(b.parts, text)
		b.box = b.box.Union(w.Box)
	}
	out := make([]Region, 0, len(order))
	for _, k := range order {
		b := buckets[k]
		out = append(out, Region{Text: strings.Join(b.parts, " "), Box: b.box})
	}
	return out
}

func newTesseract(page *image.Gray, lang string) (*gosseract.Client, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, page, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode page: %w", err)
	}
	client := gosseract.NewClient()
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// LocalEngine runs page readers over rasterized pages. For each page the
// first reader that returns anything wins.
type LocalEngine struct {
	readers []PageReader
	workers int
	log     zerolog.Logger
}

// NewLocalEngine builds an engine trying readers in order. With no readers it
// uses tesseract line boxes, then tesseract word boxes.
func NewLocalEngine(lang string, workers int, readers ...PageReader) *LocalEngine {
	if len(readers) == 0 {
		readers = []PageReader{TesseractLines{Lang: lang}, TesseractWords{Lang: lang}}
	}
	return &LocalEngine{readers: readers, workers: max(1, workers), log: logger.WithComponent("ocr-local")}
}

// DetectPages returns lines for all pages in page order.
func (e *LocalEngine) DetectPages(ctx context.Context, pages []*image.Gray) ([]textline.Line, error) {
	results := make([][]textline.Line, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, page := range pages {
		g.Go(func() error {
			lines, err := e.detectPage(gctx, i, page)
			results[i] = lines
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []textline.Line
	for _, lines := range results {
		out = append(out, lines...)
	}
	return out, nil
}

func (e *LocalEngine) detectPage(ctx context.Context, idx int, page *image.Gray) ([]textline.Line, error) {
	for _, r := range e.readers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		regions, err := r.ReadPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %s: %w", idx+1, r.Name(), err)
		}
		if len(regions) == 0 {
			continue
		}
		var lines []textline.Line
		for _, reg := range regions {
			text := textnorm.Normalize(reg.Text)
			if text == "" {
				continue
			}
			box := reg.Box
			lines = append(lines, textline.Line{
				Text:    text,
				Crossed: IsStruck(page, box),
				Page:    idx,
				Box:     &box,
				Source:  r.Name(),
			})
		}
		e.log.Debug().Int("page", idx+1).Str("reader", r.Name()).Int("lines", len(lines)).Msg("page read")
		return lines, nil
	}
	return nil, nil
}
