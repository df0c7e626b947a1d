package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"planner/pkg/config"
	"planner/pkg/logger"
	"planner/pkg/metrics"
	"planner/pkg/textline"
)

// NormalizedVertex is a polygon corner in page-relative [0,1] coordinates.
type NormalizedVertex struct {
	X, Y float64
}

// RemoteLine is a text region reported by the remote OCR service.
type RemoteLine struct {
	Text     string
	Page     int
	Vertices []NormalizedVertex
}

// RemoteOCR detects text regions remotely. Failures and missing configuration
// both yield no lines.
type RemoteOCR interface {
	Detect(ctx context.Context, doc *textline.Document) []RemoteLine
}

type documentProcessor interface {
	Process(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.Document, error)
	Close() error
}

type gcpProcessor struct {
	client *documentai.DocumentProcessorClient
}

func (p gcpProcessor) Process(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.Document, error) {
	resp, err := p.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.GetDocument(), nil
}

func (p gcpProcessor) Close() error { return p.client.Close() }

// DocumentAI is the Google Document AI adapter.
type DocumentAI struct {
	cfg  config.DocumentAIConfig
	dial func(ctx context.Context) (documentProcessor, error)
	log  zerolog.Logger
}

func NewDocumentAI(cfg config.DocumentAIConfig) *DocumentAI {
	d := &DocumentAI{cfg: cfg, log: logger.WithComponent("document-ai")}
	d.dial = d.dialGCP
	return d
}

func (d *DocumentAI) dialGCP(ctx context.Context) (documentProcessor, error) {
	opts := []option.ClientOption{option.WithCredentialsFile(d.cfg.CredentialsPath)}
	if d.cfg.Location != "" && d.cfg.Location != "us" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", d.cfg.Location)))
	}
	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return gcpProcessor{client: client}, nil
}

func (d *DocumentAI) processorName() string {
	loc := d.cfg.Location
	if loc == "" {
		loc = "us"
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", d.cfg.ProjectID, loc, d.cfg.ProcessorID)
}

func (d *DocumentAI) Detect(ctx context.Context, doc *textline.Document) []RemoteLine {
	if !d.cfg.Enabled() {
		metrics.DocumentAICall("skipped")
		return nil
	}
	lines, err := d.detect(ctx, doc)
	if err != nil {
		d.log.Warn().Err(err).Str("code", status.Code(err).String()).Str("file", doc.Name).Msg("document ai failed, falling back to local ocr")
		metrics.DocumentAICall(outcomeFor(err))
		return nil
	}
	metrics.DocumentAICall("ok")
	return lines
}

func (d *DocumentAI) detect(ctx context.Context, doc *textline.Document) ([]RemoteLine, error) {
	const op = "DocumentAI.Detect"
	timeout := d.cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := d.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: create client: %w", op, err)
	}
	defer client.Close()

	req := &documentaipb.ProcessRequest{
		Name: d.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  doc.Data,
				MimeType: "application/pdf",
			},
		},
	}
	result, err := client.Process(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if result == nil {
		return nil, fmt.Errorf("%s: no document in response", op)
	}
	lines := DocumentLines(result)
	d.log.Debug().Int("pages", len(result.GetPages())).Int("lines", len(lines)).Msg("document processed")
	return lines, nil
}

func outcomeFor(err error) string {
	switch status.Code(err) {
	case codes.DeadlineExceeded:
		return "timeout"
	case codes.PermissionDenied, codes.Unauthenticated:
		return "auth"
	case codes.ResourceExhausted:
		return "quota"
	case codes.InvalidArgument:
		return "invalid"
	default:
		if strings.Contains(err.Error(), context.DeadlineExceeded.Error()) {
			return "timeout"
		}
		return "error"
	}
}

// DocumentLines flattens a processed document into regions, preferring line
// layout over paragraph layout per page. Regions without text are dropped.
func DocumentLines(doc *documentaipb.Document) []RemoteLine {
	text := []rune(doc.GetText())
	var out []RemoteLine
	for pageIdx, page := range doc.GetPages() {
		var layouts []*documentaipb.Document_Page_Layout
		if lines := page.GetLines(); len(lines) > 0 {
			for _, l := range lines {
				layouts = append(layouts, l.GetLayout())
			}
		} else {
			for _, p := range page.GetParagraphs() {
				layouts = append(layouts, p.GetLayout())
			}
		}
		for _, layout := range layouts {
			t := strings.TrimSpace(layoutText(layout, text))
			if t == "" {
				continue
			}
			out = append(out, RemoteLine{Text: t, Page: pageIdx, Vertices: layoutVertices(layout)})
		}
	}
	return out
}

// layoutText concatenates the [start,end) rune ranges of the layout's text anchor.
func layoutText(layout *documentaipb.Document_Page_Layout, text []rune) string {
	var b strings.Builder
	for _, seg := range layout.GetTextAnchor().GetTextSegments() {
		start := clampIndex(seg.GetStartIndex(), len(text))
		end := clampIndex(seg.GetEndIndex(), len(text))
		if end > start {
			b.WriteString(string(text[start:end]))
		}
	}
	return b.String()
}

// layoutVertices prefers normalized vertices and otherwise scales absolute
// vertices by 1/1000.
func layoutVertices(layout *documentaipb.Document_Page_Layout) []NormalizedVertex {
	poly := layout.GetBoundingPoly()
	if nv := poly.GetNormalizedVertices(); len(nv) > 0 {
		out := make([]NormalizedVertex, 0, len(nv))
		for _, v := range nv {
			out = append(out, NormalizedVertex{X: float64(v.GetX()), Y: float64(v.GetY())})
		}
		return out
	}
	if vs := poly.GetVertices(); len(vs) > 0 {
		out := make([]NormalizedVertex, 0, len(vs))
		for _, v := range vs {
			out = append(out, NormalizedVertex{X: float64(v.GetX()) / 1000.0, Y: float64(v.GetY()) / 1000.0})
		}
		return out
	}
	return nil
}

func clampIndex(i int64, n int) int {
	if i < 0 {
		return 0
	}
	if i > int64(n) {
		return n
	}
	return int(i)
}
