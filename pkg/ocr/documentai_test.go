package ocr

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"planner/pkg/config"
	"planner/pkg/textline"
)

func segment(start, end int64) *documentaipb.Document_TextAnchor {
	return &documentaipb.Document_TextAnchor{
		TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
	}
}

func sampleDocument() *documentaipb.Document {
	return &documentaipb.Document{
		Text: "Café run\nCall mom\nSend CV\n",
		Pages: []*documentaipb.Document_Page{
			{
				Lines: []*documentaipb.Document_Page_Line{
					{Layout: &documentaipb.Document_Page_Layout{
						TextAnchor: segment(0, 9),
						BoundingPoly: &documentaipb.BoundingPoly{NormalizedVertices: []*documentaipb.NormalizedVertex{
							{X: 0.25, Y: 0.25}, {X: 0.75, Y: 0.5},
						}},
					}},
					{Layout: &documentaipb.Document_Page_Layout{TextAnchor: segment(9, 18)}},
				},
				Paragraphs: []*documentaipb.Document_Page_Paragraph{
					{Layout: &documentaipb.Document_Page_Layout{TextAnchor: segment(0, 18)}},
				},
			},
			{
				Paragraphs: []*documentaipb.Document_Page_Paragraph{
					{Layout: &documentaipb.Document_Page_Layout{
						TextAnchor: segment(18, 26),
						BoundingPoly: &documentaipb.BoundingPoly{Vertices: []*documentaipb.Vertex{
							{X: 100, Y: 200}, {X: 500, Y: 250},
						}},
					}},
					{Layout: &documentaipb.Document_Page_Layout{TextAnchor: segment(26, 90)}},
				},
			},
		},
	}
}

func TestDocumentLines(t *testing.T) {
	lines := DocumentLines(sampleDocument())
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines got %d: %+v", len(lines), lines)
	}
	if lines[0].Text != "Café run" || lines[0].Page != 0 || len(lines[0].Vertices) != 2 {
		t.Fatalf("unexpected first line %+v", lines[0])
	}
	if lines[1].Text != "Call mom" || lines[1].Vertices != nil {
		t.Fatalf("unexpected second line %+v", lines[1])
	}
	third := lines[2]
	if third.Text != "Send CV" || third.Page != 1 {
		t.Fatalf("paragraph fallback failed: %+v", third)
	}
	if third.Vertices[0] != (NormalizedVertex{X: 0.1, Y: 0.2}) {
		t.Fatalf("absolute vertices should be scaled by 1/1000, got %+v", third.Vertices[0])
	}
}

func anchor(spans ...[2]int64) *documentaipb.Document_TextAnchor {
	a := &documentaipb.Document_TextAnchor{}
	for _, sp := range spans {
		a.TextSegments = append(a.TextSegments, &documentaipb.Document_TextAnchor_TextSegment{StartIndex: sp[0], EndIndex: sp[1]})
	}
	return a
}

func TestDocumentLinesJoinsSegmentsAndClamps(t *testing.T) {
	doc := &documentaipb.Document{
		Text: "Buy eggs then milk",
		Pages: []*documentaipb.Document_Page{{
			Lines: []*documentaipb.Document_Page_Line{
				{Layout: &documentaipb.Document_Page_Layout{TextAnchor: anchor([2]int64{0, 4}, [2]int64{14, 18})}},
				{Layout: &documentaipb.Document_Page_Layout{TextAnchor: anchor([2]int64{9, 90})}},
				{Layout: &documentaipb.Document_Page_Layout{TextAnchor: anchor([2]int64{40, 50}, [2]int64{6, 2})}},
			},
		}},
	}
	lines := DocumentLines(doc)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines got %d: %+v", len(lines), lines)
	}
	if lines[0].Text != "Buy milk" {
		t.Fatalf("segments should be concatenated in order, got %q", lines[0].Text)
	}
	if lines[1].Text != "then milk" {
		t.Fatalf("an end past the text should be clamped, got %q", lines[1].Text)
	}
}

type fakeProcessor struct {
	doc *documentaipb.Document
	err error
	req *documentaipb.ProcessRequest
}

func (f *fakeProcessor) Process(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.Document, error) {
	f.req = req
	return f.doc, f.err
}

func (f *fakeProcessor) Close() error { return nil }

func enabledDocAI(p documentProcessor) *DocumentAI {
	d := NewDocumentAI(config.DocumentAIConfig{
		ProjectID: "proj", Location: "eu", ProcessorID: "proc", CredentialsPath: "/creds.json",
	})
	d.dial = func(context.Context) (documentProcessor, error) { return p, nil }
	return d
}

func TestDocumentAIDisabledWithoutConfig(t *testing.T) {
	d := NewDocumentAI(config.DocumentAIConfig{ProjectID: "proj"})
	d.dial = func(context.Context) (documentProcessor, error) {
		t.Fatalf("must not dial when disabled")
		return nil, nil
	}
	if lines := d.Detect(context.Background(), &textline.Document{Name: "x.pdf"}); lines != nil {
		t.Fatalf("expected no lines")
	}
}

func TestDocumentAIDetect(t *testing.T) {
	p := &fakeProcessor{doc: sampleDocument()}
	d := enabledDocAI(p)
	lines := d.Detect(context.Background(), &textline.Document{Name: "x.pdf", Data: []byte("%PDF")})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines got %d", len(lines))
	}
	if p.req.GetName() != "projects/proj/locations/eu/processors/proc" {
		t.Fatalf("unexpected processor name %q", p.req.GetName())
	}
	if p.req.GetRawDocument().GetMimeType() != "application/pdf" {
		t.Fatalf("unexpected mime type")
	}
}

func TestDocumentAIFailsOpen(t *testing.T) {
	d := enabledDocAI(&fakeProcessor{err: errors.New("unavailable")})
	if lines := d.Detect(context.Background(), &textline.Document{Name: "x.pdf"}); lines != nil {
		t.Fatalf("expected nil lines on failure")
	}
}
