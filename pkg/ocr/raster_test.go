package ocr

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/disintegration/imaging"

	"planner/pkg/config"
	"planner/pkg/textline"
)

type fakeRunner struct {
	pages int
	err   error
	calls [][]string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return nil, []byte("boom"), f.err
	}
	prefix := args[len(args)-1]
	for i := 1; i <= f.pages; i++ {
		img := imaging.New(40+i, 30, color.NRGBA{200, 200, 200, 255})
		if err := imaging.Save(img, fmt.Sprintf("%s-%d.png", prefix, i)); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func TestRasterizeDecodesPagesInOrder(t *testing.T) {
	runner := &fakeRunner{pages: 3}
	r := NewRasterizerWithRunner(config.OCRConfig{DPI: 150}, runner)
	pages := r.Rasterize(context.Background(), &textline.Document{Name: "a.pdf", Data: []byte("%PDF-fake")})
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages got %d", len(pages))
	}
	for i, p := range pages {
		if p.Bounds().Dx() != 41+i {
			t.Fatalf("page %d out of order: width %d", i, p.Bounds().Dx())
		}
		if p.Pix[0] != 200 {
			t.Fatalf("expected gray value 200, got %d", p.Pix[0])
		}
	}
	call := runner.calls[0]
	if call[0] != "pdftoppm" || call[1] != "-r" || call[2] != "150" || call[3] != "-png" {
		t.Fatalf("unexpected command %v", call)
	}
}

func TestRasterizeFailureYieldsNoPages(t *testing.T) {
	r := NewRasterizerWithRunner(config.OCRConfig{}, &fakeRunner{err: errors.New("exit 1")})
	if pages := r.Rasterize(context.Background(), &textline.Document{Name: "bad.pdf"}); pages != nil {
		t.Fatalf("expected nil pages, got %d", len(pages))
	}
}

func TestRasterizeNoOutputYieldsNoPages(t *testing.T) {
	r := NewRasterizerWithRunner(config.OCRConfig{}, &fakeRunner{})
	if pages := r.Rasterize(context.Background(), &textline.Document{Name: "empty.pdf"}); len(pages) != 0 {
		t.Fatalf("expected no pages, got %d", len(pages))
	}
}

func TestSortPageFiles(t *testing.T) {
	files := []string{
		filepath.Join("t", "page-10.png"),
		filepath.Join("t", "page-2.png"),
		filepath.Join("t", "page-01.png"),
	}
	sortPageFiles(files)
	want := []string{
		filepath.Join("t", "page-01.png"),
		filepath.Join("t", "page-2.png"),
		filepath.Join("t", "page-10.png"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("got %v want %v", files, want)
	}
}
