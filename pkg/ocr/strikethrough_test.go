package ocr

import (
	"image"
	"testing"

	"planner/pkg/textline"
)

func whitePage(w, h int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	return g
}

func fillRows(g *image.Gray, x1, x2, y1, y2 int, v uint8) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			g.Pix[g.PixOffset(x, y)] = v
		}
	}
}

func TestIsStruckDetectsLowStroke(t *testing.T) {
	page := whitePage(300, 100)
	// box 0..200 x 0..50: band rows 39..42
	fillRows(page, 0, 200, 38, 44, 0)
	if !IsStruck(page, textline.BBox{X1: 0, Y1: 0, X2: 200, Y2: 50}) {
		t.Fatalf("expected struck line")
	}
}

func TestIsStruckIgnoresPlainText(t *testing.T) {
	page := whitePage(300, 100)
	// glyph-like marks in the upper half only
	for x := 10; x < 190; x += 12 {
		fillRows(page, x, x+4, 10, 30, 0)
	}
	if IsStruck(page, textline.BBox{X1: 0, Y1: 0, X2: 200, Y2: 50}) {
		t.Fatalf("plain text must not be struck")
	}
}

func TestIsStruckRequiresWideBox(t *testing.T) {
	page := whitePage(100, 100)
	fillRows(page, 0, 20, 38, 44, 0)
	if IsStruck(page, textline.BBox{X1: 0, Y1: 0, X2: 20, Y2: 50}) {
		t.Fatalf("aspect ratio 5 must not count as struck")
	}
}

func TestIsStruckDegenerateBoxes(t *testing.T) {
	page := whitePage(100, 100)
	fillRows(page, 0, 100, 0, 100, 0)
	cases := map[string]textline.BBox{
		"zero width":  {X1: 10, Y1: 10, X2: 10, Y2: 40},
		"zero height": {X1: 0, Y1: 10, X2: 90, Y2: 10},
		"thin band":   {X1: 0, Y1: 0, X2: 90, Y2: 10},
	}
	for name, box := range cases {
		if IsStruck(page, box) {
			t.Fatalf("%s: expected not struck", name)
		}
	}
	if IsStruck(nil, textline.BBox{X2: 10, Y2: 10}) {
		t.Fatalf("nil page must not be struck")
	}
}

func TestIsStruckOutOfBoundsBox(t *testing.T) {
	page := whitePage(100, 40)
	// band falls entirely below the page
	if IsStruck(page, textline.BBox{X1: 0, Y1: 30, X2: 90, Y2: 80}) {
		t.Fatalf("band outside page must not be struck")
	}
}

func TestNormalizedToPixels(t *testing.T) {
	verts := []NormalizedVertex{{0.25, 0.25}, {0.75, 0.25}, {0.75, 0.5}, {0.25, 0.5}}
	got := NormalizedToPixels(verts, 1000, 400)
	want := textline.BBox{X1: 250, Y1: 100, X2: 750, Y2: 200}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}

	clamped := NormalizedToPixels([]NormalizedVertex{{-0.5, -1}, {1.5, 2}}, 200, 100)
	if clamped != (textline.BBox{X1: 0, Y1: 0, X2: 200, Y2: 100}) {
		t.Fatalf("clamping failed: %+v", clamped)
	}

	if full := NormalizedToPixels(nil, 640, 480); full != (textline.BBox{X2: 640, Y2: 480}) {
		t.Fatalf("no vertices should map to the full page, got %+v", full)
	}
}
