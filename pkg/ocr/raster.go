package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog"

	"planner/pkg/config"
	"planner/pkg/logger"
	"planner/pkg/textline"
)

// Runner lets external commands be stubbed in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// PageRasterizer renders every page of a document to grayscale. It never
// fails: an unreadable document yields no pages.
type PageRasterizer interface {
	Rasterize(ctx context.Context, doc *textline.Document) []*image.Gray
}

// Rasterizer renders pages with pdftoppm.
type Rasterizer struct {
	cfg    config.OCRConfig
	runner Runner
	log    zerolog.Logger
}

func NewRasterizer(cfg config.OCRConfig) *Rasterizer {
	return NewRasterizerWithRunner(cfg, execRunner{})
}

func NewRasterizerWithRunner(cfg config.OCRConfig, runner Runner) *Rasterizer {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	// pdfcpu is only used for page counts; keep it from writing a config dir.
	api.DisableConfigDir()
	return &Rasterizer{cfg: cfg, runner: runner, log: logger.WithComponent("raster")}
}

func (r *Rasterizer) Rasterize(ctx context.Context, doc *textline.Document) []*image.Gray {
	pages, err := r.rasterize(ctx, doc)
	if err != nil {
		r.log.Warn().Err(err).Str("file", doc.Name).Msg("rasterization failed, continuing without page images")
		return nil
	}
	return pages
}

func (r *Rasterizer) rasterize(ctx context.Context, doc *textline.Document) ([]*image.Gray, error) {
	start := time.Now()
	tmpDir, err := os.MkdirTemp("", "planner-pp-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	in := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(in, doc.Data, 0o600); err != nil {
		return nil, err
	}

	args := []string{"-r", strconv.Itoa(r.cfg.DPI), "-png"}
	if n, err := api.PageCount(bytes.NewReader(doc.Data), nil); err != nil {
		r.log.Debug().Err(err).Msg("page count unavailable")
	} else if r.cfg.MaxPages > 0 && n > r.cfg.MaxPages {
		r.log.Info().Int("pages", n).Int("max_pages", r.cfg.MaxPages).Msg("limiting rasterized pages")
		args = append(args, "-l", strconv.Itoa(r.cfg.MaxPages))
	}
	prefix := filepath.Join(tmpDir, "page")
	args = append(args, in, prefix)

	if _, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm, args...); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(errb)))
	}

	files, _ := filepath.Glob(prefix + "-*.png")
	if len(files) == 0 {
		return nil, ErrNoPages
	}
	sortPageFiles(files)

	pages := make([]*image.Gray, 0, len(files))
	for _, f := range files {
		img, err := imaging.Open(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(f), err)
		}
		pages = append(pages, toGray(img))
	}
	r.log.Debug().Int("pages", len(pages)).Dur("took", time.Since(start)).Msg("rasterized document")
	return pages, nil
}

// sortPageFiles orders pdftoppm output (page-1.png, page-02.png, ...) by page number.
func sortPageFiles(files []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		n, _ := strconv.Atoi(base[strings.LastIndex(base, "-")+1:])
		return n
	}
	sort.SliceStable(files, func(i, j int) bool { return num(files[i]) < num(files[j]) })
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}
