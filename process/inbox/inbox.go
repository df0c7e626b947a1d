// Package inbox ingests PDFs dropped into a directory, once or continuously.
package inbox

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"planner/pkg/ingest"
	"planner/pkg/logger"
)

const (
	processedDir = "processed"
	failedDir    = "failed"

	debounceTick   = 250 * time.Millisecond
	debounceStable = 300 * time.Millisecond
)

// Ingester is the part of ingest.Service the inbox uses.
type Ingester interface {
	Ingest(ctx context.Context, up ingest.Upload) (*ingest.Result, error)
}

type Options struct {
	Dir           string
	UserID        string
	ScheduledDate time.Time
	Workers       int
	Watch         bool
}

// Summary counts what a run did.
type Summary struct {
	Processed int
	Failed    int
	Tasks     int
}

type runner struct {
	ing  Ingester
	opts Options
	log  zerolog.Logger

	mu  sync.Mutex
	sum Summary
}

// Run ingests every PDF in opts.Dir. With Watch set it keeps ingesting new
// files until ctx is cancelled. Files are moved to processed/ or failed/.
func Run(ctx context.Context, ing Ingester, opts Options) (Summary, error) {
	if opts.UserID == "" {
		return Summary{}, fmt.Errorf("inbox: user id is required")
	}
	if opts.ScheduledDate.IsZero() {
		now := time.Now().UTC()
		opts.ScheduledDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	r := &runner{ing: ing, opts: opts, log: logger.WithComponent("inbox")}

	files := listPDFs(opts.Dir)
	r.log.Info().Str("dir", opts.Dir).Int("files", len(files)).Int("workers", opts.Workers).Msg("scanning inbox")

	initial := make(chan string, len(files))
	for _, f := range files {
		initial <- f
	}
	close(initial)
	r.pool(ctx, initial)

	if opts.Watch {
		if err := r.watch(ctx); err != nil {
			return r.summary(), err
		}
	}
	return r.summary(), nil
}

func (r *runner) summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sum
}

// pool drains names with opts.Workers goroutines and returns when names is
// closed and all workers are done.
func (r *runner) pool(ctx context.Context, names <-chan string) {
	var wg sync.WaitGroup
	for i := 0; i < r.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range names {
				if ctx.Err() != nil {
					continue
				}
				r.processFile(ctx, name)
			}
		}()
	}
	wg.Wait()
}

func (r *runner) processFile(ctx context.Context, name string) {
	full := filepath.Join(r.opts.Dir, name)
	data, err := os.ReadFile(full)
	if err != nil {
		r.log.Warn().Err(err).Str("file", name).Msg("read failed")
		return
	}
	res, err := r.ing.Ingest(ctx, ingest.Upload{
		UserID:        r.opts.UserID,
		Filename:      name,
		Data:          data,
		ScheduledDate: r.opts.ScheduledDate,
	})

	dest := processedDir
	r.mu.Lock()
	if err != nil {
		dest = failedDir
		r.sum.Failed++
	} else {
		r.sum.Processed++
		r.sum.Tasks += len(res.TasksCreated)
	}
	r.mu.Unlock()

	if err != nil {
		r.log.Warn().Err(err).Str("file", name).Msg("ingestion failed")
	} else {
		r.log.Info().Str("file", name).Str("ingestion_id", res.Ingestion.ID).Int("tasks", len(res.TasksCreated)).Msg("ingested")
	}
	if err := moveFile(full, filepath.Join(r.opts.Dir, dest), name); err != nil {
		r.log.Warn().Err(err).Str("file", name).Msg("failed to move file")
	}
}

func (r *runner) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(r.opts.Dir); err != nil {
		return err
	}
	r.log.Info().Str("dir", r.opts.Dir).Msg("watching inbox")

	names := make(chan string, 256)
	done := make(chan struct{})
	go func() {
		r.pool(ctx, names)
		close(done)
	}()
	defer func() {
		close(names)
		<-done
	}()

	// files are handed over once no event touched them for debounceStable
	pending := map[string]time.Time{}
	ticker := time.NewTicker(debounceTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if filepath.Dir(ev.Name) != filepath.Clean(r.opts.Dir) {
				continue
			}
			if name := filepath.Base(ev.Name); isPDF(name) {
				pending[name] = time.Now()
			}
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) > debounceStable {
					delete(pending, name)
					select {
					case names <- name:
					case <-ctx.Done():
						return nil
					}
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func listPDFs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isPDF(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

// isPDF skips hidden and partially written files.
func isPDF(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.ToLower(filepath.Ext(name)) == ".pdf"
}

// moveFile moves src into dir/name, falling back to copy and remove when a
// rename is not possible.
func moveFile(src, dir, name string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(dir, name)
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
