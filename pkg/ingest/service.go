// Package ingest runs the PDF to tasks pipeline and records its outcome on
// the ingestion row.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"planner/models"
	"planner/pkg/logger"
	"planner/pkg/metrics"
	"planner/pkg/storage"
	"planner/pkg/tasks"
	"planner/pkg/textline"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrNotFound     = errors.New("ingestion not found")
)

// Cleaner repairs line text. It must not fail.
type Cleaner interface {
	Clean(ctx context.Context, lines []string) []string
}

// Upload is one document submitted for ingestion.
type Upload struct {
	UserID        string
	Filename      string
	Data          []byte
	ScheduledDate time.Time
}

// Result is the finalized ingestion and the titles of the tasks it created.
type Result struct {
	Ingestion    *models.PDFIngestion
	TasksCreated []string
}

// Service wires the detectors, cleaner and persistence together.
type Service struct {
	repo      Repository
	blobs     storage.BlobStore
	detectors []textline.LineDetector
	cleaner   Cleaner
	now       func() time.Time
	log       zerolog.Logger
}

// NewService tries detectors in order until one returns lines.
func NewService(repo Repository, blobs storage.BlobStore, cleaner Cleaner, detectors ...textline.LineDetector) *Service {
	return &Service{
		repo:      repo,
		blobs:     blobs,
		detectors: detectors,
		cleaner:   cleaner,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger.WithComponent("ingest"),
	}
}

// Get returns a stored ingestion.
func (s *Service) Get(ctx context.Context, id string) (*models.PDFIngestion, error) {
	return s.repo.GetIngestion(ctx, id)
}

// Ingest runs the pipeline for one upload. Once the ingestion row exists the
// returned Result is always non-nil and its ingestion is terminal, even when
// an error is returned. Tasks created before a failure are kept.
func (s *Service) Ingest(ctx context.Context, up Upload) (*Result, error) {
	const op = "ingest.Ingest"
	start := time.Now()

	ok, err := s.repo.UserExists(ctx, up.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: lookup user: %w", op, err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}

	ing := &models.PDFIngestion{
		ID:               uuid.NewString(),
		UserID:           up.UserID,
		OriginalFilename: up.Filename,
		StoredPath:       "",
		Status:           models.IngestionPending,
	}
	if err := s.repo.CreateIngestion(ctx, ing); err != nil {
		return nil, fmt.Errorf("%s: create ingestion: %w", op, err)
	}
	log := s.log.With().Str("ingestion_id", ing.ID).Str("user_id", up.UserID).Logger()
	log.Info().Str("file", up.Filename).Int("bytes", len(up.Data)).Msg("ingestion started")

	res := &Result{Ingestion: ing}
	if err := s.run(ctx, ing, up, res); err != nil {
		s.fail(ctx, ing, err, log)
		metrics.ObserveIngestion(ing.Status, time.Since(start), 0)
		return res, fmt.Errorf("%s: %w", op, err)
	}
	metrics.ObserveIngestion(ing.Status, time.Since(start), ing.ParsedTaskCount)
	log.Info().Int("tasks", ing.ParsedTaskCount).Dur("took", time.Since(start)).Msg("ingestion parsed")
	return res, nil
}

func (s *Service) run(ctx context.Context, ing *models.PDFIngestion, up Upload, res *Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	path, err := s.blobs.Save(ctx, storage.Key(ing.ID, up.Filename), up.Data)
	if err != nil {
		return fmt.Errorf("store upload: %w", err)
	}
	ing.StoredPath = path

	lines, err := s.detect(ctx, &textline.Document{Name: up.Filename, Data: up.Data})
	if err != nil {
		return err
	}

	rawText := strings.Join(textline.Texts(lines), "\n")
	eligible := make([]string, 0, len(lines))
	for _, l := range lines {
		if !l.Crossed {
			eligible = append(eligible, l.Text)
		}
	}
	cleaned := eligible
	if s.cleaner != nil && len(eligible) > 0 {
		cleaned = s.cleaner.Clean(ctx, eligible)
	}

	for _, c := range tasks.Parse(cleaned) {
		if c.Title == "" {
			continue
		}
		ingID := ing.ID
		task := &models.Task{
			UserID:           up.UserID,
			Title:            c.Title,
			ScheduledDate:    up.ScheduledDate,
			EstimatedMinutes: c.EstimatedMinutes,
			Status:           models.TaskStatusPending,
			Source:           models.TaskSourcePDF,
			PDFIngestionID:   &ingID,
		}
		if err := s.repo.CreateTask(ctx, task); err != nil {
			return fmt.Errorf("create task %q: %w", c.Title, err)
		}
		res.TasksCreated = append(res.TasksCreated, task.Title)
	}

	now := s.now()
	ing.Status = models.IngestionParsed
	ing.ParsedTaskCount = len(res.TasksCreated)
	ing.CompletedAt = &now
	ing.RawText = &rawText
	ing.ErrorMessage = nil
	if err := s.repo.SaveIngestion(ctx, ing); err != nil {
		return fmt.Errorf("save ingestion: %w", err)
	}
	return nil
}

// detect returns the lines of the first detector that finds any.
func (s *Service) detect(ctx context.Context, doc *textline.Document) ([]textline.Line, error) {
	for _, d := range s.detectors {
		lines, err := d.Detect(ctx, doc)
		if err != nil {
			return nil, err
		}
		if len(lines) > 0 {
			metrics.LineSource(lines[0].Source)
			return lines, nil
		}
	}
	metrics.LineSource("none")
	return nil, nil
}

// fail writes the terminal failed state. The save uses a context that outlives
// cancellation of the request so the row never stays pending.
func (s *Service) fail(ctx context.Context, ing *models.PDFIngestion, cause error, log zerolog.Logger) {
	now := s.now()
	msg := cause.Error()
	ing.Status = models.IngestionFailed
	ing.ErrorMessage = &msg
	ing.CompletedAt = &now
	ing.ParsedTaskCount = 0
	if err := s.repo.SaveIngestion(context.WithoutCancel(ctx), ing); err != nil {
		log.Error().Err(err).Msg("could not record failed ingestion")
	}
	log.Warn().Err(cause).Msg("ingestion failed")
}
