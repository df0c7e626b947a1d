// Package retry re-runs failed ingestions from their stored uploads.
package retry

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"planner/models"
	"planner/pkg/ingest"
	"planner/pkg/logger"
)

// Source lists failed ingestions and links them to their retry.
type Source interface {
	FailedIngestions(ctx context.Context, userID string) ([]models.PDFIngestion, error)
	MarkRetried(ctx context.Context, id, retriedBy string) error
}

type Ingester interface {
	Ingest(ctx context.Context, up ingest.Upload) (*ingest.Result, error)
}

// Outcome of one retried ingestion.
type Outcome struct {
	PreviousID string
	NewID      string
	Tasks      int
	Err        error
}

// Run re-ingests each failed ingestion of userID whose upload is on local
// disk. Each retry creates a new ingestion row; the failed one is kept and
// marked retried so later runs skip it. A retry that fails again leaves its
// own row for the next run.
func Run(ctx context.Context, src Source, ing Ingester, userID string, scheduled time.Time) ([]Outcome, error) {
	log := logger.WithComponent("retry")
	failed, err := src.FailedIngestions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list failed ingestions: %w", err)
	}
	var out []Outcome
	for _, f := range failed {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if f.StoredPath == "" || strings.HasPrefix(f.StoredPath, "gs://") {
			log.Info().Str("ingestion_id", f.ID).Str("path", f.StoredPath).Msg("skipping, upload not on local disk")
			continue
		}
		o := Outcome{PreviousID: f.ID}
		data, err := os.ReadFile(f.StoredPath)
		if err != nil {
			o.Err = err
			out = append(out, o)
			log.Warn().Err(err).Str("ingestion_id", f.ID).Msg("read stored upload")
			continue
		}
		res, err := ing.Ingest(ctx, ingest.Upload{UserID: userID, Filename: f.OriginalFilename, Data: data, ScheduledDate: scheduled})
		o.Err = err
		if res != nil {
			o.NewID = res.Ingestion.ID
			o.Tasks = len(res.TasksCreated)
			// the new row replaces this one, failed or not
			if markErr := src.MarkRetried(ctx, f.ID, o.NewID); markErr != nil {
				return append(out, o), fmt.Errorf("mark %s retried: %w", f.ID, markErr)
			}
		}
		out = append(out, o)
		log.Info().Str("ingestion_id", f.ID).Str("new_id", o.NewID).Err(err).Msg("retried")
	}
	return out, nil
}
