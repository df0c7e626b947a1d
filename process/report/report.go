package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"planner/models"
)

// MonthRange returns [start, end) in UTC for a YYYY-MM month.
func MonthRange(month string) (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

// StatusLine is one row of the per-status summary.
type StatusLine struct {
	Status string
	Count  int64
	Tasks  int64
}

// Run prints a month-bounded ingestion report for userID and optionally lists
// the ingestions themselves.
func Run(ctx context.Context, db *gorm.DB, w io.Writer, userID, month string, list bool) error {
	start, end, err := MonthRange(month)
	if err != nil {
		return err
	}
	var user models.User
	if err := db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	rows, err := db.WithContext(ctx).Raw(`SELECT status, COUNT(*), COALESCE(SUM(parsed_task_count),0) FROM pdf_ingestions WHERE user_id = ? AND created_at >= ? AND created_at < ? GROUP BY status ORDER BY status`, user.ID, start, end).Rows()
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	var lines []StatusLine
	for rows.Next() {
		var l StatusLine
		if err := rows.Scan(&l.Status, &l.Count, &l.Tasks); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	Write(w, user.Email, month, lines)

	if list {
		var ings []models.PDFIngestion
		if err := db.WithContext(ctx).Where("user_id = ? AND created_at >= ? AND created_at < ?", user.ID, start, end).Order("created_at").Find(&ings).Error; err != nil {
			return fmt.Errorf("fetch rows failed: %w", err)
		}
		for _, ing := range ings {
			msg := ""
			if ing.ErrorMessage != nil {
				msg = *ing.ErrorMessage
			}
			fmt.Fprintf(w, "%s|%s|%s|%d|%s|%s\n", ing.ID, ing.OriginalFilename, ing.Status, ing.ParsedTaskCount, ing.CreatedAt.Format(time.RFC3339), msg)
		}
	}
	return nil
}

// Write renders the summary block.
func Write(w io.Writer, email, month string, lines []StatusLine) {
	var total, tasks int64
	fmt.Fprintf(w, "Ingestion report for user=%s month=%s (UTC):\n", email, month)
	for _, l := range lines {
		fmt.Fprintf(w, "  %-8s ingestions=%d tasks=%d\n", l.Status, l.Count, l.Tasks)
		total += l.Count
		tasks += l.Tasks
	}
	fmt.Fprintf(w, "  total    ingestions=%d tasks=%d\n", total, tasks)
}
