// Package planner holds the day-planning features around the PDF pipeline:
// onboarding, tasks, availability, daily briefs and recommendations.
package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"planner/pkg/llm"
	"planner/pkg/logger"
)

var (
	ErrUserNotFound = errors.New("User not found")
	ErrNoGoal       = errors.New("User has not set a goal yet")
	ErrNotFound     = errors.New("not found")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Reason }

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar day as UTC midnight.
func ParseDate(field, s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Reason: "must be a date in YYYY-MM-DD format"}
	}
	return d, nil
}

// FormatDate renders a calendar day.
func FormatDate(t time.Time) string { return t.Format(dateLayout) }

// Service implements the planner features on gorm. The completer is optional.
type Service struct {
	db  *gorm.DB
	llm llm.Completer
	now func() time.Time
	log zerolog.Logger
}

func New(db *gorm.DB, completer llm.Completer) *Service {
	if c, ok := completer.(*llm.Client); ok && c == nil {
		completer = nil
	}
	return &Service{
		db:  db,
		llm: completer,
		now: func() time.Time { return time.Now().UTC() },
		log: logger.WithComponent("planner"),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoGoal) || errors.As(err, &ve) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
