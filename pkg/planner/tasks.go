package planner

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"planner/models"
)

type TaskInput struct {
	UserID           string  `json:"user_id" binding:"required"`
	Title            string  `json:"title" binding:"required"`
	Notes            *string `json:"notes"`
	ScheduledDate    string  `json:"scheduled_date" binding:"required"`
	EstimatedMinutes *int    `json:"estimated_minutes"`
	Source           string  `json:"source"`
}

// TaskUpdate changes only the fields that are set.
type TaskUpdate struct {
	Title            *string `json:"title"`
	Notes            *string `json:"notes"`
	ScheduledDate    *string `json:"scheduled_date"`
	EstimatedMinutes *int    `json:"estimated_minutes"`
	Status           *string `json:"status"`
}

type CarryForwardInput struct {
	UserID   string `json:"user_id" binding:"required"`
	FromDate string `json:"from_date" binding:"required"`
	ToDate   string `json:"to_date"`
}

var taskStatuses = map[string]bool{
	models.TaskStatusPending:  true,
	models.TaskStatusComplete: true,
	models.TaskStatusDeferred: true,
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < 3 || n > 512 {
		return &ValidationError{Field: "title", Reason: "must be between 3 and 512 characters"}
	}
	return nil
}

func validateMinutes(m *int) error {
	if m != nil && (*m < 5 || *m > 480) {
		return &ValidationError{Field: "estimated_minutes", Reason: "must be between 5 and 480"}
	}
	return nil
}

func (s *Service) CreateTask(ctx context.Context, in TaskInput) (*models.Task, error) {
	const op = "planner.CreateTask"
	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateMinutes(in.EstimatedMinutes); err != nil {
		return nil, err
	}
	day, err := ParseDate("scheduled_date", in.ScheduledDate)
	if err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, in.UserID); err != nil {
		return nil, wrap(op, err)
	}
	source := in.Source
	if source == "" {
		source = models.TaskSourceManual
	}
	task := models.Task{
		UserID:           in.UserID,
		Title:            title,
		Notes:            in.Notes,
		ScheduledDate:    day,
		EstimatedMinutes: in.EstimatedMinutes,
		Status:           models.TaskStatusPending,
		Source:           source,
	}
	if err := s.db.WithContext(ctx).Omit("User").Create(&task).Error; err != nil {
		return nil, wrap(op, err)
	}
	return &task, nil
}

// ListTasks returns the user's tasks for a day in creation order.
func (s *Service) ListTasks(ctx context.Context, userID, scheduledDate string) ([]models.Task, error) {
	const op = "planner.ListTasks"
	day, err := ParseDate("scheduled_date", scheduledDate)
	if err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, wrap(op, err)
	}
	out, err := s.tasksForDay(ctx, userID, day.Format(dateLayout))
	return out, wrap(op, err)
}

func (s *Service) tasksForDay(ctx context.Context, userID, day string) ([]models.Task, error) {
	var out []models.Task
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND scheduled_date = ?", userID, day).
		Order("created_at").
		Find(&out).Error
	return out, err
}

func (s *Service) UpdateTask(ctx context.Context, id string, in TaskUpdate) (*models.Task, error) {
	const op = "planner.UpdateTask"
	changes := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		changes["title"] = title
	}
	if in.Notes != nil {
		changes["notes"] = *in.Notes
	}
	if in.ScheduledDate != nil {
		day, err := ParseDate("scheduled_date", *in.ScheduledDate)
		if err != nil {
			return nil, err
		}
		changes["scheduled_date"] = day
	}
	if in.EstimatedMinutes != nil {
		if err := validateMinutes(in.EstimatedMinutes); err != nil {
			return nil, err
		}
		changes["estimated_minutes"] = *in.EstimatedMinutes
	}
	if in.Status != nil {
		if !taskStatuses[*in.Status] {
			return nil, &ValidationError{Field: "status", Reason: "must be one of pending, complete, deferred"}
		}
		changes["status"] = *in.Status
	}

	var task models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&task).Error; err != nil {
			return notFound(err, ErrNotFound)
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&task).Updates(changes).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&task).Error
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return &task, nil
}

// CarryForward moves the pending tasks of FromDate to ToDate, which defaults
// to the following day, and returns the moved tasks.
func (s *Service) CarryForward(ctx context.Context, in CarryForwardInput) ([]models.Task, error) {
	const op = "planner.CarryForward"
	from, err := ParseDate("from_date", in.FromDate)
	if err != nil {
		return nil, err
	}
	to := from.AddDate(0, 0, 1)
	if strings.TrimSpace(in.ToDate) != "" {
		if to, err = ParseDate("to_date", in.ToDate); err != nil {
			return nil, err
		}
	}
	if err := s.requireUser(ctx, in.UserID); err != nil {
		return nil, wrap(op, err)
	}

	var moved []models.Task
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND scheduled_date = ? AND status = ?", in.UserID, FormatDate(from), models.TaskStatusPending).
			Order("created_at").Find(&moved).Error; err != nil {
			return err
		}
		if len(moved) == 0 {
			return nil
		}
		ids := make([]string, len(moved))
		for i := range moved {
			ids[i] = moved[i].ID
			moved[i].ScheduledDate = to
		}
		return tx.Model(&models.Task{}).Where("id IN ?", ids).Update("scheduled_date", to).Error
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	s.log.Info().Str("user_id", in.UserID).Str("from", FormatDate(from)).Str("to", FormatDate(to)).Int("tasks", len(moved)).Msg("tasks carried forward")
	return moved, nil
}
