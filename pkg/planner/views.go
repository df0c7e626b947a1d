package planner

import (
	"time"

	"planner/models"
)

// JSON shapes returned by the HTTP API.

type GoalView struct {
	ID                     uint      `json:"id"`
	GoalStatement          string    `json:"goal_statement"`
	TargetRole             *string   `json:"target_role"`
	Industry               *string   `json:"industry"`
	SkillsFocus            *string   `json:"skills_focus"`
	SecondaryGoals         *string   `json:"secondary_goals"`
	DefaultLearningMinutes *int      `json:"default_learning_minutes"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

type UserView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	Timezone  *string   `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Goal      *GoalView `json:"goal"`
}

func NewUserView(u *models.User) UserView {
	v := UserView{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Timezone:  u.Timezone,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if g := u.LatestGoal(); g != nil {
		v.Goal = &GoalView{
			ID:                     g.ID,
			GoalStatement:          g.GoalStatement,
			TargetRole:             g.TargetRole,
			Industry:               g.Industry,
			SkillsFocus:            g.SkillsFocus,
			SecondaryGoals:         g.SecondaryGoals,
			DefaultLearningMinutes: g.DefaultLearningMinutes,
			CreatedAt:              g.CreatedAt,
			UpdatedAt:              g.UpdatedAt,
		}
	}
	return v
}

type TaskView struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Title            string    `json:"title"`
	Notes            *string   `json:"notes"`
	ScheduledDate    string    `json:"scheduled_date"`
	EstimatedMinutes *int      `json:"estimated_minutes"`
	Status           string    `json:"status"`
	Source           string    `json:"source"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func NewTaskView(t *models.Task) TaskView {
	return TaskView{
		ID:               t.ID,
		UserID:           t.UserID,
		Title:            t.Title,
		Notes:            t.Notes,
		ScheduledDate:    FormatDate(t.ScheduledDate),
		EstimatedMinutes: t.EstimatedMinutes,
		Status:           t.Status,
		Source:           t.Source,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func NewTaskViews(tasks []models.Task) []TaskView {
	out := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		out = append(out, NewTaskView(&tasks[i]))
	}
	return out
}

type AvailabilityView struct {
	ID               uint      `json:"id"`
	UserID           string    `json:"user_id"`
	Day              string    `json:"day"`
	MinutesAvailable int       `json:"minutes_available"`
	Source           string    `json:"source"`
	CreatedAt        time.Time `json:"created_at"`
}

func NewAvailabilityView(a *models.DailyAvailability) AvailabilityView {
	return AvailabilityView{
		ID:               a.ID,
		UserID:           a.UserID,
		Day:              FormatDate(a.Day),
		MinutesAvailable: a.MinutesAvailable,
		Source:           a.Source,
		CreatedAt:        a.CreatedAt,
	}
}

type BriefView struct {
	UserID              string               `json:"user_id"`
	GoalStatement       string               `json:"goal_statement"`
	ScheduledDate       string               `json:"scheduled_date"`
	TotalTaskMinutes    int                  `json:"total_task_minutes"`
	Tasks               []TaskView           `json:"tasks"`
	LearningSuggestions []LearningSuggestion `json:"learning_suggestions"`
}

func NewBriefView(b *Brief) BriefView {
	return BriefView{
		UserID:              b.UserID,
		GoalStatement:       b.GoalStatement,
		ScheduledDate:       FormatDate(b.ScheduledDate),
		TotalTaskMinutes:    b.TotalTaskMinutes,
		Tasks:               NewTaskViews(b.Tasks),
		LearningSuggestions: b.LearningSuggestions,
	}
}

type IngestionView struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	OriginalFilename string     `json:"original_filename"`
	StoredPath       string     `json:"stored_path"`
	Status           string     `json:"status"`
	ParsedTaskCount  int        `json:"parsed_task_count"`
	ErrorMessage     *string    `json:"error_message"`
	RawText          *string    `json:"raw_text,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	TasksCreated     []string   `json:"tasks_created"`
}

// NewIngestionView renders an ingestion. withRawText includes the audit blob.
func NewIngestionView(p *models.PDFIngestion, tasksCreated []string, withRawText bool) IngestionView {
	v := IngestionView{
		ID:               p.ID,
		UserID:           p.UserID,
		OriginalFilename: p.OriginalFilename,
		StoredPath:       p.StoredPath,
		Status:           p.Status,
		ParsedTaskCount:  p.ParsedTaskCount,
		ErrorMessage:     p.ErrorMessage,
		CreatedAt:        p.CreatedAt,
		CompletedAt:      p.CompletedAt,
		TasksCreated:     tasksCreated,
	}
	if v.TasksCreated == nil {
		v.TasksCreated = []string{}
	}
	if withRawText {
		v.RawText = p.RawText
	}
	return v
}
