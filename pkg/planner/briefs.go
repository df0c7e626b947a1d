package planner

import (
	"context"
	"errors"
	"strings"
	"time"

	"planner/models"
)

type BriefInput struct {
	UserID        string `json:"user_id" binding:"required"`
	ScheduledDate string `json:"scheduled_date" binding:"required"`
}

type LearningSuggestion struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ResourceURL *string `json:"resource_url"`
	TimeMinutes int     `json:"time_minutes"`
	Category    string  `json:"category"`
}

// Brief is the day's tasks plus learning suggestions sized to the time left.
type Brief struct {
	UserID              string
	GoalStatement       string
	ScheduledDate       time.Time
	TotalTaskMinutes    int
	Tasks               []models.Task
	LearningSuggestions []LearningSuggestion
}

var briefCategories = []struct{ prefix, description string }{
	{"Skill Drill", "Hands-on exercise to sharpen a critical capability."},
	{"Market Pulse", "Stay current on industry or role-specific news."},
	{"Job Search Tactic", "Concrete action to move applications forward."},
}

func (s *Service) DailyBrief(ctx context.Context, in BriefInput) (*Brief, error) {
	const op = "planner.DailyBrief"
	day, err := ParseDate("scheduled_date", in.ScheduledDate)
	if err != nil {
		return nil, err
	}
	user, err := s.GetUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasksForDay(ctx, in.UserID, FormatDate(day))
	if err != nil {
		return nil, wrap(op, err)
	}
	total := 0
	for _, t := range tasks {
		if t.EstimatedMinutes != nil {
			total += *t.EstimatedMinutes
		}
	}
	available := 0
	switch av, err := s.availability(ctx, in.UserID, FormatDate(day)); {
	case err == nil:
		available = av.MinutesAvailable
	case !errors.Is(err, ErrNotFound):
		return nil, wrap(op, err)
	}

	goal := "Stay productive"
	if g := user.LatestGoal(); g != nil {
		goal = g.GoalStatement
	}
	return &Brief{
		UserID:              user.ID,
		GoalStatement:       goal,
		ScheduledDate:       day,
		TotalTaskMinutes:    total,
		Tasks:               tasks,
		LearningSuggestions: BuildLearningSuggestions(goal, max(available-total, 0)),
	}, nil
}

// BuildLearningSuggestions returns one suggestion per brief category.
func BuildLearningSuggestions(goal string, budget int) []LearningSuggestion {
	durations := briefMinutes(budget)
	short := shortGoal(goal)
	out := make([]LearningSuggestion, 0, len(briefCategories))
	for i, c := range briefCategories {
		out = append(out, LearningSuggestion{
			Title:       c.prefix + ": " + short + " Focus",
			Description: c.description,
			TimeMinutes: durations[i],
			Category:    c.prefix,
		})
	}
	return out
}

func briefMinutes(budget int) []int {
	if budget <= 0 {
		return []int{20, 15, 15}
	}
	base := max(budget/3, 15)
	return []int{base + 10, base, base}
}

// shortGoal is the first three words of the goal, or "Goal".
func shortGoal(goal string) string {
	words := strings.Fields(goal)
	if len(words) > 3 {
		words = words[:3]
	}
	if len(words) == 0 {
		return "Goal"
	}
	return strings.Join(words, " ")
}
