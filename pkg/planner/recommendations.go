package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"planner/models"
)

const (
	historyWindow        = 15 * 24 * time.Hour
	defaultRecommendMins = 90
)

type RecommendationInput struct {
	UserID         string  `json:"user_id" binding:"required"`
	ScheduledDate  string  `json:"scheduled_date" binding:"required"`
	PrimaryGoal    *string `json:"primary_goal"`
	SecondaryGoals *string `json:"secondary_goals"`
	SkillsFocus    *string `json:"skills_focus"`
}

type RecommendedTodo struct {
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Category         string  `json:"category"`
	EstimatedMinutes int     `json:"estimated_minutes"`
	ResourceURL      *string `json:"resource_url"`
}

type Recommendations struct {
	UserID        string            `json:"user_id"`
	ScheduledDate string            `json:"scheduled_date"`
	GoalStatement string            `json:"goal_statement"`
	Todos         []RecommendedTodo `json:"recommended_todos"`
}

type goalContext struct {
	primary, secondary, focus string
}

// Recommend proposes three todos for the user's goal. The language model is
// asked first; templates are used when it is unavailable or unusable. Todos
// repeated within the last 15 days are dropped unless all of them repeat.
func (s *Service) Recommend(ctx context.Context, in RecommendationInput) (*Recommendations, error) {
	const op = "planner.Recommend"
	day, err := ParseDate("scheduled_date", in.ScheduledDate)
	if err != nil {
		return nil, err
	}
	user, err := s.GetUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	goal := user.LatestGoal()
	if goal == nil {
		return nil, ErrNoGoal
	}

	gc := goalContext{
		primary:   firstNonEmpty(in.PrimaryGoal, &goal.GoalStatement),
		secondary: firstNonEmpty(in.SecondaryGoals, goal.SecondaryGoals),
		focus:     firstNonEmpty(in.SkillsFocus, goal.SkillsFocus),
	}
	if gc.secondary == "" {
		gc.secondary = "related priorities"
	}
	if gc.focus == "" {
		gc.focus = "progress"
	}
	budget := defaultRecommendMins
	if goal.DefaultLearningMinutes != nil && *goal.DefaultLearningMinutes != 0 {
		budget = *goal.DefaultLearningMinutes
	}

	todos := s.llmTodos(ctx, gc, budget)
	if len(todos) == 0 {
		s.log.Info().Str("goal", gc.primary).Msg("falling back to template recommendations")
		todos = TemplateTodos(gc.primary, gc.secondary, gc.focus, recommendMinutes(budget))
	}

	var history []models.RecommendationHistory
	cutoff := s.now().Add(-historyWindow)
	if err := s.db.WithContext(ctx).Where("user_id = ? AND created_at >= ?", user.ID, cutoff).Find(&history).Error; err != nil {
		return nil, wrap(op, err)
	}
	final := FilterRecent(todos, history)
	if len(final) == 0 {
		s.log.Info().Str("user_id", user.ID).Msg("all recommended todos were recent duplicates, keeping original set")
		final = todos
	}

	if err := s.saveHistory(ctx, user.ID, final); err != nil {
		return nil, wrap(op, err)
	}
	return &Recommendations{
		UserID:        user.ID,
		ScheduledDate: FormatDate(day),
		GoalStatement: gc.primary,
		Todos:         final,
	}, nil
}

func (s *Service) saveHistory(ctx context.Context, userID string, todos []RecommendedTodo) error {
	if len(todos) == 0 {
		return nil
	}
	now := s.now()
	rows := make([]models.RecommendationHistory, 0, len(todos))
	for _, t := range todos {
		minutes := t.EstimatedMinutes
		rows = append(rows, models.RecommendationHistory{
			CreatedAt:        now,
			UserID:           userID,
			Title:            t.Title,
			ResourceURL:      t.ResourceURL,
			Category:         t.Category,
			EstimatedMinutes: &minutes,
		})
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}

func (s *Service) llmTodos(ctx context.Context, gc goalContext, budget int) []RecommendedTodo {
	if s.llm == nil {
		s.log.Info().Msg("skipping LLM recommendations, no API key configured")
		return nil
	}
	prompt := "You are a focused productivity coach crafting three recommended to-dos for a professional. " +
		"Always use the following structure and output valid JSON with a top-level `recommended_todos` array. " +
		"Each todo must include `title`, `description`, `category`, `estimated_minutes`, and `resource_url`. " +
		"Set `category` to one of: Research, Practice, Share. " +
		"Lean on short YouTube explainers or concise online readings. " +
		fmt.Sprintf("Primary goal: %s\nSecondary goals: %s\nSkills focus: %s\nAvailable minutes: %d\n", gc.primary, gc.secondary, gc.focus, budget) +
		"Distribute the time across the three todos balancing depth and urgency. " +
		"Keep descriptions practical and action-oriented."
	answer, err := s.llm.Complete(ctx, "recommendations", prompt)
	if err != nil {
		s.log.Warn().Err(err).Msg("LLM recommendation failed")
		return nil
	}
	todos, err := ParseLLMTodos(answer, budget)
	if err != nil {
		s.log.Warn().Err(err).Msg("unusable LLM recommendation payload")
		return nil
	}
	return todos
}

// ParseLLMTodos reads the first to last brace span of the answer as JSON and
// keeps up to three complete todos. Minutes are clamped to 10..240.
func ParseLLMTodos(answer string, budget int) ([]RecommendedTodo, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in answer")
	}
	var payload struct {
		Todos []map[string]any `json:"recommended_todos"`
	}
	if err := json.Unmarshal([]byte(answer[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}
	if payload.Todos == nil {
		return nil, fmt.Errorf("answer has no recommended_todos array")
	}
	entries := payload.Todos
	if len(entries) > 3 {
		entries = entries[:3]
	}
	var out []RecommendedTodo
	for _, e := range entries {
		title, desc, cat := str(e["title"]), str(e["description"]), str(e["category"])
		if title == "" || desc == "" || cat == "" {
			continue
		}
		minutes, ok := toMinutes(e["estimated_minutes"])
		if !ok || minutes == 0 {
			minutes, ok = toMinutes(e["estimatedMinutes"])
		}
		if !ok {
			minutes = max(budget/3, 15)
		}
		minutes = max(10, min(minutes, 240))
		todo := RecommendedTodo{Title: title, Description: desc, Category: cat, EstimatedMinutes: minutes}
		if u := str(e["resource_url"]); u != "" {
			todo.ResourceURL = &u
		} else if u := str(e["resourceUrl"]); u != "" {
			todo.ResourceURL = &u
		}
		out = append(out, todo)
	}
	return out, nil
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func toMinutes(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}

type todoTemplate struct {
	label, description, query string
	youtube                   bool
}

var todoTemplates = []todoTemplate{
	{
		label:       "Research",
		description: "Watch a short YouTube explainer or read a quick brief that connects {primary_goal} to industry shifts. Note two insights that inform {secondary_goals}.",
		query:       "YouTube {primary_goal} trends",
		youtube:     true,
	},
	{
		label:       "Practice",
		description: "Lean into a video lesson or article on {focus} and immediately try a tiny exercise that ties what you learn back to {primary_goal}.",
		query:       "YouTube {focus} tutorial {primary_goal}",
		youtube:     true,
	},
	{
		label:       "Share",
		description: "Document what you learned for {secondary_goals} by summarizing a video/article, and publish it so the learning momentum stays visible.",
		query:       "article {secondary_goals} reflection prompts",
	},
}

// TemplateTodos builds the fallback Research, Practice and Share todos.
func TemplateTodos(primary, secondary, focus string, durations []int) []RecommendedTodo {
	fill := strings.NewReplacer("{primary_goal}", primary, "{secondary_goals}", secondary, "{focus}", focus)
	short := shortGoal(primary)
	out := make([]RecommendedTodo, 0, len(todoTemplates))
	for i, t := range todoTemplates {
		minutes := durations[len(durations)-1]
		if i < len(durations) {
			minutes = durations[i]
		}
		link := resourceURL(fill.Replace(t.query), t.youtube)
		out = append(out, RecommendedTodo{
			Title:            t.label + ": " + short,
			Description:      fill.Replace(t.description),
			Category:         t.label,
			EstimatedMinutes: minutes,
			ResourceURL:      &link,
		})
	}
	return out
}

func resourceURL(query string, youtube bool) string {
	if youtube {
		return "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(query)
}

func recommendMinutes(budget int) []int {
	if budget <= 0 {
		return []int{20, 15, 15}
	}
	base := max(budget/3, 15)
	return []int{min(base+5, 240), min(base, 240), min(max(base-5, 10), 240)}
}

// FilterRecent drops todos whose title (case-insensitive) or resource URL
// already appears in history.
func FilterRecent(todos []RecommendedTodo, history []models.RecommendationHistory) []RecommendedTodo {
	titles := map[string]bool{}
	urls := map[string]bool{}
	for _, h := range history {
		if t := strings.ToLower(strings.TrimSpace(h.Title)); t != "" {
			titles[t] = true
		}
		if h.ResourceURL != nil && *h.ResourceURL != "" {
			urls[*h.ResourceURL] = true
		}
	}
	var out []RecommendedTodo
	for _, t := range todos {
		if titles[strings.ToLower(strings.TrimSpace(t.Title))] {
			continue
		}
		if t.ResourceURL != nil && urls[*t.ResourceURL] {
			continue
		}
		out = append(out, t)
	}
	return out
}

func firstNonEmpty(vals ...*string) string {
	for _, v := range vals {
		if v != nil && strings.TrimSpace(*v) != "" {
			return *v
		}
	}
	return ""
}
