package planner

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"planner/models"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("day", " 2026-10-14 ")
	if err != nil || !d.Equal(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected %v %v", d, err)
	}
	_, err = ParseDate("day", "14/10/2026")
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "day" {
		t.Fatalf("expected validation error for day, got %v", err)
	}
}

func TestBuildLearningSuggestions(t *testing.T) {
	got := BuildLearningSuggestions("Become a staff engineer", 90)
	if len(got) != 3 {
		t.Fatalf("expected 3 suggestions got %d", len(got))
	}
	if got[0].Title != "Skill Drill: Become a staff Focus" || got[0].Category != "Skill Drill" {
		t.Fatalf("unexpected first suggestion %+v", got[0])
	}
	mins := []int{got[0].TimeMinutes, got[1].TimeMinutes, got[2].TimeMinutes}
	if !reflect.DeepEqual(mins, []int{40, 30, 30}) {
		t.Fatalf("unexpected minutes %v", mins)
	}
	if got[2].Title != "Job Search Tactic: Become a staff Focus" {
		t.Fatalf("unexpected last title %q", got[2].Title)
	}
}

func TestBriefMinutes(t *testing.T) {
	cases := map[int][]int{
		0:   {20, 15, 15},
		-10: {20, 15, 15},
		20:  {25, 15, 15},
		300: {110, 100, 100},
	}
	for budget, want := range cases {
		if got := briefMinutes(budget); !reflect.DeepEqual(got, want) {
			t.Fatalf("briefMinutes(%d) = %v want %v", budget, got, want)
		}
	}
	if shortGoal("   ") != "Goal" || shortGoal("Ship it") != "Ship it" {
		t.Fatalf("unexpected short goal")
	}
}

func TestRecommendMinutes(t *testing.T) {
	cases := map[int][]int{
		0:    {20, 15, 15},
		90:   {35, 30, 25},
		30:   {20, 15, 10},
		1000: {240, 240, 240},
	}
	for budget, want := range cases {
		if got := recommendMinutes(budget); !reflect.DeepEqual(got, want) {
			t.Fatalf("recommendMinutes(%d) = %v want %v", budget, got, want)
		}
	}
}

func TestParseLLMTodos(t *testing.T) {
	answer := "Sure! Here you go:\n```json\n" + `{"recommended_todos": [
		{"title": "Watch system design intro", "description": "A 20 minute explainer", "category": "Research", "estimated_minutes": 500, "resource_url": "https://youtu.be/x"},
		{"title": "Build a toy cache", "description": "Implement LRU in Go", "category": "Practice", "estimatedMinutes": "25"},
		{"title": "", "description": "missing title", "category": "Share"},
		{"title": "Write a post", "description": "Summarise learnings", "category": "Share", "estimated_minutes": "soon", "resourceUrl": "https://blog"},
		{"title": "Fourth", "description": "ignored beyond three", "category": "Share"}
	]}` + "\n```"
	todos, err := ParseLLMTodos(answer, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(todos) != 2 {
		t.Fatalf("expected 2 complete todos in the first three, got %+v", todos)
	}
	if todos[0].EstimatedMinutes != 240 || *todos[0].ResourceURL != "https://youtu.be/x" {
		t.Fatalf("minutes should clamp to 240: %+v", todos[0])
	}
	if todos[1].EstimatedMinutes != 25 || todos[1].ResourceURL != nil {
		t.Fatalf("camelCase minutes not read: %+v", todos[1])
	}

	todos, err = ParseLLMTodos(`{"recommended_todos":[{"title":"Write a post","description":"Summarise","category":"Share","estimated_minutes":"soon","resourceUrl":"https://blog"}]}`, 90)
	if err != nil || todos[0].EstimatedMinutes != 30 || *todos[0].ResourceURL != "https://blog" {
		t.Fatalf("invalid minutes should fall back to budget/3: %+v %v", todos, err)
	}

	for _, bad := range []string{"no json here", "{not json}", `{"other": []}`} {
		if _, err := ParseLLMTodos(bad, 90); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestTemplateTodos(t *testing.T) {
	todos := TemplateTodos("Land a data role", "networking", "SQL", []int{35, 30, 25})
	if len(todos) != 3 {
		t.Fatalf("expected 3 todos")
	}
	if todos[0].Title != "Research: Land a data" || todos[0].Category != "Research" {
		t.Fatalf("unexpected research todo %+v", todos[0])
	}
	if *todos[0].ResourceURL != "https://www.youtube.com/results?search_query=YouTube+Land+a+data+role+trends" {
		t.Fatalf("unexpected url %q", *todos[0].ResourceURL)
	}
	if !strings.HasPrefix(*todos[2].ResourceURL, "https://www.google.com/search?q=article+networking") {
		t.Fatalf("share todo should link a web search: %q", *todos[2].ResourceURL)
	}
	if !strings.Contains(todos[1].Description, "on SQL") || strings.Contains(todos[1].Description, "{") {
		t.Fatalf("placeholders not filled: %q", todos[1].Description)
	}
	if todos[2].EstimatedMinutes != 25 {
		t.Fatalf("unexpected minutes %d", todos[2].EstimatedMinutes)
	}
}

func TestFilterRecent(t *testing.T) {
	u := "https://example.com/a"
	todos := []RecommendedTodo{
		{Title: "Research: Go"},
		{Title: "Practice: Go", ResourceURL: &u},
		{Title: "Share: Go"},
	}
	history := []models.RecommendationHistory{
		{Title: "  research: go "},
		{Title: "Something else", ResourceURL: &u},
	}
	got := FilterRecent(todos, history)
	if len(got) != 1 || got[0].Title != "Share: Go" {
		t.Fatalf("unexpected filtered todos %+v", got)
	}
	if len(FilterRecent(todos, nil)) != 3 {
		t.Fatalf("empty history keeps everything")
	}
}

func TestValidateTaskFields(t *testing.T) {
	if validateTitle("ab") == nil || validateTitle(strings.Repeat("x", 513)) == nil || validateTitle("abc") != nil {
		t.Fatalf("title bounds are 3..512")
	}
	four, five, big := 4, 5, 481
	if validateMinutes(&four) == nil || validateMinutes(&big) == nil || validateMinutes(&five) != nil || validateMinutes(nil) != nil {
		t.Fatalf("minute bounds are 5..480")
	}
}

func TestViews(t *testing.T) {
	mins := 120
	u := &models.User{ID: "u1", Email: "a@b.c", Goals: []models.Goal{
		{ID: 1, GoalStatement: "old"},
		{ID: 2, GoalStatement: "new", DefaultLearningMinutes: &mins},
	}}
	v := NewUserView(u)
	if v.Goal == nil || v.Goal.GoalStatement != "new" {
		t.Fatalf("user view should carry the latest goal: %+v", v.Goal)
	}
	task := models.Task{ID: "t1", ScheduledDate: time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)}
	if NewTaskView(&task).ScheduledDate != "2026-10-14" {
		t.Fatalf("task date not formatted")
	}
	raw := "a\nb"
	ing := &models.PDFIngestion{ID: "i1", RawText: &raw}
	if NewIngestionView(ing, nil, false).RawText != nil || NewIngestionView(ing, nil, true).RawText == nil {
		t.Fatalf("raw text only included on request")
	}
}
