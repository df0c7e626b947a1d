package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"planner/pkg/config"
	"planner/pkg/pdftext/pdftexttest"
)

// helper to perform requests; token is sent as a bearer header when set
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	// allow callers to pass nil for body safely
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	t.Setenv("UPLOAD_BASE", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GCS_BUCKET", "")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	a, err := newApp(t.Context(), cfg)
	if err != nil {
		t.Fatalf("startup: %v", err)
	}
	t.Cleanup(a.Close)
	r := gin.New()
	setupRoutes(r, newServer(a.planner, a.ingest, cfg.Upload.MaxBytes))
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(v)
	return performRequest(r, http.MethodPost, path, bytes.NewBuffer(b), "", "application/json")
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)
	email := fmt.Sprintf("flow-%d@example.com", time.Now().UnixNano())
	day := "2026-10-14"

	// 1. Onboard
	resp := postJSON(t, r, "/api/v1/onboarding", map[string]any{
		"email": email,
		"goal":  map[string]any{"goal_statement": "Become a data engineer", "default_learning_minutes": 60},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("onboarding failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var user map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &user)
	userID, _ := user["id"].(string)
	if userID == "" {
		t.Fatalf("empty user id in onboarding response: %+v", user)
	}

	// 2. Upload a text-layer PDF
	body, ct := multipartUpload(t, map[string]string{"user_id": userID, "scheduled_date": day},
		"todo.pdf", pdftexttest.Build("- workout (20m)", "buy milk"))
	resp = performRequest(r, http.MethodPost, "/api/v1/uploads/pdf", body, "", ct)
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var ing map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &ing)
	if ing["status"] != "parsed" || ing["parsed_task_count"] != float64(2) {
		t.Fatalf("unexpected ingestion %+v", ing)
	}

	// 3. The tasks are listed for the day
	resp = performRequest(r, http.MethodGet, "/api/v1/tasks?user_id="+userID+"&scheduled_date="+day, nil, "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("list tasks failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var tasks []map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &tasks)
	if len(tasks) != 2 || tasks[0]["source"] != "from-pdf" {
		t.Fatalf("unexpected tasks %+v", tasks)
	}

	// 4. Availability and brief
	resp = postJSON(t, r, "/api/v1/availability", map[string]any{"user_id": userID, "day": day, "minutes_available": 120})
	if resp.Code != http.StatusCreated {
		t.Fatalf("availability failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = postJSON(t, r, "/api/v1/briefs", map[string]any{"user_id": userID, "scheduled_date": day})
	if resp.Code != http.StatusOK {
		t.Fatalf("brief failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var brief map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &brief)
	if brief["total_task_minutes"] != float64(20) {
		t.Fatalf("unexpected brief %+v", brief)
	}

	// 5. Carry pending tasks forward
	resp = postJSON(t, r, "/api/v1/tasks/carry-forward", map[string]any{"user_id": userID, "from_date": day})
	if resp.Code != http.StatusOK {
		t.Fatalf("carry forward failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var moved []map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &moved)
	if len(moved) != 2 || moved[0]["scheduled_date"] != "2026-10-15" {
		t.Fatalf("unexpected moved tasks %+v", moved)
	}

	// 6. Recommendations fall back to templates without an API key
	resp = postJSON(t, r, "/api/v1/recommendations", map[string]any{"user_id": userID, "scheduled_date": day})
	if resp.Code != http.StatusOK {
		t.Fatalf("recommendations failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var rec map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &rec)
	if todos, _ := rec["recommended_todos"].([]any); len(todos) != 3 {
		t.Fatalf("unexpected recommendations %+v", rec)
	}
}
