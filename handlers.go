package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"planner/models"
	"planner/pkg/ingest"
	"planner/pkg/planner"
)

// multipartSlack is allowed on top of the file limit for form fields and boundaries.
const multipartSlack = 1 << 20

type plannerService interface {
	Onboard(ctx context.Context, in planner.OnboardingInput) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateTask(ctx context.Context, in planner.TaskInput) (*models.Task, error)
	ListTasks(ctx context.Context, userID, scheduledDate string) ([]models.Task, error)
	UpdateTask(ctx context.Context, id string, in planner.TaskUpdate) (*models.Task, error)
	CarryForward(ctx context.Context, in planner.CarryForwardInput) ([]models.Task, error)
	UpsertAvailability(ctx context.Context, in planner.AvailabilityInput) (*models.DailyAvailability, error)
	GetAvailability(ctx context.Context, userID, day string) (*models.DailyAvailability, error)
	DailyBrief(ctx context.Context, in planner.BriefInput) (*planner.Brief, error)
	Recommend(ctx context.Context, in planner.RecommendationInput) (*planner.Recommendations, error)
}

type ingestService interface {
	Ingest(ctx context.Context, up ingest.Upload) (*ingest.Result, error)
	Get(ctx context.Context, id string) (*models.PDFIngestion, error)
}

type server struct {
	planner   plannerService
	ingest    ingestService
	maxUpload int64
}

func newServer(p plannerService, ing ingestService, maxUpload int64) *server {
	return &server{planner: p, ingest: ing, maxUpload: maxUpload}
}

func setupRoutes(r *gin.Engine, s *server) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.POST("/onboarding", s.onboardHandler)
	v1.GET("/users/:id", s.getUserHandler)
	v1.POST("/tasks", s.createTaskHandler)
	v1.GET("/tasks", s.listTasksHandler)
	v1.PATCH("/tasks/:id", s.updateTaskHandler)
	v1.POST("/tasks/carry-forward", s.carryForwardHandler)
	v1.POST("/availability", s.upsertAvailabilityHandler)
	v1.GET("/availability", s.getAvailabilityHandler)
	v1.POST("/briefs", s.briefHandler)
	v1.POST("/recommendations", s.recommendHandler)
	v1.POST("/uploads/pdf", s.uploadPDFHandler)
	v1.GET("/uploads/pdf/:id", s.getUploadHandler)
}

// accessLog writes one zerolog event per request.
func accessLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// writeError maps service errors to status codes.
func writeError(c *gin.Context, err error) {
	var verr *planner.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, planner.ErrNoGoal):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, planner.ErrUserNotFound), errors.Is(err, ingest.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, planner.ErrNotFound), errors.Is(err, ingest.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (s *server) onboardHandler(c *gin.Context) {
	var in planner.OnboardingInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := s.planner.Onboard(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, planner.NewUserView(u))
}

func (s *server) getUserHandler(c *gin.Context) {
	u, err := s.planner.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, planner.NewUserView(u))
}

func (s *server) createTaskHandler(c *gin.Context) {
	var in planner.TaskInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := s.planner.CreateTask(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, planner.NewTaskView(t))
}

func (s *server) listTasksHandler(c *gin.Context) {
	userID, day := c.Query("user_id"), c.Query("scheduled_date")
	if userID == "" || day == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and scheduled_date are required"})
		return
	}
	tasks, err := s.planner.ListTasks(c.Request.Context(), userID, day)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, planner.NewTaskViews(tasks))
}

func (s *server) updateTaskHandler(c *gin.Context) {
	var in planner.TaskUpdate
	if !bindJSON(c, &in) {
		return
	}
	t, err := s.planner.UpdateTask(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, planner.NewTaskView(t))
}

func (s *server) carryForwardHandler(c *gin.Context) {
	var in planner.CarryForwardInput
	if !bindJSON(c, &in) {
		return
	}
	moved, err := s.planner.CarryForward(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, planner.NewTaskViews(moved))
}

func (s *server) upsertAvailabilityHandler(c *gin.Context) {
	var in planner.AvailabilityInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := s.planner.UpsertAvailability(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, planner.NewAvailabilityView(a))
}

func (s *server) getAvailabilityHandler(c *gin.Context) {
	userID, day := c.Query("user_id"), c.Query("day")
	if userID == "" || day == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and day are required"})
		return
	}
	a, err := s.planner.GetAvailability(c.Request.Context(), userID, day)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, planner.NewAvailabilityView(a))
}

func (s *server) briefHandler(c *gin.Context) {
	var in planner.BriefInput
	if !bindJSON(c, &in) {
		return
	}
	b, err := s.planner.DailyBrief(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, planner.NewBriefView(b))
}

func (s *server) recommendHandler(c *gin.Context) {
	var in planner.RecommendationInput
	if !bindJSON(c, &in) {
		return
	}
	rec, err := s.planner.Recommend(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *server) uploadPDFHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload+multipartSlack)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	userID := strings.TrimSpace(c.PostForm("user_id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	scheduled, err := planner.ParseDate("scheduled_date", c.PostForm("scheduled_date"))
	if err != nil {
		writeError(c, err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fh.Size > s.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}

	res, err := s.ingest.Ingest(c.Request.Context(), ingest.Upload{
		UserID:        userID,
		Filename:      fh.Filename,
		Data:          data,
		ScheduledDate: scheduled,
	})
	if errors.Is(err, ingest.ErrUserNotFound) {
		writeError(c, err)
		return
	}
	if err != nil {
		msg := err.Error()
		if res != nil && res.Ingestion.ErrorMessage != nil {
			msg = *res.Ingestion.ErrorMessage
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusCreated, planner.NewIngestionView(res.Ingestion, res.TasksCreated, false))
}

func (s *server) getUploadHandler(c *gin.Context) {
	p, err := s.ingest.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, planner.NewIngestionView(p, nil, true))
}
