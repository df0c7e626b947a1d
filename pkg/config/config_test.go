package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "DB_AUTO_MIGRATE", "UPLOAD_BASE", "OPENAI_MODEL", "GOOGLE_LOCATION", "RASTER_DPI", "OCR_WORKERS", "GOOGLE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT", "GOOGLE_PROCESSOR_ID", "GOOGLE_APPLICATION_CREDENTIALS", "OPENAI_API_KEY"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8081" || cfg.Upload.BaseDir != "uploads" || cfg.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.DB.AutoMigrate {
		t.Fatalf("auto migrate should default to true")
	}
	if cfg.DocAI.Location != "us" || cfg.DocAI.Timeout != 60*time.Second {
		t.Fatalf("unexpected document ai defaults: %+v", cfg.DocAI)
	}
	if cfg.DocAI.Enabled() || cfg.LLM.Enabled() {
		t.Fatalf("remote services must be disabled without credentials")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_AUTO_MIGRATE", "no")
	t.Setenv("LLM_TIMEOUT", "5")
	t.Setenv("DOCUMENT_AI_TIMEOUT", "2m")
	t.Setenv("OCR_WORKERS", "0")
	t.Setenv("GOOGLE_PROJECT_ID", "p")
	t.Setenv("GOOGLE_PROCESSOR_ID", "proc")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/tmp/creds.json")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB.AutoMigrate {
		t.Fatalf("DB_AUTO_MIGRATE=no should disable migrations")
	}
	if cfg.LLM.Timeout != 5*time.Second || cfg.DocAI.Timeout != 2*time.Minute {
		t.Fatalf("durations not parsed: llm=%v docai=%v", cfg.LLM.Timeout, cfg.DocAI.Timeout)
	}
	if cfg.OCR.Workers != 1 {
		t.Fatalf("workers should be clamped to 1, got %d", cfg.OCR.Workers)
	}
	if !cfg.DocAI.Enabled() {
		t.Fatalf("document ai should be enabled when fully configured")
	}
}

func TestRequireDB(t *testing.T) {
	if err := (Config{}).RequireDB(); err == nil {
		t.Fatalf("expected error without DSN")
	}
	if err := (Config{DB: DBConfig{DSN: "postgres://x"}}).RequireDB(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
