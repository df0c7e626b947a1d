package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"planner/pkg/config"
)

func TestSetupJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := Setup(config.LogConfig{Level: "debug", Format: "json", Output: path}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	l := WithComponent("ingest")
	l.Info().Str("ingestion_id", "abc").Msg("hello")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := bytes.TrimSpace(b)
	var ev map[string]any
	if err := json.Unmarshal(line, &ev); err != nil {
		t.Fatalf("log line is not json: %q", line)
	}
	if ev["component"] != "ingest" || ev["ingestion_id"] != "abc" || ev["message"] != "hello" {
		t.Fatalf("unexpected event: %v", ev)
	}
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	if err := Setup(config.LogConfig{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
