package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"datapipe/internal/config"
	"datapipe/internal/services"
)

func TestPrettyHandlerRendersSubject(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))

	ctx := services.WithStage(services.WithRunID(context.Background(), "0123456789abcdef"), "graph")
	WithContext(ctx, NewComponentLogger(logger, "movegraph")).Info("graph built", slog.Int("nodes", 3), slog.String("path", "a b"))

	line := buf.String()
	if !strings.Contains(line, "INFO [01234567/graph] movegraph: graph built") {
		t.Fatalf("unexpected header: %q", line)
	}
	if !strings.Contains(line, "nodes=3") {
		t.Fatalf("expected nodes attr, got %q", line)
	}
	if !strings.Contains(line, `path="a b"`) {
		t.Fatalf("expected quoted path, got %q", line)
	}
}

func TestPrettyHandlerFormatsValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, new(slog.LevelVar), false))
	logger.Info("values",
		slog.Float64("split", 0.25),
		slog.Bool("directed", true),
		slog.String("empty", ""),
		slog.Any("error", errors.New("bad id=3")),
		slog.Time("at", time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))),
	)

	line := buf.String()
	for _, want := range []string{
		"split=0.25",
		"directed=true",
		`empty=""`,
		`error="bad id=3"`,
		"at=2026-01-02T02:04:05Z",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %q", want, line)
		}
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newPrettyHandler(&buf, lvl, false))
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info line should be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "WARN shown") {
		t.Fatalf("warn line missing: %q", buf.String())
	}
}

func TestJSONHandlerFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, lvl, false))
	logger.Info("ok", slog.String(FieldStage, "masks"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["level"] != "info" {
		t.Fatalf("level = %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts key: %v", payload)
	}
	if payload[FieldStage] != "masks" {
		t.Fatalf("stage = %v", payload[FieldStage])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Format = "json"

	logger, err := NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("written")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "datapipe.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"written"`) {
		t.Fatalf("log file missing entry: %s", data)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newJSONHandler(&buf, new(slog.LevelVar), false))
	WarnWithContext(logger, "download failed", "download_failed", String(FieldErrorHint, "retry later"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload[FieldEventType] != "download_failed" {
		t.Fatalf("event_type = %v", payload[FieldEventType])
	}
	if payload[FieldErrorHint] != "retry later" {
		t.Fatalf("error_hint = %v", payload[FieldErrorHint])
	}
	if payload[FieldImpact] == nil {
		t.Fatalf("impact missing: %v", payload)
	}
}

func TestContextFieldsEmpty(t *testing.T) {
	if fields := ContextFields(context.Background()); len(fields) != 0 {
		t.Fatalf("expected no fields, got %v", fields)
	}
	if got := WithContext(context.Background(), nil); got == nil {
		t.Fatal("expected nop logger")
	}
}
