package logger

import (
	"io"
	"testing"
)

func TestWithComponent(t *testing.T) {
	log := Logger()
	entry := log.WithComponent("test")
	if v, ok := entry.Entry.Data["component"]; !ok || v != "test" {
		t.Fatalf("component field missing: %v", entry.Entry.Data)
	}
}

func TestConfigureInvalidLevel(t *testing.T) {
	// Ensure environment variables do not override the provided level
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("invalid", "json", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestConfigureTextFormat(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("debug", "text", "stderr", 0); err != nil {
		t.Fatalf("configure: %v", err)
	}
}

func TestRecordWarnAndError(t *testing.T) {
	log := Logger()
	log.SetOutput(io.Discard)
	log.WithComponent("worker").Warn("warn")
	log.WithComponent("worker").Error("boom")

	v, ok := warnCounts.Load("worker")
	if !ok || *v.(*int64) < 1 {
		t.Fatalf("warn not recorded")
	}
	v, ok = errorCounts.Load("worker")
	if !ok || *v.(*int64) < 1 {
		t.Fatalf("error not recorded")
	}
}
