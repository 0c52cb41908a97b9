package logging

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetBeforeInitializeIsNop(t *testing.T) {
	Use(zap.NewNop(), nil)
	l := Get(CategoryMapper)
	if l == nil {
		t.Fatal("Get() returned nil")
	}
	l.Info("dropped")
}

func TestCategoriesCanBeDisabled(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Use(zap.New(core), map[string]bool{"mapper": false})
	t.Cleanup(func() { Use(zap.NewNop(), nil) })

	Get(CategoryMapper).Info("hidden")
	Get(CategoryQuery).Info("visible")

	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.LoggerName != "query" || entry.Message != "visible" {
		t.Errorf("unexpected entry %+v", entry)
	}
	if !IsCategoryEnabled(CategoryQuery) || IsCategoryEnabled(CategoryMapper) {
		t.Error("IsCategoryEnabled disagrees with the configured toggles")
	}
}

func TestTimerStopWithThreshold(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Use(zap.New(core), nil)
	t.Cleanup(func() { Use(zap.NewNop(), nil) })

	timer := StartTimer(CategoryAssembly, "assemble")
	time.Sleep(2 * time.Millisecond)
	if elapsed := timer.StopWithThreshold(time.Nanosecond); elapsed <= 0 {
		t.Errorf("elapsed = %v, want > 0", elapsed)
	}

	if got := logs.FilterMessage("slow operation").Len(); got != 1 {
		t.Errorf("expected a slow operation warning, got %d", got)
	}
}

func TestInitializeRejectsUnknownLevel(t *testing.T) {
	if err := Initialize(Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestInitializeJSON(t *testing.T) {
	path := t.TempDir() + "/mtcq.log"
	if err := Initialize(Options{Level: "debug", Format: "json", OutputPaths: []string{path}}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { Use(zap.NewNop(), nil) })
	Get(CategoryBoot).Debug("booted")
	Sync()
}
