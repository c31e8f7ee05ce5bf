package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"stringfinder/internal/config"
)

func readCategoryLog(t *testing.T, dir string, cat Category) string {
	t.Helper()
	date := time.Now().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(dir, date+"_"+string(cat)+".log"))
	if err != nil {
		t.Fatalf("Failed to read %s log: %v", cat, err)
	}
	return string(data)
}

func resetLogging(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		_ = Initialize(config.LoggingConfig{})
	})
}

// TestAllCategoriesLog tests that all categories create log files when debug_mode is true
func TestAllCategoriesLog(t *testing.T) {
	resetLogging(t)
	dir := filepath.Join(t.TempDir(), "logs")

	if err := Initialize(config.LoggingConfig{Level: "debug", DebugMode: true, Dir: dir}); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	Extract("extract line")
	Store("store line")
	Watch("watch line")
	Get(CategoryOutput).Warn("output line")
	CloseAll()

	for cat, want := range map[Category]string{
		CategoryBoot:    "logging initialized",
		CategoryExtract: "[INFO] extract line",
		CategoryStore:   "[INFO] store line",
		CategoryWatch:   "[INFO] watch line",
		CategoryOutput:  "[WARN] output line",
	} {
		if got := readCategoryLog(t, dir, cat); !strings.Contains(got, want) {
			t.Errorf("%s log missing %q, got:\n%s", cat, want, got)
		}
	}
}

func TestDisabledWritesNothing(t *testing.T) {
	resetLogging(t)
	dir := filepath.Join(t.TempDir(), "logs")

	if err := Initialize(config.LoggingConfig{Level: "debug", Dir: dir}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	Extract("should not appear")

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("logs directory should not exist when debug mode is off")
	}
}

func TestCategoryFilterAndLevel(t *testing.T) {
	resetLogging(t)
	dir := filepath.Join(t.TempDir(), "logs")

	err := Initialize(config.LoggingConfig{
		Level:      "warn",
		DebugMode:  true,
		Dir:        dir,
		Categories: map[string]bool{"store": false},
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if IsCategoryEnabled(CategoryStore) {
		t.Error("store category should be disabled")
	}
	Store("hidden")
	ExtractDebug("too quiet")
	Get(CategoryExtract).Warn("loud enough")
	CloseAll()

	got := readCategoryLog(t, dir, CategoryExtract)
	if strings.Contains(got, "too quiet") {
		t.Errorf("debug line written at warn level:\n%s", got)
	}
	if !strings.Contains(got, "[WARN] loud enough") {
		t.Errorf("warn line missing:\n%s", got)
	}
	date := time.Now().Format("2006-01-02")
	if _, err := os.Stat(filepath.Join(dir, date+"_store.log")); !os.IsNotExist(err) {
		t.Error("store log should not be created")
	}
}

func TestJSONFormatWithRequestID(t *testing.T) {
	resetLogging(t)
	dir := filepath.Join(t.TempDir(), "logs")

	if err := Initialize(config.LoggingConfig{Level: "info", DebugMode: true, JSONFormat: true, Dir: dir}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	WithRequestID(CategoryExtract, "run-1").WithField("source", "a.txt").Info("found %d", 3)
	CloseAll()

	got := readCategoryLog(t, dir, CategoryExtract)
	idx := strings.Index(got, "{")
	if idx < 0 {
		t.Fatalf("no JSON in log: %s", got)
	}
	var entry StructuredLogEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(got[idx:])), &entry); err != nil {
		t.Fatalf("bad JSON entry: %v", err)
	}
	if entry.RequestID != "run-1" || entry.Message != "found 3" || entry.Level != "info" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Fields["source"] != "a.txt" {
		t.Errorf("missing source field: %+v", entry.Fields)
	}
}

func TestInitializeRequiresDir(t *testing.T) {
	resetLogging(t)
	if err := Initialize(config.LoggingConfig{DebugMode: true}); err == nil {
		t.Error("expected error without a logs dir")
	}
}

func TestConcurrentGet(t *testing.T) {
	resetLogging(t)
	dir := filepath.Join(t.TempDir(), "logs")
	if err := Initialize(config.LoggingConfig{Level: "info", DebugMode: true, Dir: dir}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Extract("worker %d", n)
		}(i)
	}
	wg.Wait()
	CloseAll()

	got := readCategoryLog(t, dir, CategoryExtract)
	if n := strings.Count(got, "worker"); n != 20 {
		t.Errorf("expected 20 lines, got %d", n)
	}
}

func TestTimer(t *testing.T) {
	resetLogging(t)
	dir := filepath.Join(t.TempDir(), "logs")
	if err := Initialize(config.LoggingConfig{Level: "debug", DebugMode: true, Dir: dir}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	timer := StartTimer(CategoryExtract, "pass")
	if d := timer.StopWithThreshold(time.Hour); d < 0 {
		t.Errorf("negative duration %v", d)
	}
	CloseAll()

	if got := readCategoryLog(t, dir, CategoryExtract); !strings.Contains(got, "pass completed in") {
		t.Errorf("timer line missing:\n%s", got)
	}
}

// Re-initializing while workers log must not race on the shared settings.
func TestInitializeWhileLogging(t *testing.T) {
	resetLogging(t)
	dirA := filepath.Join(t.TempDir(), "a")
	dirB := filepath.Join(t.TempDir(), "b")
	if err := Initialize(config.LoggingConfig{Level: "debug", DebugMode: true, Dir: dirA}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					ExtractDebug("worker %d", n)
					Get(CategoryStore).Info("worker %d", n)
				}
			}
		}(i)
	}

	for i := 0; i < 10; i++ {
		dir, level := dirA, "info"
		if i%2 == 1 {
			dir, level = dirB, "debug"
		}
		if err := Initialize(config.LoggingConfig{Level: level, DebugMode: true, Dir: dir}); err != nil {
			t.Errorf("Initialize %d failed: %v", i, err)
		}
	}
	close(stop)
	wg.Wait()
	CloseAll()

	if got := readCategoryLog(t, dirB, CategoryBoot); !strings.Contains(got, "Logs directory: "+dirB) {
		t.Errorf("boot log for %s missing directory line:\n%s", dirB, got)
	}
}
