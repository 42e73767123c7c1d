package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerConsoleFields(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithConsole(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Sync() }()

	ctx := context.Background()
	Get().Info(ctx, "gate selected",
		String("gate", "5A"),
		Int("attempt", 1),
		Bool("exact", true),
		Duration("took", 2*time.Second),
		Error(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{"gate selected", "gate=5A", "attempt=1", "exact=true", "took=2s", "error=boom", "source="} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output %q", want, out)
		}
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithConsole(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Sync() }()

	ctx := context.Background()
	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record written at info level: %q", buf.String())
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Get().Debug(ctx, "visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("debug record missing after level change: %q", buf.String())
	}

	if err := SetLevelString("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLoggerFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.log")
	var console bytes.Buffer
	if err := Init(WithConsole(&console), WithFile(path)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("walker").Warn(context.Background(), "menu unchanged", String("title", "Select gate"))
	if err := Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading diagnostic file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"menu unchanged"`) {
		t.Errorf("json record missing from diagnostic file: %s", data)
	}
	if !strings.Contains(console.String(), "menu unchanged") {
		t.Errorf("console sink missed the record: %q", console.String())
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error(context.Background(), "dropped")
	if l.Named("x") == nil {
		t.Fatal("named nop logger is nil")
	}
}
