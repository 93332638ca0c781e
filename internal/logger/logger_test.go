package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T, v bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(v)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
}

func TestLevels_WhenVerbose(t *testing.T) {
	buf := capture(t, true)

	Debug("chunks=%d", 3)
	Info("ranker %s", "llm")
	Warn("fallback: %s", "empty")
	Error("boom")

	want := "[DEBUG] chunks=3\n[INFO] ranker llm\n[WARN] fallback: empty\n[ERROR] boom\n"
	if buf.String() != want {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestLevels_WhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	Debug("a")
	Info("b")
	Warn("c")
	Section("Ingesting")

	if buf.Len() > 0 {
		t.Errorf("expected no output when verbose is disabled, got %q", buf.String())
	}

	Error("always %s", "shown")
	if buf.String() != "[ERROR] always shown\n" {
		t.Errorf("expected errors regardless of verbose, got %q", buf.String())
	}
}

func TestSection(t *testing.T) {
	buf := capture(t, true)

	Section("Retrieving")

	if buf.String() != "\n=== Retrieving ===\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestTimed(t *testing.T) {
	buf := capture(t, true)

	done := Timed("synthesis")
	done()

	if !strings.HasPrefix(buf.String(), "[DEBUG] synthesis took ") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
