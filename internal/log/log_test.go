package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(LevelInfo)

	Debug("hidden", "k", "v")
	Info("shown", "gig", "jazz-night")
	Warn("careful")
	Error("broke", errors.New("boom"), "attempt", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("DEBUG line emitted at INFO level")
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "[INFO] shown gig=jazz-night") {
		t.Errorf("info line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "[WARN] careful") {
		t.Errorf("warn line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "[ERROR] broke err=boom attempt=2") {
		t.Errorf("error line = %q", lines[2])
	}
}

func TestSetLevelRaisesThreshold(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(LevelError)

	Info("suppressed")
	Warn("also suppressed")
	Error("kept", errors.New("bad"))

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("sub-ERROR lines emitted at ERROR level:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] kept") {
		t.Errorf("error line missing:\n%s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{" INFO ", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"Error", LevelError, true},
		{"verbose", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := ParseLevel(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("ParseLevel(%q) = %q, %v; want %q, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}
