package statusline

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlainWriterNeverColorizes(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := New(&buf) // a *bytes.Buffer is never a terminal

	l.Success("saved")
	l.Failure("failed")
	l.Neutral("info")

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("output contains ANSI escapes for a non-terminal writer: %q", out)
	}
	if !strings.Contains(out, "saved") || !strings.Contains(out, "failed") || !strings.Contains(out, "info") {
		t.Errorf("output missing expected messages: %q", out)
	}
}

func TestForcedColorsRendersAnsiForSuccessAndFailure(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := &Line{w: &buf, colors: true}

	l.Success("ok")
	l.Failure("bad")
	l.Neutral("meh")

	out := buf.String()
	if !strings.Contains(out, ansiGreen+"ok"+ansiReset) {
		t.Errorf("expected green-wrapped success message, got %q", out)
	}
	if !strings.Contains(out, ansiRed+"bad"+ansiReset) {
		t.Errorf("expected red-wrapped failure message, got %q", out)
	}
	if strings.Contains(out, ansiGreen+"meh") || strings.Contains(out, ansiRed+"meh") {
		t.Errorf("neutral message should not be colorized, got %q", out)
	}
}
