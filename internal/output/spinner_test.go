package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestSpinner_NonTTY(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner("Reading NTUSER.DAT")
	s.SetWriter(&buf)

	s.Start()
	s.Start() // second Start is a no-op
	s.StopWithMessage("✓ done")

	out := buf.String()
	if strings.Count(out, "Reading NTUSER.DAT...") != 1 {
		t.Errorf("expected message printed once, got %q", out)
	}
	if !strings.HasSuffix(out, "✓ done\n") {
		t.Errorf("expected final message, got %q", out)
	}
	if strings.Contains(out, "\r") {
		t.Error("expected no carriage returns on a non-TTY writer")
	}
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner("idle")
	s.SetWriter(&buf)

	s.Stop()
	s.Stop()

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestWriterIsTTY_Buffer(t *testing.T) {
	if writerIsTTY(&bytes.Buffer{}) {
		t.Error("a bytes.Buffer is never a TTY")
	}
}
