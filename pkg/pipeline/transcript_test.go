package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTranscriptLogAppendAndLines(t *testing.T) {
	tl, err := NewTranscriptLog("")
	if err != nil {
		t.Fatalf("NewTranscriptLog: %v", err)
	}
	defer tl.Close()

	now := time.Now()
	tl.AppendSource(1, "en", "hello there", now)
	tl.AppendTarget(1, "es", "hola", now)

	lines := tl.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].IsTarget {
		t.Errorf("first line should be the source line")
	}
	if !lines[1].IsTarget {
		t.Errorf("second line should be the target line")
	}
	if lines[0].Text != "hello there" || lines[1].Text != "hola" {
		t.Errorf("unexpected line text: %+v", lines)
	}
}

func TestTranscriptLogMirrorsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.log")
	tl, err := NewTranscriptLog(path)
	if err != nil {
		t.Fatalf("NewTranscriptLog: %v", err)
	}

	tl.AppendSource(1, "en", "testing one two", time.Now())
	tl.AppendTarget(1, "fr", "essai un deux", time.Now())
	if err := tl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "SRC(lang=en): testing one two") {
		t.Errorf("missing SRC record in %q", content)
	}
	if !strings.Contains(content, "TGT(lang=fr): essai un deux") {
		t.Errorf("missing TGT record in %q", content)
	}
}
