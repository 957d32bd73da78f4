package stt

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/siminterp/siminterp/pkg/domain"
)

// WhisperCppTranscriber shells out to a whisper.cpp CLI build, mirroring
// original_source's WhisperCppTranscriber: Model may be a model name known
// to the binary's built-in downloader or a local path to a .bin file.
type WhisperCppTranscriber struct {
	BinaryPath string
	Model      string
	Threads    int
	sampleRate int
}

// NewWhisperCppTranscriber returns an adapter for model (name or local
// .bin path), running on threads CPU threads (0 lets the binary choose).
func NewWhisperCppTranscriber(model string, threads int) *WhisperCppTranscriber {
	return &WhisperCppTranscriber{
		BinaryPath: "whisper-cli",
		Model:      model,
		Threads:    threads,
		sampleRate: 16000,
	}
}

func (w *WhisperCppTranscriber) Name() string { return "whispercpp" }

func (w *WhisperCppTranscriber) Transcribe(ctx context.Context, pcm []byte, lang domain.Language) (string, error) {
	wavPath, cleanup, err := writeTempWAV(pcm, w.sampleRate)
	if err != nil {
		return "", err
	}
	defer cleanup()

	args := []string{"-m", w.Model, "-f", wavPath, "-oj", "-nt"}
	if w.Threads > 0 {
		args = append(args, "-t", fmt.Sprint(w.Threads))
	}
	if lang != "" {
		args = append(args, "-l", string(lang))
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, w.BinaryPath, args...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("stt: whispercpp: %w", err)
	}

	return normalizeSegments(stdout.Bytes()), nil
}
