package stt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/siminterp/siminterp/pkg/audio"
	"github.com/siminterp/siminterp/pkg/domain"
)

// FasterWhisperTranscriber shells out to a faster-whisper CLI wrapper,
// mirroring original_source's FasterWhisperTranscriber: when Threads is 0
// no --threads flag is passed and the binary picks its own default, and the
// model runs on whatever device config.WhisperDevice names.
type FasterWhisperTranscriber struct {
	BinaryPath string
	Model      string
	Threads    int
	Device     string
	sampleRate int
}

// NewFasterWhisperTranscriber returns an adapter for modelSize (name or
// local path), running on threads CPU threads (0 lets the binary pick its
// own default) and device ("cpu"/"cuda"/"auto").
func NewFasterWhisperTranscriber(modelSize string, threads int, device string) *FasterWhisperTranscriber {
	return &FasterWhisperTranscriber{
		BinaryPath: "faster-whisper",
		Model:      modelSize,
		Threads:    threads,
		Device:     device,
		sampleRate: 16000,
	}
}

func (f *FasterWhisperTranscriber) Name() string { return "faster-whisper" }

func (f *FasterWhisperTranscriber) Transcribe(ctx context.Context, pcm []byte, lang domain.Language) (string, error) {
	wavPath, cleanup, err := writeTempWAV(pcm, f.sampleRate)
	if err != nil {
		return "", err
	}
	defer cleanup()

	args := []string{"--model", f.Model, "--output-format", "json", "--device", f.Device}
	if f.Threads > 0 {
		args = append(args, "--threads", fmt.Sprint(f.Threads))
	}
	if lang != "" {
		args = append(args, "--language", string(lang))
	}
	args = append(args, wavPath)

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, f.BinaryPath, args...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("stt: faster-whisper: %w", err)
	}

	return normalizeSegments(stdout.Bytes()), nil
}

func writeTempWAV(pcm []byte, sampleRate int) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "siminterp-utterance-*.wav")
	if err != nil {
		return "", nil, fmt.Errorf("stt: temp wav: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(audio.NewWavBuffer(pcm, sampleRate)); err != nil {
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("stt: temp wav: write: %w", err)
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}
