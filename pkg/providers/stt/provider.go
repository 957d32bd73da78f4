// Package stt adapts third-party speech recognizers to the Transcriber
// capability, with both a file-mode (whole-utterance) contract and a
// stream-mode contract that emits incremental TranscriptEvents for the
// Assembler to fold.
package stt

import (
	"context"

	"github.com/siminterp/siminterp/pkg/domain"
)

// Transcriber turns one finalized utterance's PCM into text. Implementations
// that only support file-mode recognition (the four cloud adapters, and the
// two local whisper adapters) satisfy this alone.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte, lang domain.Language) (string, error)
	Name() string
}

// StreamingTranscriber additionally accepts audio incrementally and emits
// TranscriptEvents as the recognizer commits to text, rather than waiting
// for the Segmenter to finalize a whole utterance first.
type StreamingTranscriber interface {
	Transcriber
	StreamTranscribe(ctx context.Context, lang domain.Language, onEvent func(domain.TranscriptEvent) error) (chan<- []byte, error)
}
