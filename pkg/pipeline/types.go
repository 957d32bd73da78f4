// Package pipeline is the Pipeline Orchestrator: it owns the bounded
// inter-stage queues, the stage goroutines (segment, transcribe,
// translate, synthesize; capture and sink are driven by their device
// callbacks), start/stop lifecycle, backpressure policy, and the
// transcript log, per spec.md §4.6 and §5.
package pipeline

import (
	"time"

	"github.com/siminterp/siminterp/pkg/domain"
	"github.com/siminterp/siminterp/pkg/providers/stt"
	"github.com/siminterp/siminterp/pkg/providers/translate"
	"github.com/siminterp/siminterp/pkg/providers/tts"
)

// Utterance is a finalized speech buffer handed from the Segmenter to the
// Transcriber, spec.md §3's Utterance entity.
type Utterance struct {
	ID        int64
	PCM       []byte
	StartedAt time.Time
	EndedAt   time.Time
	Forced    bool
}

// sourceJob is one finalized, glossary-rewritten source line waiting for
// translation.
type sourceJob struct {
	UtteranceID int64
	Text        string
}

// targetJob is one finalized target line waiting for synthesis.
type targetJob struct {
	UtteranceID int64
	Text        string
}

// Providers bundles the three capability adapters a Session needs.
// Transcriber is required; Translator and Synthesizer are optional,
// matching spec.md §6's --translate/--tts toggles.
type Providers struct {
	Transcriber stt.Transcriber
	Translator  translate.Translator
	Synthesizer tts.Synthesizer
}

// Options carries the per-session language/config knobs the pipeline
// needs beyond device and provider selection (spec.md §6).
type Options struct {
	SourceLang domain.Language
	TargetLang domain.Language
	Topic      string
	History    int // rolling (source, target) pair count kept for translator context
	TTSVoice   string
	TTSSpeed   float64

	Temperature float64 // translator sampling temperature, spec.md §4.4

	SampleRate int
	ChunkSize  int

	QueueDepth int // bounded queue capacity between stages
}

// DefaultOptions mirrors config.Default's pipeline-relevant fields.
func DefaultOptions() Options {
	return Options{
		SourceLang:  "auto",
		TargetLang:  "en",
		History:     10,
		TTSSpeed:    1.0,
		Temperature: 0.3,
		SampleRate:  16000,
		ChunkSize:   1024,
		QueueDepth:  8,
	}
}
