package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/siminterp/siminterp/pkg/assembler"
	"github.com/siminterp/siminterp/pkg/audio"
	"github.com/siminterp/siminterp/pkg/dictionary"
	"github.com/siminterp/siminterp/pkg/logging"
	"github.com/siminterp/siminterp/pkg/metrics"
	"github.com/siminterp/siminterp/pkg/providers/translate"
)

// Session owns every piece of mutable state for one interpretation run:
// the Segmenter, the four bounded stage queues, the provider adapters,
// and the transcript log. Construction never starts I/O; Start does, in
// the dependency order spec.md §4.6 requires.
type Session struct {
	logger    logging.Logger
	metrics   *metrics.Metrics
	glossary  *dictionary.Glossary
	providers Providers
	opts      Options

	capture   *audio.Capture
	sink      *audio.Sink
	segmenter *audio.Segmenter
	echo      *audio.EchoSuppressor

	transcript *TranscriptLog
	gate       *printGate

	transcribeQueue chan Utterance
	translateQueue  chan sourceJob
	synthesizeQueue chan targetJob

	srcBuffer *assembler.TextBuffer
	tgtBuffer *assembler.TextBuffer

	historyMu sync.Mutex
	history   []translate.HistoryPair

	pendingCoalesce string // unsent source text folded into the next utterance under backpressure

	curUtteranceID int64 // streaming-mode only: id of the utterance currently being assembled, 0 if none

	seq int64 // monotonic utterance id generator

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stopOnce sync.Once

	errMu sync.Mutex
	errs  []StageError
}

// New constructs a Session. capture/sink/segmenter are pre-opened device
// handles (spec.md §4.6's Sink/Capture construction happens before
// Start, since opening a device and starting its stream are distinct
// steps for Capture). glossary may be dictionary.Empty().
func New(providers Providers, opts Options, capture *audio.Capture, sink *audio.Sink, segmenter *audio.Segmenter, echo *audio.EchoSuppressor, glossary *dictionary.Glossary, transcript *TranscriptLog, m *metrics.Metrics, logger logging.Logger) (*Session, error) {
	if providers.Transcriber == nil {
		return nil, fmt.Errorf("%w: transcriber is required", ErrNilProvider)
	}
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = 8
	}
	if glossary == nil {
		glossary = dictionary.Empty()
	}
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}

	return &Session{
		logger:          logging.OrDefault(logger),
		metrics:         m,
		glossary:        glossary,
		providers:       providers,
		opts:            opts,
		capture:         capture,
		sink:            sink,
		segmenter:       segmenter,
		echo:            echo,
		transcript:      transcript,
		gate:            newPrintGate(),
		transcribeQueue: make(chan Utterance, opts.QueueDepth),
		translateQueue:  make(chan sourceJob, opts.QueueDepth),
		synthesizeQueue: make(chan targetJob, opts.QueueDepth),
		srcBuffer:       assembler.New(),
		tgtBuffer:       assembler.New(),
	}, nil
}

// Start launches the stage goroutines in dependency order (Sink and
// Synthesizer need no goroutine of their own beyond the synthesize
// stage's direct calls) and finally starts Capture, so no frame is
// produced before every consumer exists. When the configured Transcriber
// is a StreamingTranscriber, the Segmenter runs in PassThrough mode and
// runStreamTranscribe replaces the local-VAD runSegment/runTranscribe
// pair entirely, per spec.md §4.1's "Alternate mode".
func (s *Session) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go s.runSynthesize()
	go s.runTranslate()

	if s.segmenter.PassThrough {
		s.wg.Add(1)
		go s.runStreamTranscribe()
	} else {
		s.wg.Add(2)
		go s.runTranscribe()
		go s.runSegment()
	}

	if err := s.capture.Start(s.ctx); err != nil {
		s.cancel()
		return fmt.Errorf("%w: %v", ErrDevice, err)
	}
	return nil
}

// Stop signals every stage to drain and close, in the reverse of Start's
// dependency order, then releases devices and network handles. Safe to
// call more than once; returns once every stage goroutine has exited.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.gate.stop()
		s.wg.Wait()

		s.capture.Close()
		s.sink.Close()
		if s.transcript != nil {
			s.transcript.Close()
		}
		closeIfCloser(s.providers.Transcriber)
		closeIfCloser(s.providers.Translator)
		closeIfCloser(s.providers.Synthesizer)
	})
}

func closeIfCloser(v any) {
	if c, ok := v.(io.Closer); ok {
		c.Close()
	}
}

// Errors returns every non-fatal StageError recorded so far.
func (s *Session) Errors() []StageError {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	out := make([]StageError, len(s.errs))
	copy(out, s.errs)
	return out
}

func (s *Session) recordError(stage string, utteranceID int64, kind string, err error) {
	s.errMu.Lock()
	s.errs = append(s.errs, StageError{Stage: stage, UtteranceID: utteranceID, Err: err})
	s.errMu.Unlock()
	s.metrics.StageErrors.WithLabelValues(stage, kind).Inc()
	s.logger.Warn("pipeline: stage error", "stage", stage, "utterance", utteranceID, "kind", kind, "error", err)
}

// nextID returns the next monotonically increasing utterance id.
func (s *Session) nextID() int64 {
	return atomic.AddInt64(&s.seq, 1)
}

// Transcript exposes the running log, e.g. for a display layer to poll.
func (s *Session) Transcript() *TranscriptLog {
	return s.transcript
}
