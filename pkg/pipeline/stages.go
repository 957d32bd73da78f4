package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/siminterp/siminterp/pkg/audio"
	"github.com/siminterp/siminterp/pkg/domain"
	"github.com/siminterp/siminterp/pkg/providers/translate"
	"github.com/siminterp/siminterp/pkg/providers/tts"
)

// maxTranscribeAttempts and transcribeBackoff implement spec.md §4.2's
// "bounded exponential backoff" retry policy for transient Transcriber
// network errors.
const maxTranscribeAttempts = 3

var transcribeBackoff = 200 * time.Millisecond

// runSegment is the Segmenter stage: it pulls Frames from Capture, feeds
// them through the energy-threshold VAD, and pushes finalized Utterances
// downstream. It implements spec.md §4.6's backpressure policy: when the
// Transcriber queue is saturated, silence frames are dropped rather than
// blocking Capture's device callback.
func (s *Session) runSegment() {
	defer s.wg.Done()
	defer close(s.transcribeQueue)

	for {
		select {
		case <-s.ctx.Done():
			if seg := s.segmenter.Flush(time.Now()); seg != nil {
				s.pushUtterance(seg)
			}
			return

		case frame, ok := <-s.capture.Frames:
			if !ok {
				return
			}
			if s.echo != nil && s.echo.IsEcho(frame.PCM) {
				continue
			}

			now := time.Now()
			if len(s.transcribeQueue) == cap(s.transcribeQueue) && s.segmenter.Idle() && frame.Peak() < s.segmenter.Threshold() {
				s.metrics.AudioFramesDrop.Inc()
				continue
			}

			if seg := s.segmenter.Process(frame, now); seg != nil {
				s.pushUtterance(seg)
			}
		}
	}
}

func (s *Session) pushUtterance(seg *audio.Segment) {
	s.metrics.SpeechSegments.Inc()
	u := Utterance{ID: s.nextID(), PCM: seg.PCM, StartedAt: seg.StartedAt, EndedAt: seg.EndedAt, Forced: seg.Forced}
	select {
	case s.transcribeQueue <- u:
	case <-s.ctx.Done():
	}
}

// runTranscribe is the Transcriber stage: one utterance in, the
// assembler-folded, glossary-rewritten source line out. Persistent
// failure drops the utterance with a warning, per spec.md §7.
func (s *Session) runTranscribe() {
	defer s.wg.Done()
	defer close(s.translateQueue)

	for u := range s.transcribeQueue {
		start := time.Now()
		text, err := s.transcribeWithRetry(u)
		s.metrics.StageDuration.WithLabelValues("transcribe").Observe(time.Since(start).Seconds())

		if err != nil {
			s.recordError("transcribe", u.ID, "network", err)
			// drop: no SRC/TGT for this utterance, but the turn still has to
			// be taken in order before it can be handed to utterance u.ID+1.
			s.gate.waitTurn(u.ID)
			s.gate.complete(u.ID)
			continue
		}

		s.srcBuffer.Append(text)
		line, ok := s.srcBuffer.Finalize()
		if !ok {
			s.gate.waitTurn(u.ID)
			s.gate.complete(u.ID)
			continue
		}

		if s.pendingCoalesce != "" {
			line = s.pendingCoalesce + " " + line
			s.pendingCoalesce = ""
		}

		rewritten := s.glossary.Apply(line)

		s.gate.waitTurn(u.ID)
		if s.transcript != nil {
			s.transcript.AppendSource(u.ID, s.opts.SourceLang, line, time.Now())
		}
		s.logger.Info("src", "utterance", u.ID, "text", line)

		if s.providers.Translator == nil {
			s.gate.complete(u.ID)
			continue
		}

		select {
		case s.translateQueue <- sourceJob{UtteranceID: u.ID, Text: rewritten}:
		default:
			// Downstream saturated: coalesce into the next utterance rather
			// than buffer unboundedly or block the Transcriber.
			s.pendingCoalesce = rewritten
			s.gate.complete(u.ID)
		}
	}
}

// transcribeWithRetry retries a transient Transcriber error with bounded
// exponential backoff, per spec.md §4.2.
func (s *Session) transcribeWithRetry(u Utterance) (string, error) {
	var lastErr error
	backoff := transcribeBackoff
	for attempt := 0; attempt < maxTranscribeAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-s.ctx.Done():
				return "", s.ctx.Err()
			}
			backoff *= 2
		}
		text, err := s.providers.Transcriber.Transcribe(s.ctx, u.PCM, s.opts.SourceLang)
		if err == nil {
			return strings.TrimSpace(text), nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w: %v", ErrNetwork, lastErr)
}

// runTranslate is the Translator stage: a finalized source line in, a
// finalized target line out, via either a streaming or a one-shot
// Translator. On failure, the source line is echoed unchanged so the
// pipeline never blocks (spec.md §4.4, §7).
func (s *Session) runTranslate() {
	defer s.wg.Done()
	defer close(s.synthesizeQueue)

	for job := range s.translateQueue {
		start := time.Now()
		target, err := s.translate(job)
		s.metrics.StageDuration.WithLabelValues("translate").Observe(time.Since(start).Seconds())

		if err != nil {
			s.recordError("translate", job.UtteranceID, "network", err)
			target = job.Text // fallback: echo source unchanged
		} else {
			s.recordHistory(job.Text, target)
		}

		s.gate.waitTurn(job.UtteranceID)
		if s.transcript != nil {
			s.transcript.AppendTarget(job.UtteranceID, s.opts.TargetLang, target, time.Now())
		}
		s.logger.Info("tgt", "utterance", job.UtteranceID, "text", target)
		s.gate.complete(job.UtteranceID)

		if s.providers.Synthesizer == nil || strings.TrimSpace(target) == "" {
			continue
		}
		select {
		case s.synthesizeQueue <- targetJob{UtteranceID: job.UtteranceID, Text: target}:
		case <-s.ctx.Done():
		}
	}
}

func (s *Session) translate(job sourceJob) (string, error) {
	req := translate.Request{
		SourceText:   job.Text,
		SourceLang:   s.opts.SourceLang,
		TargetLang:   s.opts.TargetLang,
		Topic:        s.opts.Topic,
		History:      s.historySnapshot(),
		GlossaryHint: s.glossary.Hint(),
		Temperature:  s.opts.Temperature,
	}

	if streaming, ok := s.providers.Translator.(translate.StreamingTranslator); ok {
		err := streaming.StreamTranslate(s.ctx, req, func(ev domain.TranscriptEvent) error {
			if ev.Kind == domain.EventDelta {
				s.tgtBuffer.Append(ev.Text)
			}
			return nil
		})
		if err != nil {
			s.tgtBuffer.Append(job.Text) // leave a clean state; Finalize below discards a bad buffer
			s.tgtBuffer.Finalize()
			return "", err
		}
		s.tgtBuffer.Append("") // no-op, keeps symmetry with the delta-driven path
		line, _ := s.tgtBuffer.Finalize()
		if line == "" {
			return job.Text, nil
		}
		return line, nil
	}

	return s.providers.Translator.Translate(s.ctx, req)
}

func (s *Session) recordHistory(source, target string) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	s.history = append(s.history, translate.HistoryPair{Source: source, Target: target})
	n := s.opts.History
	if n <= 0 {
		n = 1
	}
	if len(s.history) > n {
		s.history = s.history[len(s.history)-n:]
	}
}

func (s *Session) historySnapshot() []translate.HistoryPair {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	out := make([]translate.HistoryPair, len(s.history))
	copy(out, s.history)
	return out
}

// runSynthesize is the Synthesizer stage: a finalized target line in,
// PCM audio written to the Sink out. Synthesis failure skips audio for
// that utterance without blocking the pipeline, per spec.md §7; the Sink
// itself applies the device-fallback ladder on a rejected sample rate.
func (s *Session) runSynthesize() {
	defer s.wg.Done()

	for job := range s.synthesizeQueue {
		start := time.Now()
		req := tts.Request{Text: job.Text, Voice: s.opts.TTSVoice, Lang: s.opts.TargetLang, Speed: s.opts.TTSSpeed}

		var out audio.Out
		var err error
		if streaming, ok := s.providers.Synthesizer.(tts.StreamingSynthesizer); ok {
			var pcm []byte
			var rate, channels int
			rate, channels, err = streaming.StreamSynthesize(s.ctx, req, func(chunk []byte) error {
				pcm = append(pcm, chunk...)
				return nil
			})
			out = audio.Out{PCM: pcm, Rate: rate, Channels: channels}
		} else {
			var res tts.Result
			res, err = s.providers.Synthesizer.Synthesize(s.ctx, req)
			out = audio.Out{PCM: res.PCM, Rate: res.Rate, Channels: res.Channels}
		}
		s.metrics.StageDuration.WithLabelValues("synthesize").Observe(time.Since(start).Seconds())

		if err != nil {
			s.recordError("synthesize", job.UtteranceID, "network", err)
			continue
		}
		if len(out.PCM) == 0 {
			continue
		}

		s.writeToSink(out)
	}
}

// writeToSink hands PCM to the Sink, invoking the device-fallback ladder
// whenever the Synthesizer declares a rate other than the one the device
// was opened at (spec.md §4.5's four-step ladder).
func (s *Session) writeToSink(out audio.Out) {
	if out.Rate != 0 && out.Rate != s.sink.Rate() {
		if err := s.sink.Fallback(out); err != nil {
			s.recordError("sink", 0, "device", err)
		}
		return
	}
	s.sink.Write(out)
}
