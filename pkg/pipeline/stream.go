package pipeline

import (
	"time"

	"github.com/siminterp/siminterp/pkg/domain"
	"github.com/siminterp/siminterp/pkg/providers/stt"
)

// runStreamTranscribe replaces the runSegment+runTranscribe pair when the
// configured Transcriber implements StreamingTranscriber: spec.md §4.1's
// "Alternate mode" hands the recognizer raw frames directly and lets its
// own server-side VAD decide utterance boundaries, instead of running the
// local energy-threshold Segmenter first.
func (s *Session) runStreamTranscribe() {
	defer s.wg.Done()
	defer close(s.translateQueue)

	streaming := s.providers.Transcriber.(stt.StreamingTranscriber)
	audioCh, err := streaming.StreamTranscribe(s.ctx, s.opts.SourceLang, s.onStreamTranscriptEvent)
	if err != nil {
		s.recordError("transcribe", 0, "network", err)
		return
	}
	defer close(audioCh)

	for {
		select {
		case <-s.ctx.Done():
			return

		case frame, ok := <-s.capture.Frames:
			if !ok {
				return
			}
			if s.echo != nil && s.echo.IsEcho(frame.PCM) {
				continue
			}
			select {
			case audioCh <- frame.PCM:
			case <-s.ctx.Done():
				return
			}
		}
	}
}

// onStreamTranscriptEvent folds one recognizer event into the source
// Assembler, exactly as runTranscribe folds retried file-mode text, and
// forwards the finalized line to the Translator stage once the recognizer
// commits to an utterance boundary. It runs on the StreamTranscribe reader
// goroutine, which calls it strictly sequentially, so no locking is needed
// around srcBuffer/curUtteranceID in this mode.
func (s *Session) onStreamTranscriptEvent(ev domain.TranscriptEvent) error {
	if s.curUtteranceID == 0 {
		s.curUtteranceID = s.nextID()
	}
	id := s.curUtteranceID

	if ev.Kind == domain.EventDelta {
		s.srcBuffer.Append(ev.Text)
		return nil
	}
	if ev.Kind != domain.EventDone {
		return nil
	}

	s.srcBuffer.Append(ev.Text)
	line, ok := s.srcBuffer.Finalize()
	s.curUtteranceID = 0
	if !ok {
		s.gate.waitTurn(id)
		s.gate.complete(id)
		return nil
	}

	rewritten := s.glossary.Apply(line)

	s.gate.waitTurn(id)
	if s.transcript != nil {
		s.transcript.AppendSource(id, s.opts.SourceLang, line, time.Now())
	}
	s.logger.Info("src", "utterance", id, "text", line)

	if s.providers.Translator == nil {
		s.gate.complete(id)
		return nil
	}

	select {
	case s.translateQueue <- sourceJob{UtteranceID: id, Text: rewritten}:
	case <-s.ctx.Done():
	}
	return nil
}
