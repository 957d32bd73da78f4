package pipeline

import (
	"testing"
	"time"

	"github.com/siminterp/siminterp/pkg/domain"
)

func TestOnStreamTranscriptEventAssemblesDeltasAndForwards(t *testing.T) {
	s := newTestSession(t, Providers{
		Transcriber: &mockTranscriber{},
		Translator:  &mockTranslator{text: "hola mundo"},
	})

	if err := s.onStreamTranscriptEvent(domain.TranscriptEvent{Kind: domain.EventDelta, Text: "hello"}); err != nil {
		t.Fatalf("delta: %v", err)
	}
	if err := s.onStreamTranscriptEvent(domain.TranscriptEvent{Kind: domain.EventDone, Text: "hello world"}); err != nil {
		t.Fatalf("done: %v", err)
	}

	select {
	case job := <-s.translateQueue:
		if job.Text != "hello world" {
			t.Errorf("want assembled text %q, got %q", "hello world", job.Text)
		}
		if job.UtteranceID == 0 {
			t.Error("want a non-zero utterance id")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sourceJob")
	}

	if s.curUtteranceID != 0 {
		t.Errorf("want curUtteranceID reset after done, got %d", s.curUtteranceID)
	}
}

func TestOnStreamTranscriptEventStartsFreshUtteranceAfterDone(t *testing.T) {
	s := newTestSession(t, Providers{Transcriber: &mockTranscriber{}, Translator: &mockTranslator{text: "x"}})

	s.onStreamTranscriptEvent(domain.TranscriptEvent{Kind: domain.EventDone, Text: "first"})
	first := <-s.translateQueue
	s.gate.complete(first.UtteranceID) // stands in for runTranslate finishing utterance 1

	s.onStreamTranscriptEvent(domain.TranscriptEvent{Kind: domain.EventDone, Text: "second"})
	second := <-s.translateQueue

	if second.UtteranceID <= first.UtteranceID {
		t.Errorf("want increasing utterance ids, got %d then %d", first.UtteranceID, second.UtteranceID)
	}
}
