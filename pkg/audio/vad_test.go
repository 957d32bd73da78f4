package audio

import (
	"testing"
	"time"
)

func loudFrame(n int) Frame {
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		pcm[2*i] = 0x00
		pcm[2*i+1] = 0x7f // high byte -> large peak amplitude
	}
	return Frame{PCM: pcm, SampleRate: 16000, Channels: 1}
}

func quietFrame(n int) Frame {
	return Frame{PCM: make([]byte, n*2), SampleRate: 16000, Channels: 1}
}

func TestSegmenterEmitsUtteranceAfterSilence(t *testing.T) {
	cfg := DefaultSegmenterConfig()
	cfg.AmbientDurationMS = 0
	cfg.MinSpeechMS = 100
	cfg.SilenceMS = 200
	seg := NewSegmenter(cfg)

	start := time.Unix(0, 0)
	if s := seg.Process(loudFrame(10), start); s != nil {
		t.Fatalf("expected no segment while speaking, got %+v", s)
	}
	if s := seg.Process(loudFrame(10), start.Add(150*time.Millisecond)); s != nil {
		t.Fatalf("expected no segment before silence guard, got %+v", s)
	}
	s := seg.Process(quietFrame(10), start.Add(400*time.Millisecond))
	if s == nil {
		t.Fatal("expected an utterance once silence guard elapses")
	}
	if s.Forced {
		t.Error("expected a non-forced finalize")
	}
}

func TestSegmenterForceFinalizesAtMaxUtterance(t *testing.T) {
	cfg := DefaultSegmenterConfig()
	cfg.AmbientDurationMS = 0
	cfg.MinSpeechMS = 50
	cfg.SilenceMS = 10_000
	cfg.MaxUtteranceMS = 500
	seg := NewSegmenter(cfg)

	start := time.Unix(0, 0)
	seg.Process(loudFrame(10), start)
	s := seg.Process(loudFrame(10), start.Add(600*time.Millisecond))
	if s == nil || !s.Forced {
		t.Fatalf("expected a forced finalize at the max-utterance cap, got %+v", s)
	}
}

func TestSegmenterFlushDiscardsOrForceFinalizesPartialUtterance(t *testing.T) {
	cfg := DefaultSegmenterConfig()
	cfg.AmbientDurationMS = 0
	seg := NewSegmenter(cfg)

	start := time.Unix(0, 0)
	seg.Process(loudFrame(10), start)
	s := seg.Flush(start.Add(500 * time.Millisecond))
	if s == nil {
		t.Fatal("expected Flush to finalize the in-progress utterance")
	}
	if !seg.PassThrough && seg.state != stateIdle {
		t.Error("expected segmenter to return to idle after Flush")
	}
}

func TestSegmenterPassThroughIgnoresFrames(t *testing.T) {
	seg := NewSegmenter(DefaultSegmenterConfig())
	seg.PassThrough = true
	if s := seg.Process(loudFrame(10), time.Unix(0, 0)); s != nil {
		t.Fatalf("expected pass-through mode to never emit, got %+v", s)
	}
}

func TestSegmenterCalibrationRaisesThresholdAboveNoiseFloor(t *testing.T) {
	cfg := DefaultSegmenterConfig()
	cfg.AmbientDurationMS = 100
	cfg.AdaptiveMargin = 1000
	cfg.EnergyThreshold = 1
	seg := NewSegmenter(cfg)

	start := time.Unix(0, 0)
	// Feed moderate-noise frames through the calibration window.
	mid := Frame{PCM: func() []byte {
		b := make([]byte, 20)
		for i := 0; i < 10; i++ {
			b[2*i+1] = 0x01
		}
		return b
	}(), SampleRate: 16000, Channels: 1}

	seg.Process(mid, start)
	seg.Process(mid, start.Add(150*time.Millisecond))

	if seg.calibrating {
		t.Fatal("expected calibration window to have closed")
	}
	if seg.threshold <= cfg.EnergyThreshold {
		t.Fatalf("expected adaptive threshold above static default, got %d", seg.threshold)
	}
}
