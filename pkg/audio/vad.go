package audio

import "time"

// SegmenterConfig carries the tunables from spec.md §4.1: chunk size is
// implicit in the Frame passed to Process, the remaining knobs are
// time-based guards plus the adaptive noise-floor calibration window
// borrowed to resolve the ambient_duration open question.
type SegmenterConfig struct {
	MinSpeechMS     int64
	SilenceMS       int64
	MaxUtteranceMS  int64
	EnergyThreshold int16 // peak amplitude, 0-32767

	// AmbientDurationMS, when > 0, runs an initial noise-floor calibration
	// window before EnergyThreshold is used directly.
	AmbientDurationMS int64
	AdaptiveMargin    int16 // added to the measured noise floor
}

// DefaultSegmenterConfig mirrors original_source's OPENAI_VAD_* defaults.
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		MinSpeechMS:       300,
		SilenceMS:         500,
		MaxUtteranceMS:    15000,
		EnergyThreshold:   500,
		AmbientDurationMS: 1000,
		AdaptiveMargin:    200,
	}
}

type segmenterState int

const (
	stateIdle segmenterState = iota
	stateSpeaking
)

// Segmenter implements the Idle/Speaking state machine that converts a
// frame stream into discrete Utterances. It is also the pass-through mode
// used when the Transcriber declares server-side VAD: PassThrough skips
// the state machine and forwards frames directly.
type Segmenter struct {
	cfg SegmenterConfig

	state    segmenterState
	segStart time.Time
	lastVoice time.Time
	pcm      []byte

	calibrating  bool
	calibStart   time.Time
	calibReadings []int64
	threshold     int16

	PassThrough bool
}

// NewSegmenter returns a Segmenter ready to process frames, beginning a
// calibration window if AmbientDurationMS > 0.
func NewSegmenter(cfg SegmenterConfig) *Segmenter {
	return &Segmenter{
		cfg:         cfg,
		calibrating: cfg.AmbientDurationMS > 0,
		threshold:   cfg.EnergyThreshold,
	}
}

// Segment is a finalized speech buffer ready for the Transcriber, along
// with the reason it was closed.
type Segment struct {
	PCM       []byte
	StartedAt time.Time
	EndedAt   time.Time
	Forced    bool // true if max_utterance_ms forced the commit
}

// Process feeds one frame into the state machine. It returns a non-nil
// Segment when an utterance finalizes (silence-after-speech or the
// max-utterance cap), matching spec.md §4.1's algorithm exactly. now is
// passed in rather than read from time.Now so tests are deterministic.
func (s *Segmenter) Process(frame Frame, now time.Time) *Segment {
	if s.PassThrough {
		return nil
	}

	peak := frame.Peak()
	if s.calibrating {
		s.calibrate(peak, now)
	}

	switch s.state {
	case stateIdle:
		if peak >= s.threshold {
			s.state = stateSpeaking
			s.segStart = now
			s.lastVoice = now
			s.pcm = append(s.pcm[:0], frame.PCM...)
		}
		return nil

	case stateSpeaking:
		s.pcm = append(s.pcm, frame.PCM...)
		if peak >= s.threshold {
			s.lastVoice = now
		}

		silenceElapsed := now.Sub(s.lastVoice).Milliseconds()
		speechElapsed := now.Sub(s.segStart).Milliseconds()

		if silenceElapsed >= s.cfg.SilenceMS && speechElapsed >= s.cfg.MinSpeechMS {
			return s.finalize(now, false)
		}
		if speechElapsed >= s.cfg.MaxUtteranceMS {
			return s.finalize(now, true)
		}
		return nil
	}
	return nil
}

// Threshold returns the currently active energy threshold (post
// calibration, if any), the value the Orchestrator's backpressure policy
// compares an incoming silence frame's peak against.
func (s *Segmenter) Threshold() int16 {
	return s.threshold
}

// Idle reports whether the segmenter is between utterances, the
// condition under which the Orchestrator's backpressure policy may drop
// an incoming silence frame rather than block on a saturated Transcriber
// queue (spec.md §4.6).
func (s *Segmenter) Idle() bool {
	return s.state == stateIdle
}

// Flush force-finalizes any in-progress utterance, used when the
// Orchestrator stops mid-speech per spec.md §8 scenario 6.
func (s *Segmenter) Flush(now time.Time) *Segment {
	if s.state != stateSpeaking {
		return nil
	}
	return s.finalize(now, true)
}

func (s *Segmenter) finalize(now time.Time, forced bool) *Segment {
	seg := &Segment{PCM: s.pcm, StartedAt: s.segStart, EndedAt: now, Forced: forced}
	s.state = stateIdle
	s.pcm = nil
	return seg
}

// calibrate accumulates peak readings for AmbientDurationMS, then sets the
// working threshold to the measured noise floor plus a margin, provided
// that is stricter than the statically configured threshold. This
// resolves ambient_duration as an initial noise-calibration window.
func (s *Segmenter) calibrate(peak int16, now time.Time) {
	if s.calibStart.IsZero() {
		s.calibStart = now
	}
	s.calibReadings = append(s.calibReadings, int64(peak))

	if now.Sub(s.calibStart).Milliseconds() < s.cfg.AmbientDurationMS {
		return
	}

	var sum int64
	for _, r := range s.calibReadings {
		sum += r
	}
	noiseFloor := sum / int64(len(s.calibReadings))
	adaptive := int16(noiseFloor) + s.cfg.AdaptiveMargin
	if adaptive > s.cfg.EnergyThreshold {
		s.threshold = adaptive
	}

	s.calibrating = false
	s.calibReadings = nil
}
