package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/siminterp/siminterp/pkg/logging"
)

// ErrSinkExhausted is returned (and only logged, never propagated as
// fatal) when every step of the device-fallback ladder has failed.
var ErrSinkExhausted = errors.New("audio: sink: exhausted device fallback ladder")

// Out is a chunk of synthesized PCM ready to be written to the output
// device, spec.md §3's AudioOut entity.
type Out struct {
	PCM      []byte
	Rate     int
	Channels int
}

// Sink opens an output device and writes AudioOut PCM to it, applying the
// resample-and-retry fallback ladder from spec.md §4.5 whenever the
// configured device rejects the Synthesizer's declared rate.
type Sink struct {
	logger logging.Logger
	echo   *EchoSuppressor

	deviceIndex int

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	pending []byte
	rate    int
}

// NewSink opens deviceIndex (-1 for default) at rate. echo may be nil.
func NewSink(deviceIndex, rate int, echo *EchoSuppressor, logger logging.Logger) (*Sink, error) {
	s := &Sink{
		logger:      logging.OrDefault(logger),
		echo:        echo,
		deviceIndex: deviceIndex,
		rate:        rate,
	}
	if err := s.open(deviceIndex, rate); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sink) open(deviceIndex, rate int) error {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("audio: sink: init context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(rate)
	if deviceIndex >= 0 {
		devices, derr := mctx.Devices(malgo.Playback)
		if derr == nil && deviceIndex < len(devices) {
			deviceConfig.Playback.DeviceID = devices[deviceIndex].ID.Pointer()
		}
	}

	onSamples := func(output, _ []byte, _ uint32) {
		s.mu.Lock()
		n := copy(output, s.pending)
		played := append([]byte(nil), output[:n]...)
		s.pending = s.pending[n:]
		for i := n; i < len(output); i++ {
			output[i] = 0
		}
		s.mu.Unlock()

		if s.echo != nil && n > 0 {
			s.echo.RecordPlayedAudio(played)
		}
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		mctx.Uninit()
		return err
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		return err
	}

	s.ctx = mctx
	s.device = device
	s.rate = rate
	s.deviceIndex = deviceIndex
	return nil
}

func (s *Sink) closeDevice() {
	if s.device != nil {
		s.device.Uninit()
		s.device = nil
	}
	if s.ctx != nil {
		s.ctx.Uninit()
		s.ctx = nil
	}
}

// Write queues out.PCM for playback at the device's current rate. It does
// not check out.Rate or resample; PCM at another rate goes through
// Fallback instead.
func (s *Sink) Write(out Out) {
	s.mu.Lock()
	s.pending = append(s.pending, out.PCM...)
	s.mu.Unlock()
}

// Fallback executes the four-step device-fallback ladder: resample to
// 48kHz (or 44.1kHz if already 48kHz), retry the configured device, then
// the system default device, then give up. It is invoked by the caller
// when the initial device open (or a mid-session write) fails with an
// invalid-sample-rate or host error.
func (s *Sink) Fallback(out Out) error {
	fallbackRate := 48000
	if out.Rate == 48000 {
		fallbackRate = 44100
	}
	resampled := Out{
		PCM:      ResamplePCM16(out.PCM, out.Rate, fallbackRate),
		Rate:     fallbackRate,
		Channels: out.Channels,
	}

	s.closeDevice()
	if err := s.open(s.deviceIndex, fallbackRate); err == nil {
		s.Write(resampled)
		return nil
	}
	s.logger.Warn("sink: configured device rejected fallback rate, retrying default device", "rate", fallbackRate)

	if err := s.open(-1, fallbackRate); err == nil {
		s.Write(resampled)
		return nil
	}

	s.logger.Error("sink: exhausted device fallback ladder, discarding utterance audio")
	return ErrSinkExhausted
}

// Rate reports the sample rate the device is currently opened at, so a
// caller can detect a Synthesizer declaring a different rate and invoke
// Fallback instead of writing mismatched PCM straight to the device.
func (s *Sink) Rate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// Close releases the device.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeDevice()
	return nil
}
