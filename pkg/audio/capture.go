package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/gen2brain/malgo"
)

// Capture opens an input device at 16-bit PCM mono and pushes timestamped
// Frames to Frames until the context is cancelled or Close is called. It
// runs the blocking malgo callback on its own dedicated device thread per
// spec.md §5; Frames is read by the Segmenter's goroutine.
type Capture struct {
	Frames chan Frame

	ctx    *malgo.AllocatedContext
	device *malgo.Device

	sampleRate int
	chunkSize  int
}

// NewCapture opens deviceIndex (-1 for the system default) at sampleRate
// with chunkSize samples per frame, matching spec.md §6's CHUNK parameter.
func NewCapture(deviceIndex, sampleRate, chunkSize int) (*Capture, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: capture: init context: %w", err)
	}

	c := &Capture{
		Frames:     make(chan Frame, 32),
		ctx:        mctx,
		sampleRate: sampleRate,
		chunkSize:  chunkSize,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1
	if deviceIndex >= 0 {
		devices, err := mctx.Devices(malgo.Capture)
		if err == nil && deviceIndex < len(devices) {
			deviceConfig.Capture.DeviceID = devices[deviceIndex].ID.Pointer()
		}
	}

	onSamples := func(_, input []byte, _ uint32) {
		frame := Frame{
			Timestamp:  time.Now(),
			PCM:        append([]byte(nil), input...),
			SampleRate: sampleRate,
			Channels:   1,
		}
		select {
		case c.Frames <- frame:
		default:
			// Consumer fell behind; drop the oldest frame rather than block
			// the device callback, which must never suspend.
			select {
			case <-c.Frames:
			default:
			}
			select {
			case c.Frames <- frame:
			default:
			}
		}
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		mctx.Uninit()
		return nil, fmt.Errorf("audio: capture: init device: %w", err)
	}
	c.device = device
	return c, nil
}

// Start begins streaming frames. Capture is started last in the
// Orchestrator's start order, per spec.md §4.6, so no frame is produced
// before the Segmenter exists to consume it.
func (c *Capture) Start(ctx context.Context) error {
	if err := c.device.Start(); err != nil {
		return fmt.Errorf("audio: capture: start: %w", err)
	}
	go func() {
		<-ctx.Done()
		c.Close()
	}()
	return nil
}

// Close stops the device and releases it. Safe to call more than once.
func (c *Capture) Close() error {
	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	if c.ctx != nil {
		c.ctx.Uninit()
		c.ctx = nil
	}
	return nil
}
