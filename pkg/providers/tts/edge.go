package tts

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// edgeSampleRate is the rate this adapter requests from the synthesis
// service; the declared rate the Sink's fallback ladder sees.
const edgeSampleRate = 24000

// EdgeTTS is a streaming Synthesizer using the same websocket shape as
// the teacher's lokutor adapter (JSON control frame out, binary audio
// frames in, terminated by a text sentinel), pointed at a
// Microsoft-Edge-style neural voice synthesis endpoint instead of
// lokutor's own service.
type EdgeTTS struct {
	host   string
	scheme string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewEdgeTTS returns an EdgeTTS adapter targeting the public Edge neural
// voice websocket endpoint.
func NewEdgeTTS() *EdgeTTS {
	return &EdgeTTS{host: "speech.platform.bing.com", scheme: "wss"}
}

func (e *EdgeTTS) Name() string { return "edge-tts" }

func (e *EdgeTTS) getConn(ctx context.Context) (*websocket.Conn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn != nil {
		return e.conn, nil
	}

	u := url.URL{
		Scheme:   e.scheme,
		Host:     e.host,
		Path:     "/consumer/speech/synthesize/readaloud/edge/v1",
		RawQuery: "TrustedClientToken=siminterp",
	}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("tts: edge: connect: %w", err)
	}
	e.conn = conn
	return conn, nil
}

// Synthesize buffers the full streamed response, satisfying the plain
// Synthesizer contract for callers that don't need incremental chunks.
func (e *EdgeTTS) Synthesize(ctx context.Context, req Request) (Result, error) {
	var audio []byte
	rate, channels, err := e.StreamSynthesize(ctx, req, func(chunk []byte) error {
		audio = append(audio, chunk...)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{PCM: audio, Rate: rate, Channels: channels}, nil
}

// StreamSynthesize sends an SSML synthesis request over the websocket and
// streams binary audio frames to onChunk as they arrive, matching
// lokutor.go's control-frame-then-binary-frames-then-sentinel pattern.
func (e *EdgeTTS) StreamSynthesize(ctx context.Context, req Request, onChunk func([]byte) error) (int, int, error) {
	if req.Text == "" {
		return edgeSampleRate, 1, nil
	}

	conn, err := e.getConn(ctx)
	if err != nil {
		return 0, 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ssml := map[string]any{
		"ssml":  buildSSML(req.Text, ResolveVoice(req.Voice, req.Lang), req.Speed),
		"rate":  edgeSampleRate,
		"format": "raw-24khz-16bit-mono-pcm",
	}
	if err := wsjson.Write(ctx, conn, ssml); err != nil {
		e.conn = nil
		conn.Close(websocket.StatusAbnormalClosure, "failed to write ssml")
		return 0, 0, fmt.Errorf("tts: edge: send request: %w", err)
	}

	for {
		messageType, payload, err := conn.Read(ctx)
		if err != nil {
			e.conn = nil
			conn.Close(websocket.StatusAbnormalClosure, "failed to read")
			return 0, 0, fmt.Errorf("tts: edge: read: %w", err)
		}

		switch messageType {
		case websocket.MessageBinary:
			if err := onChunk(payload); err != nil {
				return 0, 0, err
			}
		case websocket.MessageText:
			msg := string(payload)
			if msg == "Path:turn.end" {
				return edgeSampleRate, 1, nil
			}
			if len(msg) >= 4 && msg[:4] == "ERR:" {
				return 0, 0, fmt.Errorf("tts: edge: provider error: %s", msg)
			}
		}
	}
}

// buildSSML wraps text in the minimal SSML envelope Edge's synthesis
// service expects: a voice selection and a prosody rate derived from the
// configured speed multiplier.
func buildSSML(text, voice string, speed float64) string {
	if speed == 0 {
		speed = 1.0
	}
	pct := int(math.Round((speed - 1.0) * 100))
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='en-US'><voice name='%s'><prosody rate='%+d%%'>%s</prosody></voice></speak>`,
		voice, pct, text,
	)
}

// Close releases the websocket connection, if any.
func (e *EdgeTTS) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn != nil {
		err := e.conn.Close(websocket.StatusNormalClosure, "")
		e.conn = nil
		return err
	}
	return nil
}
