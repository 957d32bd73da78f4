package stt

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/siminterp/siminterp/pkg/domain"
)

// StreamSTT is a bidirectional streaming Transcriber: PCM frames are
// written in over the returned channel, and partial/final transcripts
// arrive as TranscriptEvents on onEvent, generalizing the wire convention
// of the TTS websocket provider to the recognition direction: a JSON
// "start" message and binary audio frames out, a JSON "eof" message at
// end of utterance, and JSON "delta"/"done"/"error" messages back.
type StreamSTT struct {
	apiKey string
	host   string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewStreamSTT returns a streaming recognizer dialing host ("" selects the
// provider's default endpoint).
func NewStreamSTT(apiKey, host string) *StreamSTT {
	if host == "" {
		host = "api.lokutor.com"
	}
	return &StreamSTT{apiKey: apiKey, host: host}
}

func (s *StreamSTT) Name() string { return "stream-stt" }

// Transcribe satisfies Transcriber by running one utterance through the
// streaming path and accumulating the final text.
func (s *StreamSTT) Transcribe(ctx context.Context, pcm []byte, lang domain.Language) (string, error) {
	final := make(chan string, 1)
	audioCh, err := s.StreamTranscribe(ctx, lang, func(ev domain.TranscriptEvent) error {
		if ev.Kind == domain.EventDone {
			select {
			case final <- ev.Text:
			default:
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	audioCh <- pcm
	close(audioCh)
	select {
	case text := <-final:
		return text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *StreamSTT) dial(ctx context.Context) (*websocket.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn, nil
	}
	u := url.URL{Scheme: "wss", Host: s.host, Path: "/ws/stt", RawQuery: "api_key=" + s.apiKey}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("stt: stream: dial: %w", err)
	}
	s.conn = conn
	return conn, nil
}

// StreamTranscribe opens (or reuses) the connection, starts a reader
// goroutine that decodes the server's JSON events into TranscriptEvents,
// and returns a channel the caller writes raw PCM frames to. Closing the
// channel signals end of utterance.
func (s *StreamSTT) StreamTranscribe(ctx context.Context, lang domain.Language, onEvent func(domain.TranscriptEvent) error) (chan<- []byte, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}

	start := map[string]string{"type": "start", "lang": string(lang)}
	if err := wsjson.Write(ctx, conn, start); err != nil {
		return nil, fmt.Errorf("stt: stream: start: %w", err)
	}

	audioCh := make(chan []byte, 16)
	var utteranceID int64

	go func() {
		for chunk := range audioCh {
			if err := conn.Write(ctx, websocket.MessageBinary, chunk); err != nil {
				s.mu.Lock()
				s.conn = nil
				s.mu.Unlock()
				return
			}
		}
		wsjson.Write(ctx, conn, map[string]string{"type": "eof"})
	}()

	go func() {
		for {
			var msg struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				return
			}
			switch msg.Type {
			case "delta":
				onEvent(domain.TranscriptEvent{UtteranceID: utteranceID, Kind: domain.EventDelta, Text: msg.Text})
			case "done":
				onEvent(domain.TranscriptEvent{UtteranceID: utteranceID, Kind: domain.EventDone, Text: msg.Text})
				utteranceID++
			case "error":
				return
			}
		}
	}()

	return audioCh, nil
}

// Close releases the underlying connection, if any.
func (s *StreamSTT) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		err := s.conn.Close(websocket.StatusNormalClosure, "")
		s.conn = nil
		return err
	}
	return nil
}
