package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/siminterp/siminterp/pkg/audio"
)

// coquiDefaultSpeaker mirrors original_source/tts/speech.py's hard
// fallback for multi-speaker XTTS models that require a speaker name:
// "Ana Florence" is bundled with XTTS v2 and used when none is
// configured.
const coquiDefaultSpeaker = "Ana Florence"

// CoquiTTS is a file-mode Synthesizer talking to a local Coqui TTS HTTP
// server (github.com/coqui-ai/TTS's bundled server mode), which returns a
// WAV file rather than a declared-rate raw stream.
type CoquiTTS struct {
	baseURL string
	speaker string
	client  *http.Client
}

// NewCoquiTTS returns a CoquiTTS adapter against baseURL (defaulting to
// http://localhost:5002, the package's default server port). speaker may
// be empty, in which case the multi-speaker default fallback applies.
func NewCoquiTTS(baseURL, speaker string) *CoquiTTS {
	if baseURL == "" {
		baseURL = "http://localhost:5002"
	}
	return &CoquiTTS{baseURL: baseURL, speaker: speaker, client: &http.Client{}}
}

func (c *CoquiTTS) Name() string { return "coqui-tts" }

func (c *CoquiTTS) Synthesize(ctx context.Context, req Request) (Result, error) {
	if req.Text == "" {
		return Result{}, nil
	}

	speaker := c.speaker
	if speaker == "" {
		speaker = coquiDefaultSpeaker
	}

	q := url.Values{}
	q.Set("text", req.Text)
	q.Set("speaker_id", speaker)
	if req.Lang != "" {
		q.Set("language_id", string(req.Lang))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tts?"+q.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("tts: coqui: build request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("tts: coqui: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("tts: coqui: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("tts: coqui: status %d: %s", resp.StatusCode, body)
	}

	pcm, rate, channels, err := audio.DecodeWAV(body)
	if err != nil {
		return Result{}, fmt.Errorf("tts: coqui: %w", err)
	}
	return Result{PCM: pcm, Rate: rate, Channels: channels}, nil
}
