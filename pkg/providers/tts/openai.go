package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// openAISampleRate is the fixed rate OpenAI's streaming speech endpoint
// emits raw PCM at, per original_source/tts/speech.py's OpenAITTSEngine
// (pyaudio opened at rate=24000 unconditionally).
const openAISampleRate = 24000

// OpenAITTS is a file-mode Synthesizer backed by OpenAI's
// /v1/audio/speech endpoint, requested in raw 16-bit PCM so the pipeline
// never needs to decode a container format.
type OpenAITTS struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAITTS returns an OpenAITTS adapter. model defaults to "tts-1".
func NewOpenAITTS(apiKey, model string) *OpenAITTS {
	if model == "" {
		model = "tts-1"
	}
	return &OpenAITTS{apiKey: apiKey, model: model, baseURL: "https://api.openai.com", client: &http.Client{}}
}

func (o *OpenAITTS) Name() string { return "openai-tts" }

func (o *OpenAITTS) Synthesize(ctx context.Context, req Request) (Result, error) {
	if req.Text == "" {
		return Result{}, nil
	}

	body, err := json.Marshal(map[string]any{
		"model":           o.model,
		"voice":           ResolveVoice(req.Voice, req.Lang),
		"input":           req.Text,
		"response_format": "pcm",
		"speed":           clampSpeed(req.Speed),
	})
	if err != nil {
		return Result{}, fmt.Errorf("tts: openai: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("tts: openai: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("tts: openai: request: %w", err)
	}
	defer resp.Body.Close()

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("tts: openai: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("tts: openai: status %d: %s", resp.StatusCode, pcm)
	}

	return Result{PCM: pcm, Rate: openAISampleRate, Channels: 1}, nil
}

// clampSpeed enforces OpenAI's documented [0.25, 4.0] speed range, falling
// back to 1.0 when unset.
func clampSpeed(speed float64) float64 {
	if speed == 0 {
		return 1.0
	}
	if speed < 0.25 {
		return 0.25
	}
	if speed > 4.0 {
		return 4.0
	}
	return speed
}
