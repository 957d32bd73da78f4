// Package tts adapts third-party speech synthesis backends to the
// Synthesizer capability: a finalized target-language line in, PCM audio
// at a declared sample rate out, per spec.md §4.5. Three tagged variants
// are provided, matching spec.md §6's --tts-provider flag: openai (file
// mode), edge (streaming, websocket), and coqui (local HTTP server).
package tts

import (
	"context"
	"fmt"

	"github.com/siminterp/siminterp/pkg/domain"
)

// Request is everything a Synthesizer needs to render one finalized line.
type Request struct {
	Text  string
	Voice string // empty selects the provider's per-language default
	Lang  domain.Language
	Speed float64 // best-effort; providers that ignore rate hints pass it through unused
}

// Result is the rendered audio plus the rate/channel declaration the Sink
// needs before it can open (or fall back) its output device.
type Result struct {
	PCM      []byte
	Rate     int
	Channels int
}

// Synthesizer turns one finalized target line into PCM, matching spec.md
// §4.5's "(text, voice, speed) -> (pcm_bytes, rate, channels)" contract.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (Result, error)
	Name() string
}

// StreamingSynthesizer additionally emits audio incrementally as it is
// generated. The declared rate/channels are known before the first chunk
// arrives, since the wire protocol negotiates format at connection time.
type StreamingSynthesizer interface {
	Synthesizer
	StreamSynthesize(ctx context.Context, req Request, onChunk func([]byte) error) (rate int, channels int, err error)
}

// VoiceMap is a target-language-code to provider-voice/locale-identifier
// table, ported from original_source/azure_realtime.py's voice_map and
// consulted by the Synthesizer when --voice is unset.
var VoiceMap = map[domain.Language]string{
	"zh-Hans": "zh-CN-XiaoxiaoNeural",
	"zh-Hant": "zh-TW-HsiaoChenNeural",
	"en":      "en-US-JennyNeural",
	"ja":      "ja-JP-NanamiNeural",
	"ko":      "ko-KR-SunHiNeural",
	"fr":      "fr-FR-DeniseNeural",
	"de":      "de-DE-KatjaNeural",
	"es":      "es-ES-ElviraNeural",
	"it":      "it-IT-ElsaNeural",
	"ru":      "ru-RU-SvetlanaNeural",
	"pt":      "pt-BR-FranciscaNeural",
	"th":      "th-TH-PremwadeeNeural",
	"vi":      "vi-VN-HoaiMyNeural",
	"id":      "id-ID-GadisNeural",
	"ar":      "ar-SA-ZariyahNeural",
}

// ResolveVoice returns req.Voice if set, else VoiceMap's entry for lang,
// else a generic fallback.
func ResolveVoice(voice string, lang domain.Language) string {
	if voice != "" {
		return voice
	}
	if v, ok := VoiceMap[lang]; ok {
		return v
	}
	return "en-US-JennyNeural"
}

// Kind names one of the three supported synthesis backends.
type Kind string

const (
	KindOpenAI Kind = "openai"
	KindEdge   Kind = "edge"
	KindCoqui  Kind = "coqui"
)

// New constructs the Synthesizer named by kind. apiKey is required for
// openai and ignored otherwise; coquiURL selects the local Coqui server
// (defaulting to http://localhost:5002 when empty).
func New(kind Kind, apiKey, model, coquiURL string) (Synthesizer, error) {
	switch kind {
	case KindOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("tts: openai provider requires OPENAI_API_KEY")
		}
		return NewOpenAITTS(apiKey, model), nil
	case KindEdge:
		return NewEdgeTTS(), nil
	case KindCoqui:
		return NewCoquiTTS(coquiURL, model), nil
	default:
		return nil, fmt.Errorf("tts: unknown provider %q", kind)
	}
}
