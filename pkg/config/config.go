// Package config loads and validates the command-line and environment
// configuration for the interpretation pipeline: device selection,
// language pair, provider choice, and the tuning knobs exposed by the
// segmenter, translator, and synthesizer.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// TTSProvider names one of the supported synthesis backends.
type TTSProvider string

const (
	TTSOpenAI TTSProvider = "openai"
	TTSEdge   TTSProvider = "edge"
	TTSCoqui  TTSProvider = "coqui"
)

// TranscriberKind names one of the supported local transcription engines.
type TranscriberKind string

const (
	TranscriberFasterWhisper TranscriberKind = "faster-whisper"
	TranscriberWhisperCpp    TranscriberKind = "whispercpp"
)

// WhisperDevice names the compute device a local whisper model runs on.
type WhisperDevice string

const (
	WhisperAuto WhisperDevice = "auto"
	WhisperCPU  WhisperDevice = "cpu"
	WhisperCUDA WhisperDevice = "cuda"
)

// Config is the fully resolved, validated configuration for one session.
// Every field here traces back to a CLI flag, an environment variable, or
// a documented default — see spec.md §6 for the flag surface.
type Config struct {
	InputDevice  int
	OutputDevice int

	InputLanguage  string
	TargetLanguage string

	Translate bool
	TTS       bool

	DictionaryPath string
	Topic          string

	Model string // translator model name
	Voice string // TTS voice name, empty selects the per-language default

	TTSProvider TTSProvider
	TTSModel    string

	Transcriber    TranscriberKind
	WhisperModel   string
	WhisperThreads int
	WhisperDevice  WhisperDevice

	History int // chunk_history: rolling (source, target) pairs of context

	PhraseTimeLimit float64 // seconds; segmenter's max_utterance cap
	PauseThreshold  float64 // seconds; segmenter's silence guard
	AmbientDuration float64 // seconds; noise-floor calibration window

	TTSSpeed    float64
	Temperature float64

	LogFile string
}

// Default mirrors original_source/src/siminterp/config.py's field defaults.
func Default() Config {
	return Config{
		InputDevice:     -1,
		OutputDevice:    -1,
		InputLanguage:   "auto",
		TargetLanguage:  "en",
		Translate:       true,
		TTS:             true,
		Model:           "gpt-4o",
		TTSProvider:     TTSOpenAI,
		Transcriber:     TranscriberFasterWhisper,
		WhisperModel:    "base",
		WhisperDevice:   WhisperAuto,
		History:         10,
		PhraseTimeLimit: 15,
		PauseThreshold:  0.8,
		AmbientDuration: 1.0,
		TTSSpeed:        1.0,
		Temperature:     0.3,
	}
}

// ErrMissingAPIKey is returned by Load when no provider credential is set.
var ErrMissingAPIKey = errors.New("config: OPENAI_API_KEY (or an equivalent provider key) is required")

// Load reads .env (without overriding already-set environment variables,
// matching original_source's load_environment), parses args against the
// defaults from Default, fills Model and TTSModel from OPENAI_MODEL and
// TTS_MODEL when their flags are unset, then validates and clamps the
// result. args excludes the program name (i.e. os.Args[1:]).
func Load(args []string) (Config, error) {
	_ = godotenv.Load() // missing .env is not an error; system env still applies

	cfg := Default()

	fs := flag.NewFlagSet("siminterp", flag.ContinueOnError)
	fs.IntVar(&cfg.InputDevice, "input-device", cfg.InputDevice, "input device index")
	fs.IntVar(&cfg.OutputDevice, "output-device", cfg.OutputDevice, "output device index")
	fs.StringVar(&cfg.InputLanguage, "input-language", cfg.InputLanguage, "source language code")
	fs.StringVar(&cfg.TargetLanguage, "target-language", cfg.TargetLanguage, "target language code")
	fs.BoolVar(&cfg.Translate, "translate", cfg.Translate, "enable translation")
	fs.BoolVar(&cfg.TTS, "tts", cfg.TTS, "enable speech synthesis")
	fs.StringVar(&cfg.DictionaryPath, "dictionary", cfg.DictionaryPath, "glossary file path")
	fs.StringVar(&cfg.Topic, "topic", cfg.Topic, "topic hint for the translator")
	model := fs.String("model", "", "translator model name")
	fs.StringVar(&cfg.Voice, "voice", cfg.Voice, "TTS voice name")
	ttsProvider := fs.String("tts-provider", string(cfg.TTSProvider), "openai|edge|coqui")
	ttsModel := fs.String("tts-model", "", "TTS model name")
	transcriber := fs.String("transcriber", string(cfg.Transcriber), "faster-whisper|whispercpp")
	fs.StringVar(&cfg.WhisperModel, "whisper-model", cfg.WhisperModel, "local whisper model name or path")
	fs.IntVar(&cfg.WhisperThreads, "whisper-threads", cfg.WhisperThreads, "whisper CPU thread count")
	whisperDevice := fs.String("whisper-device", string(cfg.WhisperDevice), "auto|cpu|cuda")
	fs.IntVar(&cfg.History, "history", cfg.History, "rolling translation context size")
	fs.Float64Var(&cfg.PhraseTimeLimit, "phrase-time-limit", cfg.PhraseTimeLimit, "max utterance length in seconds")
	fs.Float64Var(&cfg.PauseThreshold, "pause-threshold", cfg.PauseThreshold, "trailing silence in seconds")
	fs.Float64Var(&cfg.AmbientDuration, "ambient-duration", cfg.AmbientDuration, "noise calibration window in seconds")
	fs.Float64Var(&cfg.TTSSpeed, "tts-speed", cfg.TTSSpeed, "synthesis speed multiplier")
	fs.Float64Var(&cfg.Temperature, "temperature", cfg.Temperature, "translator sampling temperature")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "transcript log file path")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Model = firstNonEmpty(*model, os.Getenv("OPENAI_MODEL"), cfg.Model)
	cfg.TTSModel = firstNonEmpty(*ttsModel, os.Getenv("TTS_MODEL"), cfg.TTSModel)
	cfg.TTSProvider = TTSProvider(*ttsProvider)
	cfg.Transcriber = TranscriberKind(*transcriber)
	cfg.WhisperDevice = WhisperDevice(*whisperDevice)

	return validate(cfg)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// validate applies the clamping and existence rules carried over from
// original_source's build_config.
func validate(cfg Config) (Config, error) {
	if os.Getenv("OPENAI_API_KEY") == "" && os.Getenv("ANTHROPIC_API_KEY") == "" &&
		os.Getenv("GOOGLE_API_KEY") == "" && os.Getenv("GROQ_API_KEY") == "" {
		return Config{}, ErrMissingAPIKey
	}

	if cfg.DictionaryPath != "" {
		if _, err := os.Stat(cfg.DictionaryPath); err != nil {
			return Config{}, fmt.Errorf("config: dictionary path %q: %w", cfg.DictionaryPath, err)
		}
	}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return Config{}, fmt.Errorf("config: creating log directory: %w", err)
		}
	}

	if cfg.WhisperThreads < 0 {
		return Config{}, fmt.Errorf("config: whisper-threads must not be negative, got %d", cfg.WhisperThreads)
	}

	cfg.History = max(1, cfg.History)
	cfg.PhraseTimeLimit = maxF(1, cfg.PhraseTimeLimit)
	cfg.PauseThreshold = maxF(0.1, cfg.PauseThreshold)
	cfg.AmbientDuration = maxF(0, cfg.AmbientDuration)
	cfg.TTSSpeed = maxF(0.25, cfg.TTSSpeed)

	return cfg, nil
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// ParseFloatEnv reads a float environment variable, returning def if unset
// or unparseable. Nothing in this repository calls it.
func ParseFloatEnv(name string, def float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
