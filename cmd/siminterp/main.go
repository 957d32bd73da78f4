// Command siminterp runs the real-time simultaneous-interpretation
// pipeline: capture -> VAD segmentation -> transcription -> translation
// -> synthesis -> playback, with a running textual transcript.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/siminterp/siminterp/pkg/audio"
	"github.com/siminterp/siminterp/pkg/config"
	"github.com/siminterp/siminterp/pkg/dictionary"
	"github.com/siminterp/siminterp/pkg/domain"
	"github.com/siminterp/siminterp/pkg/logging"
	"github.com/siminterp/siminterp/pkg/metrics"
	"github.com/siminterp/siminterp/pkg/pipeline"
	"github.com/siminterp/siminterp/pkg/providers/stt"
	"github.com/siminterp/siminterp/pkg/providers/translate"
	"github.com/siminterp/siminterp/pkg/providers/tts"
)

// Exit codes per spec.md §6/§8: 0 on a clean stop, 2 on a configuration
// error discovered before any device or network handle is open, 3 on a
// fatal device or model error discovered during startup.
const (
	exitOK     = 0
	exitConfig = 2
	exitFatal  = 3
)

const (
	sampleRate = 16000
	chunkSize  = 1024
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "siminterp: configuration error:", err)
		return exitConfig
	}

	// cfg.LogFile is the running transcript (spec.md §6's --log-file), not
	// the diagnostic log; diagnostics go to stderr.
	logger, err := logging.New("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "siminterp: logger init:", err)
		return exitConfig
	}

	glossary := dictionary.Empty()
	if cfg.DictionaryPath != "" {
		glossary, err = dictionary.Load(cfg.DictionaryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "siminterp: dictionary:", err)
			return exitConfig
		}
	}

	transcriber, err := newTranscriber(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "siminterp:", err)
		return exitConfig
	}

	var translator translate.Translator
	if cfg.Translate {
		translator, err = newTranslator(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "siminterp:", err)
			return exitConfig
		}
	}

	var synthesizer tts.Synthesizer
	if cfg.TTS {
		synthesizer, err = newSynthesizer(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "siminterp:", err)
			return exitConfig
		}
	}

	echo := audio.NewEchoSuppressor()

	capture, err := audio.NewCapture(cfg.InputDevice, sampleRate, chunkSize)
	if err != nil {
		logger.Error("siminterp: capture device", "error", err)
		return exitFatal
	}
	defer capture.Close()

	sinkRate := nativeRate(cfg.TTSProvider)
	sink, err := audio.NewSink(cfg.OutputDevice, sinkRate, echo, logger)
	if err != nil {
		logger.Error("siminterp: sink device", "error", err)
		return exitFatal
	}
	defer sink.Close()

	segCfg := audio.DefaultSegmenterConfig()
	segCfg.SilenceMS = int64(cfg.PauseThreshold * 1000)
	segCfg.MaxUtteranceMS = int64(cfg.PhraseTimeLimit * 1000)
	segCfg.AmbientDurationMS = int64(cfg.AmbientDuration * 1000)
	segmenter := audio.NewSegmenter(segCfg)
	if _, ok := transcriber.(stt.StreamingTranscriber); ok {
		// A streaming Transcriber runs its own server-side VAD; the local
		// Segmenter forwards frames untouched, per spec.md §4.1's
		// "Alternate mode".
		segmenter.PassThrough = true
	}

	transcript, err := pipeline.NewTranscriptLog(cfg.LogFile)
	if err != nil {
		logger.Error("siminterp: transcript log", "error", err)
		return exitFatal
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	opts := pipeline.DefaultOptions()
	opts.SourceLang = domain.Language(cfg.InputLanguage)
	opts.TargetLang = domain.Language(cfg.TargetLanguage)
	opts.Topic = cfg.Topic
	opts.History = cfg.History
	opts.TTSVoice = tts.ResolveVoice(cfg.Voice, opts.TargetLang)
	opts.TTSSpeed = cfg.TTSSpeed
	opts.Temperature = cfg.Temperature
	opts.SampleRate = sampleRate
	opts.ChunkSize = chunkSize

	session, err := pipeline.New(pipeline.Providers{
		Transcriber: transcriber,
		Translator:  translator,
		Synthesizer: synthesizer,
	}, opts, capture, sink, segmenter, echo, glossary, transcript, m, logger)
	if err != nil {
		logger.Error("siminterp: session construction", "error", err)
		return exitFatal
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := session.Start(ctx); err != nil {
		logger.Error("siminterp: session start", "error", err)
		return exitFatal
	}

	logger.Info("siminterp: started",
		"transcriber", transcriber.Name(),
		"translate", cfg.Translate,
		"tts", cfg.TTS,
		"source", opts.SourceLang,
		"target", opts.TargetLang,
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	fmt.Fprintln(os.Stderr, "\nsiminterp: shutting down...")
	session.Stop()

	for _, e := range session.Errors() {
		logger.Warn("siminterp: stage error during run", "stage", e.Stage, "utterance", e.UtteranceID, "error", e.Err)
	}
	return exitOK
}

// nativeRate returns the sample rate the Sink should open its device at,
// matching the configured Synthesizer's native output rate so the common
// case never hits the fallback ladder.
func nativeRate(provider config.TTSProvider) int {
	switch provider {
	case config.TTSCoqui:
		return 22050
	default:
		return 24000
	}
}

// newTranscriber selects a Transcriber adapter. STT_PROVIDER chooses among
// the cloud recognizers or "local" (the default), which dispatches to
// cfg.Transcriber's faster-whisper/whispercpp engine so no network
// credential is required out of the box.
func newTranscriber(cfg config.Config) (stt.Transcriber, error) {
	provider := firstNonEmpty(os.Getenv("STT_PROVIDER"), "local")

	switch provider {
	case "local":
		switch cfg.Transcriber {
		case config.TranscriberWhisperCpp:
			return stt.NewWhisperCppTranscriber(cfg.WhisperModel, cfg.WhisperThreads), nil
		case config.TranscriberFasterWhisper:
			fallthrough
		default:
			return stt.NewFasterWhisperTranscriber(cfg.WhisperModel, cfg.WhisperThreads, string(cfg.WhisperDevice)), nil
		}
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("STT_PROVIDER=openai requires OPENAI_API_KEY")
		}
		return stt.NewOpenAISTT(key, "whisper-1"), nil
	case "groq":
		key := os.Getenv("GROQ_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("STT_PROVIDER=groq requires GROQ_API_KEY")
		}
		return stt.NewGroqSTT(key, firstNonEmpty(os.Getenv("GROQ_STT_MODEL"), "whisper-large-v3-turbo")), nil
	case "deepgram":
		key := os.Getenv("DEEPGRAM_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("STT_PROVIDER=deepgram requires DEEPGRAM_API_KEY")
		}
		return stt.NewDeepgramSTT(key), nil
	case "assemblyai":
		key := os.Getenv("ASSEMBLYAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("STT_PROVIDER=assemblyai requires ASSEMBLYAI_API_KEY")
		}
		return stt.NewAssemblyAISTT(key), nil
	case "stream":
		key := os.Getenv("STREAM_STT_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("STT_PROVIDER=stream requires STREAM_STT_API_KEY")
		}
		return stt.NewStreamSTT(key, os.Getenv("STREAM_STT_HOST")), nil
	default:
		return nil, fmt.Errorf("STT_PROVIDER: unknown value %q", provider)
	}
}

// newTranslator selects a Translator adapter. TRANSLATE_PROVIDER picks the
// backend explicitly; otherwise the first configured API key wins, checked
// in the order OpenAI, Anthropic, Google, Groq.
func newTranslator(cfg config.Config) (translate.Translator, error) {
	provider := os.Getenv("TRANSLATE_PROVIDER")
	if provider == "" {
		switch {
		case os.Getenv("OPENAI_API_KEY") != "":
			provider = "openai"
		case os.Getenv("ANTHROPIC_API_KEY") != "":
			provider = "anthropic"
		case os.Getenv("GOOGLE_API_KEY") != "":
			provider = "google"
		case os.Getenv("GROQ_API_KEY") != "":
			provider = "groq"
		default:
			return nil, fmt.Errorf("--translate requires one of OPENAI_API_KEY, ANTHROPIC_API_KEY, GOOGLE_API_KEY, GROQ_API_KEY")
		}
	}

	switch provider {
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("TRANSLATE_PROVIDER=openai requires OPENAI_API_KEY")
		}
		return translate.NewOpenAITranslator(key, cfg.Model), nil
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("TRANSLATE_PROVIDER=anthropic requires ANTHROPIC_API_KEY")
		}
		return translate.NewAnthropicTranslator(key, firstNonEmpty(cfg.Model, "claude-3-5-sonnet-20241022")), nil
	case "google":
		key := os.Getenv("GOOGLE_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("TRANSLATE_PROVIDER=google requires GOOGLE_API_KEY")
		}
		return translate.NewGoogleTranslator(key, firstNonEmpty(cfg.Model, "gemini-1.5-flash")), nil
	case "groq":
		key := os.Getenv("GROQ_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("TRANSLATE_PROVIDER=groq requires GROQ_API_KEY")
		}
		return translate.NewGroqTranslator(key, firstNonEmpty(cfg.Model, "llama-3.3-70b-versatile")), nil
	default:
		return nil, fmt.Errorf("TRANSLATE_PROVIDER: unknown value %q", provider)
	}
}

// newSynthesizer constructs the configured --tts-provider adapter.
func newSynthesizer(cfg config.Config) (tts.Synthesizer, error) {
	kind := tts.Kind(cfg.TTSProvider)
	apiKey := os.Getenv("OPENAI_API_KEY")
	coquiURL := firstNonEmpty(os.Getenv("COQUI_URL"), "http://localhost:5002")
	return tts.New(kind, apiKey, cfg.TTSModel, coquiURL)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
