// Package translate adapts chat-completion LLM APIs into the Translator
// capability: a finalized source line plus rolling context and a glossary
// hint in, one target-language line out.
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/siminterp/siminterp/pkg/domain"
)

// HistoryPair is one prior (source, target) line, carried so the model can
// keep pronoun/tense agreement across an utterance boundary.
type HistoryPair struct {
	Source string
	Target string
}

// Request is everything a Translator needs for one line: the rest of
// spec.md's Translator contract (target language, topic hint, rolling
// context, glossary hint) instead of an open chat message list.
type Request struct {
	SourceText   string
	SourceLang   domain.Language
	TargetLang   domain.Language
	Topic        string
	History      []HistoryPair
	GlossaryHint string
	Temperature  float64
}

// Translator turns one finalized source line into one target line.
type Translator interface {
	Translate(ctx context.Context, req Request) (string, error)
	Name() string
}

// StreamingTranslator additionally emits the translation incrementally as
// TranscriptEvents, for providers whose API supports token streaming.
type StreamingTranslator interface {
	Translator
	StreamTranslate(ctx context.Context, req Request, onEvent func(domain.TranscriptEvent) error) error
}

// systemPrompt renders the shared instruction every adapter sends as its
// system/preamble message: target language, topic hint, and the glossary
// rewrite hint produced by pkg/dictionary's Glossary.Hint.
func systemPrompt(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a simultaneous interpreter. Translate the user's %s into %s.", req.SourceLang, req.TargetLang)
	sb.WriteString(" Output only the translation, no commentary.")
	if req.Topic != "" {
		fmt.Fprintf(&sb, " The conversation topic is: %s.", req.Topic)
	}
	if req.GlossaryHint != "" {
		fmt.Fprintf(&sb, " Use these preferred term translations where applicable: %s.", req.GlossaryHint)
	}
	return sb.String()
}
