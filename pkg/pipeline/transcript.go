package pipeline

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/siminterp/siminterp/pkg/domain"
)

// TranscriptLine is one finalized line of the running transcript: a
// source-language line or its paired target-language translation.
type TranscriptLine struct {
	UtteranceID int64
	Lang        domain.Language
	Text        string
	IsTarget    bool
	At          time.Time
}

// TranscriptLog is the append-only in-memory log mirrored to a file, per
// spec.md §3's Session entity and §6's transcript log file format. It is
// the one piece of state every stage goroutine may write concurrently, so
// every method takes mu.
type TranscriptLog struct {
	mu    sync.Mutex
	lines []TranscriptLine
	file  *os.File
}

// NewTranscriptLog opens path for append (creating it if necessary). An
// empty path disables file mirroring; the in-memory log still works.
func NewTranscriptLog(path string) (*TranscriptLog, error) {
	tl := &TranscriptLog{}
	if path == "" {
		return tl, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pipeline: open transcript log: %w", err)
	}
	tl.file = f
	return tl, nil
}

// AppendSource writes one SRC record, per spec.md §6's transcript log
// format: "[ISO8601] SRC(lang=<code>): <source line>". It is called as
// soon as a line is transcribed, independent of translation, so the
// transcript keeps advancing even when downstream stages fail (spec.md
// §7).
func (tl *TranscriptLog) AppendSource(utteranceID int64, lang domain.Language, text string, at time.Time) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.lines = append(tl.lines, TranscriptLine{UtteranceID: utteranceID, Lang: lang, Text: text, At: at})
	tl.writeRecord("SRC", lang, text, at)
}

// AppendTarget writes one TGT record once translation (or its fallback)
// completes for utteranceID.
func (tl *TranscriptLog) AppendTarget(utteranceID int64, lang domain.Language, text string, at time.Time) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.lines = append(tl.lines, TranscriptLine{UtteranceID: utteranceID, Lang: lang, Text: text, IsTarget: true, At: at})
	tl.writeRecord("TGT", lang, text, at)
}

func (tl *TranscriptLog) writeRecord(kind string, lang domain.Language, text string, at time.Time) {
	if tl.file == nil {
		return
	}
	fmt.Fprintf(tl.file, "[%s] %s(lang=%s): %s\n", at.UTC().Format(time.RFC3339), kind, lang, text)
}

// Lines returns a snapshot copy of every line appended so far.
func (tl *TranscriptLog) Lines() []TranscriptLine {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	out := make([]TranscriptLine, len(tl.lines))
	copy(out, tl.lines)
	return out
}

// Close releases the backing file, if any.
func (tl *TranscriptLog) Close() error {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	if tl.file != nil {
		return tl.file.Close()
	}
	return nil
}
