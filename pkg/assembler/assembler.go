// Package assembler implements the incremental text-assembly protocol: a
// deterministic fold from streaming (delta*, done) event sequences into
// exactly one finalized line per utterance, deduplicating overlapping and
// repeated fragments from streaming recognizers and translators.
package assembler

import "strings"

// TextBuffer holds the per-stream state described by the assembler
// contract: the accumulated buffer, the most recent delta seen, the most
// recent finalized line, and the printed/done flags. One TextBuffer exists
// per stream (source transcript, target translation) and is reused across
// utterances: Finalize clears the buffer but keeps the last line.
type TextBuffer struct {
	buffer   string
	lastChunk string
	lastLine  string
	printed   bool
	done      bool
}

// New returns a zero-valued TextBuffer ready for use.
func New() *TextBuffer {
	return &TextBuffer{}
}

// Append folds chunk into the buffer. A chunk that is empty or identical to
// the previous chunk is ignored (streaming recognizers frequently resend
// the same delta). Otherwise the buffer is updated via merge, and printed
// is reset to false whenever the buffer actually changes.
func (t *TextBuffer) Append(chunk string) {
	if chunk == "" || chunk == t.lastChunk {
		return
	}
	t.lastChunk = chunk

	merged := merge(t.buffer, chunk)
	if merged != t.buffer {
		t.buffer = merged
		t.printed = false
	}
}

// Finalize is triggered by a done event or stream close. It emits the
// finalized line exactly once: if the buffer holds unprinted, non-empty
// text that is neither identical to the previous line, nor a prefix or
// suffix of it, nor an extension starting with it, Finalize returns that
// line. The buffer is reset for the next utterance in every case. It
// returns ("", false) when there is nothing new to emit.
func (t *TextBuffer) Finalize() (string, bool) {
	defer t.reset()

	if t.printed {
		return "", false
	}
	line := strings.TrimSpace(t.buffer)
	if line == "" {
		return "", false
	}
	if t.suppressed(line) {
		return "", false
	}
	t.lastLine = line
	return line, true
}

func (t *TextBuffer) reset() {
	t.buffer = ""
	t.printed = true
	t.done = false
}

// suppressed implements the finalize suppression rule: a candidate line is
// suppressed when it equals the previous finalized line, when either line
// is a prefix of the other, or when it is a suffix of the previous line.
func (t *TextBuffer) suppressed(line string) bool {
	last := t.lastLine
	if last == "" {
		return false
	}
	return line == last || strings.HasPrefix(line, last) || strings.HasPrefix(last, line) || strings.HasSuffix(last, line)
}

// merge implements the overlap-merge algorithm: given the accumulated
// buffer B and a new chunk S, it returns the extended buffer. Duplicate
// chunks already contained in B are dropped; otherwise the longest
// suffix-of-B / prefix-of-S overlap is joined, falling back to a plain
// append when no overlap exists.
func merge(b, s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return b
	}
	if strings.Contains(b, s) {
		return b
	}

	maxOverlap := len(b)
	if len(s) < maxOverlap {
		maxOverlap = len(s)
	}
	for k := maxOverlap; k > 0; k-- {
		if b[len(b)-k:] == s[:k] {
			return b + s[k:]
		}
	}
	return b + s
}
