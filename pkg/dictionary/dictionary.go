// Package dictionary loads the static glossary used to rewrite source
// terms before translation and to hint the translator about the expected
// target-side rendering of those terms.
package dictionary

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Glossary is a read-only source-term to target-term mapping, loaded once
// at startup per spec.md §6's dictionary file format.
type Glossary struct {
	entries map[string]string // canonical source term -> target term
}

// Load parses a UTF-8 dictionary file: one "source<TAB>target" entry per
// line, blank lines and "#" comments ignored.
func Load(path string) (*Glossary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g := &Glossary{entries: make(map[string]string)}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("dictionary: %s:%d: expected \"source<TAB>target\", got %q", path, lineNo, line)
		}
		source := strings.TrimSpace(parts[0])
		target := strings.TrimSpace(parts[1])
		if source == "" || target == "" {
			return nil, fmt.Errorf("dictionary: %s:%d: empty source or target term", path, lineNo)
		}
		g.entries[source] = target
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

// Empty returns a Glossary with no entries, used when --dictionary is unset.
func Empty() *Glossary {
	return &Glossary{entries: map[string]string{}}
}

// Apply rewrites every occurrence of a glossary source term in text with
// its target term. This is the pre-translation rewrite from spec.md §4.4.
func (g *Glossary) Apply(text string) string {
	if g == nil || len(g.entries) == 0 {
		return text
	}
	for source, target := range g.entries {
		text = strings.ReplaceAll(text, source, target)
	}
	return text
}

// Hint renders the glossary as a short instruction the translator can use
// to keep proper nouns verbatim, e.g. "Acme Corp -> Acme Corp; Xeno -> Xeno".
func (g *Glossary) Hint() string {
	if g == nil || len(g.entries) == 0 {
		return ""
	}
	var b strings.Builder
	first := true
	for source, target := range g.entries {
		if !first {
			b.WriteString("; ")
		}
		first = false
		fmt.Fprintf(&b, "%s -> %s", source, target)
	}
	return b.String()
}

// Len reports the number of glossary entries.
func (g *Glossary) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// Targets reports every target term the glossary can produce, used by
// round-trip tests: every value present in a glossary-applied string must
// map back via the glossary.
func (g *Glossary) Targets() map[string]bool {
	out := make(map[string]bool, len(g.entries))
	for _, target := range g.entries {
		out[target] = true
	}
	return out
}
