package classifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"plextagger/internal/logging"
)

type stubCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func TestClassifyMapsReplies(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  Verdict
	}{
		{name: "affirmative", reply: "Yes", want: Standup},
		{name: "negative", reply: "No.", want: NotStandup},
		{name: "ambiguous", reply: "Hard to say.", want: Unknown},
		{name: "transport error", err: errors.New("connection refused"), want: Unknown},
		{name: "timeout", err: context.DeadlineExceeded, want: Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{reply: tt.reply, err: tt.err}
			c := New(stub, logging.NewNop())
			got := c.Classify(context.Background(), Item{Title: "Nate Bargatze: The Greatest Average American", Year: 2021})
			if got != tt.want {
				t.Fatalf("Classify = %v, want %v", got, tt.want)
			}
			if len(stub.prompts) != 1 {
				t.Fatalf("expected one completion call, got %d", len(stub.prompts))
			}
		})
	}
}

func TestClassifyWithoutCompleter(t *testing.T) {
	c := New(nil, nil)
	if got := c.Classify(context.Background(), Item{Title: "Superbad"}); got != Unknown {
		t.Fatalf("expected Unknown without completer, got %v", got)
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	item := Item{Title: " Superbad ", Year: 2007, Summary: "Two co-dependent\nhigh school seniors"}
	first := BuildPrompt(item)
	if first != BuildPrompt(item) {
		t.Fatal("expected identical prompts for identical items")
	}
	for _, want := range []string{"Title: Superbad\n", "Year: 2007", "Summary: Two co-dependent high school seniors", "yes or no", "roast"} {
		if !strings.Contains(first, want) {
			t.Fatalf("prompt missing %q:\n%s", want, first)
		}
	}
}

func TestBuildPromptPlaceholders(t *testing.T) {
	prompt := BuildPrompt(Item{Title: "Untitled"})
	if !strings.Contains(prompt, "Year: unknown") || !strings.Contains(prompt, "Summary: (none provided)") {
		t.Fatalf("expected placeholders for missing fields:\n%s", prompt)
	}
	if strings.Contains(prompt, "{{") {
		t.Fatalf("unrendered placeholder:\n%s", prompt)
	}
}

func TestClassifyUsesCustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(path, []byte("Is {{title}} ({{year}}) stand-up? {{summary}}\n"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	tmpl, err := LoadTemplate(path)
	if err != nil {
		t.Fatalf("LoadTemplate returned error: %v", err)
	}

	stub := &stubCompleter{reply: "yes"}
	c := New(stub, logging.NewNop(), WithTemplate(tmpl))
	if got := c.Classify(context.Background(), Item{Title: "Roast of Rob Lowe", Year: 2016}); got != Standup {
		t.Fatalf("Classify = %v, want %v", got, Standup)
	}
	if want := "Is Roast of Rob Lowe (2016) stand-up? (none provided)"; stub.prompts[0] != want {
		t.Fatalf("prompt = %q, want %q", stub.prompts[0], want)
	}
}

func TestWithBlankTemplateKeepsDefault(t *testing.T) {
	stub := &stubCompleter{reply: "no"}
	New(stub, logging.NewNop(), WithTemplate("  ")).Classify(context.Background(), Item{Title: "Superbad"})
	if stub.prompts[0] != BuildPrompt(Item{Title: "Superbad"}) {
		t.Fatalf("expected default prompt, got %q", stub.prompts[0])
	}
}

func TestLoadTemplateErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadTemplate(filepath.Join(dir, "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
	path := filepath.Join(dir, "prompt.txt")
	if err := os.WriteFile(path, []byte("Is this stand-up?"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if _, err := LoadTemplate(path); err == nil || !strings.Contains(err.Error(), "{{title}}") {
		t.Fatalf("expected missing placeholder error, got %v", err)
	}
}
