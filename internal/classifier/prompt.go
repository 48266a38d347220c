package classifier

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Item is the descriptive context sent to the model.
type Item struct {
	Title   string
	Year    int
	Summary string
}

// DefaultTemplate is used unless llm.prompt_file names a replacement.
const DefaultTemplate = `You are a strict media analyst. Decide whether the following title is a stand-up comedy special or a comedy roast.

Title: {{title}}
Year: {{year}}
Summary: {{summary}}

Answer NO if any of these apply:
- It is animated or a cartoon.
- It is a narrative film, parody, or slapstick movie with a cast playing characters.
- The summary describes a plot, adventure, mission, or storyline.
- It features an ensemble cast or voice actors rather than one comedian performing a set.

Answer YES only if:
- It is a live stage performance by a comedian (a monologue or set), or a televised comedy roast.
- The summary mentions being on stage, a live performance, a stand-up special, or a roast.

Be extremely skeptical. Respond with exactly one word: yes or no.`

// LoadTemplate reads a prompt template from path. The template must contain
// the {{title}} placeholder; {{year}} and {{summary}} are optional.
func LoadTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt template: %w", err)
	}
	tmpl := strings.TrimSpace(string(data))
	if !strings.Contains(tmpl, "{{title}}") {
		return "", fmt.Errorf("prompt template %s: missing {{title}} placeholder", path)
	}
	return tmpl, nil
}

// BuildPrompt renders the default prompt for item.
func BuildPrompt(item Item) string {
	return RenderPrompt(DefaultTemplate, item)
}

// RenderPrompt fills the placeholders of tmpl from item. The output depends
// only on tmpl and item, so identical items always produce identical prompts.
func RenderPrompt(tmpl string, item Item) string {
	year := "unknown"
	if item.Year > 0 {
		year = strconv.Itoa(item.Year)
	}
	summary := strings.Join(strings.Fields(item.Summary), " ")
	if summary == "" {
		summary = "(none provided)"
	}
	replacer := strings.NewReplacer(
		"{{title}}", strings.TrimSpace(item.Title),
		"{{year}}", year,
		"{{summary}}", summary,
	)
	return replacer.Replace(tmpl)
}
