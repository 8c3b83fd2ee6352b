package translate

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/quantmind-br/docstranslate/internal/finetune"
)

//go:embed prompt.tmpl
var promptText string

var promptTemplate = template.Must(template.New("prompt").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(promptText))

type promptData struct {
	From     string
	To       string
	Source   string
	Examples []finetune.Example
}

// BuildPrompt composes the translation prompt: fixed rules, two worked
// examples, the source text and then the caller's fine-tune examples in
// submission order
func BuildPrompt(from, to, source string, examples []finetune.Example) (string, error) {
	var b strings.Builder
	err := promptTemplate.Execute(&b, promptData{
		From:     from,
		To:       to,
		Source:   source,
		Examples: examples,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return b.String(), nil
}
