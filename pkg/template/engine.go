package template

import (
	"bytes"
	"strings"
	"text/template"
)

// Engine provides template rendering functionality
type Engine interface {
	RenderString(templateContent string, data map[string]string) (string, error)
	Parse(name, templateContent string) (*Template, error)
}

// Template is a parsed template that can be rendered repeatedly.
type Template struct {
	tmpl *template.Template
}

// DefaultEngine implements the Engine interface
type DefaultEngine struct {
}

// NewEngine creates a new default template engine
func NewEngine() Engine {
	return &DefaultEngine{}
}

// RenderString renders a template string with the provided data
func (e *DefaultEngine) RenderString(templateContent string, data map[string]string) (string, error) {
	tmpl, err := e.Parse("template", templateContent)
	if err != nil {
		return "", err
	}
	return tmpl.Render(data)
}

// Parse compiles templateContent. Referencing a key missing from the data
// is a render error.
func (e *DefaultEngine) Parse(name, templateContent string) (*Template, error) {
	tmpl, err := template.New(name).Funcs(template.FuncMap{
		"indent": indent,
		"trim":   strings.TrimSpace,
	}).Option("missingkey=error").Parse(templateContent)
	if err != nil {
		return nil, err
	}
	return &Template{tmpl: tmpl}, nil
}

// Render executes the template against data
func (t *Template) Render(data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// indent adds the specified number of spaces to the beginning of each line
func indent(spaces int, text string) string {
	prefix := strings.Repeat(" ", spaces)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
