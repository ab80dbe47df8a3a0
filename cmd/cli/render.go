package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
)

const renderWidth = 80

// printSummary writes a titled summary. On a terminal the body goes through
// the markdown renderer; elsewhere it is written verbatim.
func printSummary(w io.Writer, title, body string, render bool) error {
	if !render {
		_, err := fmt.Fprintf(w, "=== %s ===\n%s\n", title, strings.TrimRight(body, "\n"))
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(renderWidth),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := renderer.Render(fmt.Sprintf("## %s\n\n%s\n", title, body))
	if err != nil {
		return fmt.Errorf("render %s: %w", strings.ToLower(title), err)
	}
	_, err = io.WriteString(w, out)
	return err
}
