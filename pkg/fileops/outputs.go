package fileops

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kcaldas/synopsis/pkg/template"
)

// Outputs holds the two result paths written for one input document.
type Outputs struct {
	Detailed string
	Short    string
}

// Paths returns both paths.
func (o Outputs) Paths() []string {
	return []string{o.Detailed, o.Short}
}

// Namer derives output paths from an input path. Templates see {{.base}},
// the input name without directory and extension, and {{.ext}}.
type Namer struct {
	detailed *template.Template
	short    *template.Template
}

// NewNamer parses the detailed and short filename templates.
func NewNamer(engine template.Engine, detailedTemplate, shortTemplate string) (*Namer, error) {
	detailed, err := engine.Parse("detailed", detailedTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse detailed output name: %w", err)
	}
	short, err := engine.Parse("short", shortTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse short output name: %w", err)
	}
	return &Namer{detailed: detailed, short: short}, nil
}

// For returns the outputs for input, placed in the input's directory.
func (n *Namer) For(input string) (Outputs, error) {
	dir := filepath.Dir(input)
	ext := filepath.Ext(input)
	data := map[string]string{
		"base": strings.TrimSuffix(filepath.Base(input), ext),
		"ext":  ext,
	}

	detailed, err := n.detailed.Render(data)
	if err != nil {
		return Outputs{}, fmt.Errorf("render detailed output name: %w", err)
	}
	short, err := n.short.Render(data)
	if err != nil {
		return Outputs{}, fmt.Errorf("render short output name: %w", err)
	}
	return Outputs{
		Detailed: filepath.Join(dir, detailed),
		Short:    filepath.Join(dir, short),
	}, nil
}

// IsOutput reports whether input is a text file named like a previous
// result: a .txt whose base ends in -detailed or -short.
func IsOutput(input string) bool {
	ext := filepath.Ext(input)
	if !strings.EqualFold(ext, ".txt") {
		return false
	}
	base := strings.TrimSuffix(filepath.Base(input), ext)
	return strings.HasSuffix(base, "-detailed") || strings.HasSuffix(base, "-short")
}

// AnyExists reports whether either output is already on disk.
func AnyExists(m Manager, out Outputs) bool {
	return m.FileExists(out.Detailed) || m.FileExists(out.Short)
}
