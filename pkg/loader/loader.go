// Package loader turns input files into plain text for condensation.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kcaldas/synopsis/pkg/fileops"
	"github.com/kcaldas/synopsis/pkg/logging"
)

// ErrUnsupportedFormat is returned for files whose extension has no reader.
var ErrUnsupportedFormat = errors.New("unsupported file format")

type readFunc func(l *Loader, path string) (string, error)

var readers = map[string]readFunc{
	".epub": (*Loader).loadEPUB,
	".json": (*Loader).loadChatLog,
	".pdf":  (*Loader).loadPDF,
	".txt":  (*Loader).loadText,
}

// Extensions lists the supported file extensions in lexical order.
func Extensions() []string {
	exts := make([]string, 0, len(readers))
	for ext := range readers {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Supported reports whether path has a readable extension.
func Supported(path string) bool {
	_, ok := readers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Loader reads documents through a fileops.Manager.
type Loader struct {
	files  fileops.Manager
	logger logging.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithFileManager overrides the file access layer.
func WithFileManager(m fileops.Manager) Option {
	return func(l *Loader) {
		if m != nil {
			l.files = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New returns a Loader backed by the local filesystem.
func New(opts ...Option) *Loader {
	l := &Loader{
		files:  fileops.NewFileOpsManager(),
		logger: logging.NewComponentLogger("loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the text of the document at path.
func (l *Loader) Load(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	read, ok := readers[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	text, err := read(l, path)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", path, err)
	}
	l.logger.Debug("document loaded", "path", path, "format", ext, "chars", len(text))
	return text, nil
}

func (l *Loader) loadText(path string) (string, error) {
	data, err := l.files.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
