package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrOutputExists is returned when a write-once output is already present.
var ErrOutputExists = errors.New("output already exists")

// Manager provides file operation functionality
type Manager interface {
	EnsureDir(path string) error
	WriteFile(path string, content []byte) error
	WriteNew(path string, content []byte) error
	ReadFile(path string) ([]byte, error)
	FileExists(path string) bool
	WriteObjectAsYAML(path string, object interface{}) error
}

// DefaultManager implements the Manager interface
type DefaultManager struct {
}

// NewFileOpsManager creates a new default file manager
func NewFileOpsManager() Manager {
	return &DefaultManager{}
}

// EnsureDir creates a directory if it doesn't exist
func (m *DefaultManager) EnsureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0755)
	}
	return nil
}

// WriteFile writes content to a file, creating directories as needed
func (m *DefaultManager) WriteFile(path string, content []byte) error {
	return m.write(path, content, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
}

// WriteNew writes content to a file that must not exist yet. An existing
// file is left untouched and ErrOutputExists is returned.
func (m *DefaultManager) WriteNew(path string, content []byte) error {
	return m.write(path, content, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
}

func (m *DefaultManager) write(path string, content []byte, flag int) error {
	if err := m.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	file, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
		return fmt.Errorf("error creating file: %w", err)
	}

	if _, err := file.Write(content); err != nil {
		_ = file.Close()
		return fmt.Errorf("error writing to file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("error closing file: %w", err)
	}
	return nil
}

// ReadFile reads content from a file
func (m *DefaultManager) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// FileExists checks if a file exists
func (m *DefaultManager) FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// WriteObjectAsYAML marshals an object to YAML and writes it to a new file.
// It refuses to overwrite.
func (m *DefaultManager) WriteObjectAsYAML(path string, object interface{}) error {
	data, err := yaml.Marshal(object)
	if err != nil {
		return fmt.Errorf("error marshalling to YAML: %w", err)
	}

	return m.WriteNew(path, data)
}
