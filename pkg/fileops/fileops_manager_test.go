package fileops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kcaldas/synopsis/pkg/template"
)

func TestManager_EnsureDir(t *testing.T) {
	manager := NewFileOpsManager()
	testDir := filepath.Join(t.TempDir(), "a", "b")

	err := manager.EnsureDir(testDir)
	require.NoError(t, err)

	stat, err := os.Stat(testDir)
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
}

func TestManager_WriteFile(t *testing.T) {
	manager := NewFileOpsManager()
	testFile := filepath.Join(t.TempDir(), "nested", "test.txt")

	require.NoError(t, manager.WriteFile(testFile, []byte("Hello World")))
	require.NoError(t, manager.WriteFile(testFile, []byte("Hi")))

	data, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "Hi", string(data))
}

func TestManager_WriteNewRefusesToOverwrite(t *testing.T) {
	manager := NewFileOpsManager()
	testFile := filepath.Join(t.TempDir(), "out.txt")

	require.NoError(t, manager.WriteNew(testFile, []byte("first")))

	err := manager.WriteNew(testFile, []byte("second"))
	require.ErrorIs(t, err, ErrOutputExists)

	data, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestManager_ReadFile(t *testing.T) {
	manager := NewFileOpsManager()
	testFile := filepath.Join(t.TempDir(), "read.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("Test content"), 0644))

	content, err := manager.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "Test content", string(content))
}

func TestManager_FileExists(t *testing.T) {
	manager := NewFileOpsManager()
	testFile := filepath.Join(t.TempDir(), "exists.txt")

	assert.False(t, manager.FileExists(testFile))
	require.NoError(t, os.WriteFile(testFile, []byte("x"), 0644))
	assert.True(t, manager.FileExists(testFile))
}

func TestManager_WriteObjectAsYAML(t *testing.T) {
	manager := NewFileOpsManager()
	testFile := filepath.Join(t.TempDir(), "settings.yaml")

	object := map[string]interface{}{
		"model_name":        "mistral",
		"model_token_limit": 4096,
	}
	require.NoError(t, manager.WriteObjectAsYAML(testFile, object))

	data, err := os.ReadFile(testFile)
	require.NoError(t, err)
	var back map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, "mistral", back["model_name"])
	assert.Equal(t, 4096, back["model_token_limit"])

	err = manager.WriteObjectAsYAML(testFile, object)
	assert.ErrorIs(t, err, ErrOutputExists)
}

func TestNamer_For(t *testing.T) {
	namer, err := NewNamer(template.NewEngine(), "{{.base}}-detailed.txt", "{{.base}}-short.txt")
	require.NoError(t, err)

	out, err := namer.For(filepath.Join("books", "moby.dick.epub"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("books", "moby.dick-detailed.txt"), out.Detailed)
	assert.Equal(t, filepath.Join("books", "moby.dick-short.txt"), out.Short)
	assert.Equal(t, []string{out.Detailed, out.Short}, out.Paths())
}

func TestNewNamer_RejectsBadTemplate(t *testing.T) {
	_, err := NewNamer(template.NewEngine(), "{{.base", "{{.base}}-short.txt")
	assert.Error(t, err)

	namer, err := NewNamer(template.NewEngine(), "{{.title}}.txt", "{{.base}}-short.txt")
	require.NoError(t, err)
	_, err = namer.For("book.txt")
	assert.Error(t, err)
}

func TestIsOutput(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"book-detailed.txt", true},
		{"dir/book-short.txt", true},
		{"book.txt", false},
		{"book-detailed.epub", false},
		{"shortlist.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOutput(tt.path))
		})
	}
}

func TestAnyExists(t *testing.T) {
	manager := NewFileOpsManager()
	dir := t.TempDir()
	out := Outputs{Detailed: filepath.Join(dir, "a-detailed.txt"), Short: filepath.Join(dir, "a-short.txt")}

	assert.False(t, AnyExists(manager, out))
	require.NoError(t, os.WriteFile(out.Short, []byte("x"), 0644))
	assert.True(t, AnyExists(manager, out))
}
