package loader

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcaldas/synopsis/pkg/logging"
)

func newTestLoader() *Loader {
	return New(WithLogger(logging.NewDisabledLogger()))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeEPUB(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.epub")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

const testContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <manifest>
    <item id="c2" href="text/chapter%202.xhtml" media-type="application/xhtml+xml"/>
    <item id="c1" href="text/chapter1.xhtml" media-type="application/xhtml+xml"/>
    <item id="css" href="style.css" media-type="text/css"/>
  </manifest>
  <spine>
    <itemref idref="c1"/>
    <itemref idref="c2"/>
  </spine>
</package>`

func TestLoad_Text(t *testing.T) {
	path := writeFile(t, "notes.txt", "Plain text.\nSecond line.")
	text, err := newTestLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Plain text.\nSecond line.", text)
}

func TestLoad_ChatLog(t *testing.T) {
	path := writeFile(t, "chat.json", `{"messages":[
		{"author":{"name":"Ann"},"content":"Hello."},
		{"author":{"name":"Bob"},"content":"Hi there."}
	]}`)
	text, err := newTestLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Ann: Hello.\nBob: Hi there.", text)
}

func TestLoad_ChatLogMalformed(t *testing.T) {
	for name, body := range map[string]string{
		"invalid.json":     `{"messages": [`,
		"no-messages.json": `{"items": []}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := newTestLoader().Load(writeFile(t, name, body))
			assert.ErrorIs(t, err, errMalformedChatLog)
		})
	}
}

func TestLoad_EPUBFollowsSpine(t *testing.T) {
	path := writeEPUB(t, map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": testContainer,
		"OEBPS/content.opf":      testOPF,
		"OEBPS/text/chapter1.xhtml": `<html><body><h1>One</h1>
			<p>First paragraph.</p><p>Second <em>paragraph</em>.</p></body></html>`,
		"OEBPS/text/chapter 2.xhtml": `<html><body><div>Only a div here.</div></body></html>`,
	})

	text, err := newTestLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.\nOnly a div here.\n", text)
}

func TestLoad_EPUBMissingContainer(t *testing.T) {
	path := writeEPUB(t, map[string]string{"mimetype": "application/epub+zip"})
	_, err := newTestLoader().Load(path)
	assert.ErrorContains(t, err, "META-INF/container.xml")
}

func TestLoad_PDFRejectsGarbage(t *testing.T) {
	path := writeFile(t, "broken.pdf", "this is not a pdf")
	_, err := newTestLoader().Load(path)
	assert.Error(t, err)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := newTestLoader().Load("slides.pptx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a/b/book.EPUB"))
	assert.True(t, Supported("chat.json"))
	assert.False(t, Supported("image.png"))
	assert.False(t, Supported("README"))
	assert.Equal(t, []string{".epub", ".json", ".pdf", ".txt"}, Extensions())
}
