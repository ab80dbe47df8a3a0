package loader

import (
	"bytes"

	"github.com/ledongthuc/pdf"
)

// loadPDF extracts the plain text of every page in order. The pdf reader
// needs random access to the file, so it opens path directly.
func (l *Loader) loadPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
