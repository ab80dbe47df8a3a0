package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const containerPath = "META-INF/container.xml"

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

// loadEPUB walks the spine in reading order and keeps the text of each
// chapter's paragraphs, one per line.
func (l *Loader) loadEPUB(p string) (string, error) {
	data, err := l.files.ReadFile(p)
	if err != nil {
		return "", err
	}
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("epub: %w", err)
	}

	files := make(map[string]*zip.File, len(archive.File))
	for _, f := range archive.File {
		files[f.Name] = f
	}

	var container epubContainer
	if err := decodeXML(files, containerPath, &container); err != nil {
		return "", err
	}
	if len(container.Rootfiles) == 0 || container.Rootfiles[0].FullPath == "" {
		return "", errors.New("epub: container lists no package document")
	}
	opfPath := container.Rootfiles[0].FullPath

	var pkg epubPackage
	if err := decodeXML(files, opfPath, &pkg); err != nil {
		return "", err
	}

	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		hrefs[item.ID] = item.Href
	}

	base := path.Dir(opfPath)
	var sb strings.Builder
	for _, ref := range pkg.Spine {
		href, ok := hrefs[ref.IDRef]
		if !ok {
			l.logger.Warn("epub spine references unknown item", "idref", ref.IDRef)
			continue
		}
		name, err := chapterPath(base, href)
		if err != nil {
			return "", err
		}
		f, ok := files[name]
		if !ok {
			l.logger.Warn("epub chapter missing from archive", "path", name)
			continue
		}
		if err := appendChapterText(&sb, f); err != nil {
			return "", fmt.Errorf("epub: chapter %s: %w", name, err)
		}
	}
	return sb.String(), nil
}

func chapterPath(base, href string) (string, error) {
	href, _, _ = strings.Cut(href, "#")
	unescaped, err := url.PathUnescape(href)
	if err != nil {
		return "", fmt.Errorf("epub: bad href %q: %w", href, err)
	}
	if base == "." {
		return path.Clean(unescaped), nil
	}
	return path.Join(base, unescaped), nil
}

func appendChapterText(sb *strings.Builder, f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	doc, err := goquery.NewDocumentFromReader(rc)
	if err != nil {
		return err
	}

	paragraphs := doc.Find("p")
	if paragraphs.Length() == 0 {
		if text := strings.TrimSpace(doc.Find("body").Text()); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
		return nil
	}
	paragraphs.Each(func(_ int, s *goquery.Selection) {
		sb.WriteString(s.Text())
		sb.WriteString("\n")
	})
	return nil
}

func decodeXML(files map[string]*zip.File, name string, v any) error {
	f, ok := files[name]
	if !ok {
		return fmt.Errorf("epub: missing %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("epub: open %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("epub: read %s: %w", name, err)
	}
	if err := xml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("epub: parse %s: %w", name, err)
	}
	return nil
}
