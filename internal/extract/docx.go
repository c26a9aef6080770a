package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// DOCX is a zip whose main body usually lives at word/document.xml; the
// authoritative location is recorded in [Content_Types].xml.
const (
	docxDefaultBodyPath  = "word/document.xml"
	docxContentTypesPath = "[Content_Types].xml"
	docxBodyContentType  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// Text runs: <w:t>text</w:t>, with or without attributes such as
	// xml:space="preserve".
	docxRunRe = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// Paragraph close tags mark line boundaries.
	docxParaEndRe = regexp.MustCompile(`</w:p>`)
	// Override entries in [Content_Types].xml, either attribute order.
	docxOverrideRe = regexp.MustCompile(
		`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxBodyContentType) + `"` +
			`|<Override[^>]+ContentType="` + regexp.QuoteMeta(docxBodyContentType) + `"[^>]+PartName="([^"]+)"`)
)

// extractDOCX pulls every <w:t> text run out of the document body, joining
// runs within a paragraph and separating paragraphs with newlines. Regex
// over the raw XML survives arbitrary run/paragraph attributes that break
// stricter parsers on real-world files.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	bodyPath := docxBodyPath(zr)
	bodyXML, err := readZipFile(zr, bodyPath)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}

	var b strings.Builder
	for _, para := range docxParaEndRe.Split(string(bodyXML), -1) {
		runs := docxRunRe.FindAllStringSubmatch(para, -1)
		if len(runs) == 0 {
			continue
		}
		var line strings.Builder
		for _, run := range runs {
			line.WriteString(run[1])
		}
		if text := strings.TrimSpace(line.String()); text != "" {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(text)
		}
	}
	return b.String(), nil
}

// docxBodyPath resolves the main document part, falling back to the
// conventional path when [Content_Types].xml is absent or unhelpful.
func docxBodyPath(zr *zip.Reader) string {
	data, err := readZipFile(zr, docxContentTypesPath)
	if err != nil {
		return docxDefaultBodyPath
	}
	m := docxOverrideRe.FindStringSubmatch(string(data))
	if m == nil {
		return docxDefaultBodyPath
	}
	part := m[1]
	if part == "" {
		part = m[2]
	}
	return strings.TrimPrefix(part, "/")
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s not found", name)
}
