package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// drawingTextNode matches the inner text of <a:t> nodes in slide XML.
var drawingTextNode = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// readSlides extracts text from .pptx bytes by collecting every <a:t> text
// node from ppt/slides/slideN.xml.
func readSlides(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open PPTX: not a zip: %w", err)
	}

	var buf strings.Builder
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "ppt/slides/slide") || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		slideXML, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		for _, p := range drawingTextNode.FindAllStringSubmatch(string(slideXML), -1) {
			text := strings.TrimSpace(p[1])
			if text == "" {
				continue
			}
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(text)
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
