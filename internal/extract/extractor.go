// Package extract pulls plain text out of uploaded document files.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Result is the outcome of extracting one file.
type Result struct {
	Text      string
	FileType  string // MIME type derived from the extension
	PageCount int    // PDFs only, 0 otherwise
}

// fileTypes maps supported extensions to MIME types.
var fileTypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// Extractor extracts text content from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether the file extension has an extractor.
func Supported(path string) bool {
	_, ok := fileTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extract reads the file at path and extracts its text.
func (e *Extractor) Extract(path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts text from content based on the file extension, which
// must include the leading dot. Unknown extensions are treated as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (*Result, error) {
	fileType, ok := fileTypes[ext]
	if !ok {
		fileType = "text/plain"
	}
	res := &Result{FileType: fileType}

	var err error
	switch ext {
	case ".pdf":
		res.Text, res.PageCount, err = readPDF(content)
	case ".docx":
		res.Text, err = readDOCX(content)
	case ".xlsx":
		res.Text, err = readWorkbook(content)
	case ".pptx":
		res.Text, err = readSlides(content)
	default:
		res.Text = readPlain(content)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
