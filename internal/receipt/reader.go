// Package receipt extracts text and structured fields from uploaded receipt
// files. Extraction is a best-effort pre-fill aid; it never gates submission.
package receipt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// TextReader pulls raw text out of receipt files (PDF or image) using mupdf.
type TextReader struct {
	logger *zap.Logger
}

// NewTextReader creates a new text reader
func NewTextReader(logger *zap.Logger) *TextReader {
	return &TextReader{logger: logger}
}

var supportedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Supported reports whether the file extension is one we can read.
func Supported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// ReadText extracts the text of every page of the file, concatenated with
// newlines. Pages that fail to render are skipped.
func (r *TextReader) ReadText(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("receipt file not found: %s", path)
	}
	if !Supported(path) {
		return "", fmt.Errorf("unsupported receipt file type: %s", filepath.Ext(path))
	}

	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open receipt: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	pageCount := doc.NumPage()

	for pageNum := 0; pageNum < pageCount; pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			r.logger.Warn("Failed to extract page text",
				zap.String("path", path),
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	raw := strings.TrimSpace(sb.String())
	r.logger.Debug("Receipt text extracted",
		zap.String("path", path),
		zap.Int("pages", pageCount),
		zap.Int("chars", len(raw)))
	return raw, nil
}
