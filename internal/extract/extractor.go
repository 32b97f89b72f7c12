package extract

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"document-query-bot/models"
)

// ExtractionError marks a single file that could not be converted to text.
// It never aborts the rest of an ingestion batch.
type ExtractionError struct {
	File string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.File, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor converts one uploaded file into raw text documents. Extractors
// that know about pages (PDF) return one Document per page.
type Extractor interface {
	Extract(filename string, data []byte) ([]models.Document, error)
}

// Registry dispatches on the lowercase file extension. New formats register
// a variant here without touching the ingestion pipeline.
type Registry struct {
	byExt map[string]Extractor
}

func NewRegistry() *Registry {
	return &Registry{
		byExt: map[string]Extractor{
			"pdf":  pdfExtractor{},
			"txt":  textExtractor{},
			"docx": docxExtractor{},
			"srt":  srtExtractor{},
			"json": jsonExtractor{},
		},
	}
}

// SupportedExtensions returns the registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract picks the extractor for the file's extension and runs it. An
// unknown extension is an ExtractionError like any other per-file failure.
func (r *Registry) Extract(filename string, data []byte) ([]models.Document, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, &ExtractionError{File: filename, Err: fmt.Errorf("unsupported file type %q", ext)}
	}
	return e.Extract(filename, data)
}
