package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"document-query-bot/models"
)

type pdfExtractor struct{}

// Extract reads every page of the PDF. Pages that fail text extraction are
// skipped; the parser can panic on malformed input, so that is trapped and
// reported as an ExtractionError.
func (pdfExtractor) Extract(filename string, data []byte) (docs []models.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			docs = nil
			err = &ExtractionError{File: filename, Err: fmt.Errorf("malformed pdf: %v", r)}
		}
	}()

	reader, rerr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if rerr != nil {
		return nil, &ExtractionError{File: filename, Err: rerr}
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, terr := page.GetPlainText(nil)
		if terr != nil {
			continue
		}
		docs = append(docs, models.Document{Name: filename, Text: text, Page: i})
	}

	return docs, nil
}
