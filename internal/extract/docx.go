package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"document-query-bot/models"
)

type docxExtractor struct{}

// wordDocument mirrors the parts of word/document.xml we care about.
type wordDocument struct {
	Body struct {
		Paragraphs []wordParagraph `xml:"p"`
	} `xml:"body"`
}

type wordParagraph struct {
	Runs []wordRun `xml:"r"`
}

type wordRun struct {
	Text []wordText `xml:"t"`
}

type wordText struct {
	Content string `xml:",chardata"`
}

// Extract opens the DOCX zip container and pulls text out of
// word/document.xml, one line per paragraph.
func (docxExtractor) Extract(filename string, data []byte) ([]models.Document, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ExtractionError{File: filename, Err: errors.New("not a valid docx container")}
	}

	var raw []byte
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, &ExtractionError{File: filename, Err: err}
		}
		raw, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &ExtractionError{File: filename, Err: err}
		}
		break
	}
	if raw == nil {
		return nil, &ExtractionError{File: filename, Err: errors.New("docx has no word/document.xml")}
	}

	var doc wordDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, &ExtractionError{File: filename, Err: err}
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, t := range run.Text {
				b.WriteString(t.Content)
			}
		}
	}

	return []models.Document{{Name: filename, Text: strings.TrimSpace(b.String())}}, nil
}
