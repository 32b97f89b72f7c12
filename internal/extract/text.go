package extract

import (
	"errors"
	"unicode/utf8"

	"document-query-bot/models"
)

type textExtractor struct{}

func (textExtractor) Extract(filename string, data []byte) ([]models.Document, error) {
	if !utf8.Valid(data) {
		return nil, &ExtractionError{File: filename, Err: errors.New("file is not valid UTF-8 text")}
	}
	return []models.Document{{Name: filename, Text: string(data)}}, nil
}
