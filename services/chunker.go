package services

import (
	"strings"

	"github.com/google/uuid"

	"document-query-bot/models"
)

// Chunker splits extracted documents into overlapping fixed-size windows.
// Splitting is a pure sliding window over runes: no sentence awareness, but
// fully deterministic so re-ingesting the same batch yields the same chunks.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker builds a chunker with the configured window size and overlap
// (characters). Invalid values fall back to usable ones.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split chunks every document and returns the chunks plus the distinct
// document names in first-seen order. A document with empty text yields
// zero chunks but still contributes its name.
func (c *Chunker) Split(docs []models.Document) ([]models.Chunk, []string) {
	var chunks []models.Chunk
	var names []string
	seen := make(map[string]bool)

	order := 0
	for _, doc := range docs {
		if !seen[doc.Name] {
			seen[doc.Name] = true
			names = append(names, doc.Name)
		}

		runes := []rune(strings.TrimSpace(doc.Text))
		if len(runes) == 0 {
			continue
		}

		step := c.size - c.overlap
		for start := 0; start < len(runes); start += step {
			end := start + c.size
			if end > len(runes) {
				end = len(runes)
			}
			text := strings.TrimSpace(string(runes[start:end]))
			if text != "" {
				chunks = append(chunks, models.Chunk{
					ChunkID: uuid.NewString(),
					Text:    text,
					Source:  doc.Name,
					Page:    doc.Page,
					Order:   order,
				})
				order++
			}
			if end == len(runes) {
				break
			}
		}
	}

	return chunks, names
}
