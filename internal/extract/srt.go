package extract

import (
	"strconv"
	"strings"

	"document-query-bot/models"
)

type srtExtractor struct{}

// Extract strips SRT cue numbers and timestamp lines, keeping only the
// caption text in order.
func (srtExtractor) Extract(filename string, data []byte) ([]models.Document, error) {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")

	var lines []string
	for _, block := range strings.Split(content, "\n\n") {
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if _, err := strconv.Atoi(line); err == nil {
				continue // cue index
			}
			if strings.Contains(line, "-->") {
				continue // timestamp line
			}
			lines = append(lines, line)
		}
	}

	return []models.Document{{Name: filename, Text: strings.Join(lines, "\n")}}, nil
}
