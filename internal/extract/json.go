package extract

import (
	"encoding/json"
	"sort"
	"strings"

	"document-query-bot/models"
)

type jsonExtractor struct{}

// Extract flattens the JSON value into its string scalars, walking objects
// in sorted key order so the output is deterministic.
func (jsonExtractor) Extract(filename string, data []byte) ([]models.Document, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, &ExtractionError{File: filename, Err: err}
	}

	var lines []string
	collectStrings(value, &lines)

	return []models.Document{{Name: filename, Text: strings.Join(lines, "\n")}}, nil
}

func collectStrings(value any, out *[]string) {
	switch v := value.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			*out = append(*out, s)
		}
	case []any:
		for _, item := range v {
			collectStrings(item, out)
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectStrings(v[k], out)
		}
	}
}
