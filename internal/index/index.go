package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"document-query-bot/models"
)

// ErrEmptyIndex is returned by Search before any batch has been ingested.
// The retrieval chain treats it as "zero context chunks", not as a failure.
var ErrEmptyIndex = errors.New("vector index is empty")

// Entry pairs a chunk with its embedding vector.
type Entry struct {
	Vector []float32
	Chunk  models.Chunk
}

// Index holds exactly the chunks of the most recently ingested batch.
// Rebuild replaces the whole content atomically: readers see either the old
// or the new index, never a mix, and a failed rebuild leaves the old index
// untouched.
type Index interface {
	Rebuild(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, vector []float32, k int) ([]models.Chunk, error)
	DocumentNames(ctx context.Context) ([]string, error)
}

// validateEntries checks that all vectors share one non-zero dimension
// before anything is staged.
func validateEntries(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	dim := len(entries[0].Vector)
	if dim == 0 {
		return errors.New("entry 0 has an empty vector")
	}
	for i, e := range entries {
		if len(e.Vector) != dim {
			return fmt.Errorf("entry %d vector dimension %d, want %d", i, len(e.Vector), dim)
		}
	}
	return nil
}

// distinctNames returns the source names in first-seen order.
func distinctNames(entries []Entry) []string {
	var names []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if !seen[e.Chunk.Source] {
			seen[e.Chunk.Source] = true
			names = append(names, e.Chunk.Source)
		}
	}
	return names
}

// rank scores every entry against the query vector and returns the top
// min(k, N) chunks by descending cosine similarity. The sort is stable, so
// ties keep insertion order.
func rank(entries []Entry, vector []float32, k int) []models.Chunk {
	idxs := make([]int, len(entries))
	scores := make([]float64, len(entries))
	for i, e := range entries {
		idxs[i] = i
		scores[i] = cosine(e.Vector, vector)
	}

	sort.SliceStable(idxs, func(a, b int) bool {
		return scores[idxs[a]] > scores[idxs[b]]
	})

	if k > len(idxs) {
		k = len(idxs)
	}
	chunks := make([]models.Chunk, 0, k)
	for i := 0; i < k; i++ {
		chunks = append(chunks, entries[idxs[i]].Chunk)
	}
	return chunks
}

// cosine computes cosine similarity without assuming normalized vectors.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
