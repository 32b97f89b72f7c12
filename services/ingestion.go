package services

import (
	"context"

	"document-query-bot/internal/extract"
	"document-query-bot/internal/index"
	"document-query-bot/internal/logger"
	"document-query-bot/models"
)

// Embedder converts text into embedding vectors using the caller's
// credential. Implemented by ai.GeminiEmbedder; faked in tests.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string, apiKey string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string, apiKey string) ([]float32, error)
}

// Generator produces the final answer from the question and the retrieved
// context. Implemented by ai.GeminiGenerator; faked in tests.
type Generator interface {
	Generate(ctx context.Context, question string, contextChunks []string, mode string, temperature float64, apiKey string) (string, error)
}

// UploadedFile is one file of an ingestion batch, already read into memory.
type UploadedFile struct {
	Name string
	Data []byte
}

// IngestionService runs the ingestion path: extract each file, chunk,
// embed, then replace the index in one shot. Extraction failures are
// isolated per file and reported in aggregate; an embedding or rebuild
// failure aborts the whole batch and leaves the previous index untouched.
type IngestionService struct {
	extractors *extract.Registry
	chunker    *Chunker
	embedder   Embedder
	idx        index.Index
	usage      *UsageGuard
}

func NewIngestionService(extractors *extract.Registry, chunker *Chunker, embedder Embedder, idx index.Index, usage *UsageGuard) *IngestionService {
	return &IngestionService{
		extractors: extractors,
		chunker:    chunker,
		embedder:   embedder,
		idx:        idx,
		usage:      usage,
	}
}

// Ingest processes one upload batch. The returned report always carries the
// per-file extraction errors; a non-nil error means the batch aborted and
// the index was not replaced.
func (s *IngestionService) Ingest(ctx context.Context, files []UploadedFile, apiKey string) (*models.IngestReport, error) {
	report := &models.IngestReport{}

	var docs []models.Document
	for _, f := range files {
		extracted, err := s.extractors.Extract(f.Name, f.Data)
		if err != nil {
			logger.Warn("extraction failed", "file", f.Name, "error", err)
			report.Errors = append(report.Errors, models.FileError{File: f.Name, Error: err.Error()})
			continue
		}
		docs = append(docs, extracted...)
	}

	chunks, names := s.chunker.Split(docs)
	report.DocumentNames = names

	if len(docs) == 0 {
		// Every file failed extraction; the previous index stays current.
		return report, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts, apiKey)
	if err != nil {
		return report, err
	}

	entries := make([]index.Entry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = index.Entry{Vector: vectors[i], Chunk: chunk}
	}

	if err := s.idx.Rebuild(ctx, entries); err != nil {
		return report, err
	}

	report.ChunkCount = len(chunks)

	// Usage is charged per successfully ingested document, and only when
	// the host-shared credential paid for the embeddings.
	s.usage.Charge(apiKey, len(names))

	logger.Info("ingestion complete", "documents", names, "chunks", len(chunks), "failed_files", len(report.Errors))
	return report, nil
}
