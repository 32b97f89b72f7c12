package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	QueryCounter      metric.Int64Counter
	IngestionDuration metric.Float64Histogram
	ChunksIndexed     metric.Int64Counter
	ExtractionErrors  metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("document-query-bot")

	queryCounter, err := meter.Int64Counter(
		"rag.queries.total",
		metric.WithDescription("Total retrieval queries answered"),
	)
	if err != nil {
		return nil, err
	}

	ingestionDuration, err := meter.Float64Histogram(
		"rag.ingestion.duration",
		metric.WithDescription("Ingestion batch duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"rag.chunks.indexed",
		metric.WithDescription("Chunks written to the vector index"),
	)
	if err != nil {
		return nil, err
	}

	extractionErrors, err := meter.Int64Counter(
		"rag.extraction.errors",
		metric.WithDescription("Files that failed text extraction"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		QueryCounter:      queryCounter,
		IngestionDuration: ingestionDuration,
		ChunksIndexed:     chunksIndexed,
		ExtractionErrors:  extractionErrors,
	}, nil
}

// RecordQuery records one answered (or failed) query
func (m *Metrics) RecordQuery(mode string, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("rag.mode", mode),
		attribute.Bool("rag.success", success),
	}
	m.QueryCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordIngestion records one ingestion batch
func (m *Metrics) RecordIngestion(duration float64, chunks, failedFiles int) {
	m.IngestionDuration.Record(context.Background(), duration)
	m.ChunksIndexed.Add(context.Background(), int64(chunks))
	if failedFiles > 0 {
		m.ExtractionErrors.Add(context.Background(), int64(failedFiles))
	}
}
