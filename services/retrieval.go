package services

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"document-query-bot/internal/index"
	"document-query-bot/internal/logger"
	"document-query-bot/models"
)

// State of the retrieval chain for one Answer call.
type State string

const (
	StateIdle       State = "idle"
	StateEmbedding  State = "embedding"
	StateRetrieving State = "retrieving"
	StateGenerating State = "generating"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// RetrievalChain answers a query: embed the question, retrieve the top-K
// chunks, generate an answer constrained to them. Any step failing is
// terminal for that call; there are no retries and no partial results.
type RetrievalChain struct {
	embedder  Embedder
	idx       index.Index
	generator Generator
	topK      int

	mu    sync.Mutex
	state State
}

func NewRetrievalChain(embedder Embedder, idx index.Index, generator Generator, topK int) *RetrievalChain {
	if topK <= 0 {
		topK = 4
	}
	return &RetrievalChain{
		embedder:  embedder,
		idx:       idx,
		generator: generator,
		topK:      topK,
		state:     StateIdle,
	}
}

// State returns the state the chain reached on its most recent call.
func (c *RetrievalChain) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *RetrievalChain) transition(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	logger.Debug("retrieval chain state", "state", string(s))
}

// Answer runs the full chain. An empty index is not an error: the chain
// still reaches the generation step, with zero context chunks.
func (c *RetrievalChain) Answer(ctx context.Context, req models.QueryRequest) (*models.QueryResult, error) {
	tracer := otel.Tracer("retrieval-chain")
	ctx, span := tracer.Start(ctx, "rag.answer")
	defer span.End()
	span.SetAttributes(
		attribute.String("rag.mode", req.Mode),
		attribute.Int("rag.top_k", c.topK),
	)

	c.transition(StateEmbedding)
	vector, err := c.embedder.EmbedQuery(ctx, req.Question, req.APIKey)
	if err != nil {
		c.transition(StateFailed)
		return nil, err
	}

	c.transition(StateRetrieving)
	chunks, err := c.idx.Search(ctx, vector, c.topK)
	if err != nil {
		if !errors.Is(err, index.ErrEmptyIndex) {
			c.transition(StateFailed)
			return nil, err
		}
		chunks = nil
	}
	span.SetAttributes(attribute.Int("rag.retrieved_chunks", len(chunks)))

	c.transition(StateGenerating)
	contextTexts := make([]string, len(chunks))
	for i, chunk := range chunks {
		contextTexts[i] = chunk.Text
	}

	answer, err := c.generator.Generate(ctx, req.Question, contextTexts, req.Mode, req.Temperature, req.APIKey)
	if err != nil {
		c.transition(StateFailed)
		return nil, err
	}

	c.transition(StateDone)
	return &models.QueryResult{Answer: answer, CitedChunks: chunks}, nil
}
