package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"document-query-bot/internal/config"
)

// Gemini API keys start with this literal; anything else is rejected before
// a remote call is made.
const apiKeyPrefix = "AIza"

// ValidateAPIKey checks the credential syntactically. Used both here and at
// the HTTP boundary so malformed keys never reach the provider.
func ValidateAPIKey(key string) error {
	if key == "" {
		return &AuthError{Reason: "missing API key"}
	}
	if !strings.HasPrefix(key, apiKeyPrefix) {
		return &AuthError{Reason: "API key does not look like a Gemini key"}
	}
	return nil
}

// GeminiEmbedder converts chunk and query text into embedding vectors via
// the Google Generative AI embeddings endpoint (text-embedding-004). It is
// a stateless transform; usage accounting belongs to the caller.
type GeminiEmbedder struct {
	model string
}

func NewGeminiEmbedder(cfg *config.Config) *GeminiEmbedder {
	return &GeminiEmbedder{model: cfg.EmbeddingsModel}
}

// The Gemini API caps one BatchEmbedContents call at 100 requests.
const maxEmbedBatchSize = 100

// EmbedBatch embeds all texts, preserving order. Inputs beyond the API's
// per-call cap are split into sub-batches and the results concatenated.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string, apiKey string) ([][]float32, error) {
	if err := ValidateAPIKey(apiKey); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, wrapRemoteErr("embed", err)
	}
	defer client.Close()

	em := client.EmbeddingModel(e.model)
	vectors := make([][]float32, 0, len(texts))
	for _, group := range splitBatches(texts, maxEmbedBatchSize) {
		batch := em.NewBatch()
		for _, text := range group {
			batch = batch.AddContent(genai.Text(text))
		}

		resp, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, wrapRemoteErr("embed", err)
		}
		if len(resp.Embeddings) != len(group) {
			return nil, &ProviderError{Op: "embed", Err: fmt.Errorf("got %d embeddings for %d texts", len(resp.Embeddings), len(group))}
		}
		for i, emb := range resp.Embeddings {
			if emb == nil || len(emb.Values) == 0 {
				return nil, &ProviderError{Op: "embed", Err: fmt.Errorf("no embedding returned for text %d", len(vectors)+i)}
			}
			vectors = append(vectors, emb.Values)
		}
	}
	return vectors, nil
}

// splitBatches slices texts into groups of at most size, preserving order.
func splitBatches(texts []string, size int) [][]string {
	var groups [][]string
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		groups = append(groups, texts[start:end])
	}
	return groups
}

// EmbedQuery embeds a single query string.
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string, apiKey string) ([]float32, error) {
	if err := ValidateAPIKey(apiKey); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, wrapRemoteErr("embed_query", err)
	}
	defer client.Close()

	resp, err := client.EmbeddingModel(e.model).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, wrapRemoteErr("embed_query", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, &ProviderError{Op: "embed_query", Err: fmt.Errorf("no embedding returned")}
	}

	return resp.Embedding.Values, nil
}
