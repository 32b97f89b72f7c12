package services

import (
	"context"
	"errors"
)

// stubEmbedder produces deterministic vectors from the text content so the
// same batch always embeds to the same vectors. Errors can be injected per
// method.
type stubEmbedder struct {
	batchErr   error
	queryErr   error
	batchCalls int
	queryCalls int
}

func stubVector(text string) []float32 {
	v := make([]float32, 8)
	for i, r := range text {
		v[(i+int(r))%8] += float32(int(r)%13) + 1
	}
	v[0]++
	return v
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string, _ string) ([][]float32, error) {
	s.batchCalls++
	if s.batchErr != nil {
		return nil, s.batchErr
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = stubVector(text)
	}
	return vectors, nil
}

func (s *stubEmbedder) EmbedQuery(_ context.Context, text string, _ string) ([]float32, error) {
	s.queryCalls++
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return stubVector(text), nil
}

// stubGenerator records the context it was handed and returns a canned
// answer.
type stubGenerator struct {
	answer       string
	err          error
	calls        int
	lastQuestion string
	lastContext  []string
	lastMode     string
}

func (s *stubGenerator) Generate(_ context.Context, question string, contextChunks []string, mode string, _ float64, _ string) (string, error) {
	s.calls++
	s.lastQuestion = question
	s.lastContext = contextChunks
	s.lastMode = mode
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

var errStubProvider = errors.New("provider unavailable")
