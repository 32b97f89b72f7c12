package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"document-query-bot/internal/config"
	"document-query-bot/internal/logger"
	"document-query-bot/models"
)

// Answer returned for a grounded query when retrieval produced no context.
// The generation step must not crash on an empty corpus.
const noContextAnswer = "I could not find relevant information in the uploaded documents."

// GeminiGenerator drives the generation step of the retrieval chain. A
// circuit breaker and a client-side rate limiter sit in front of the remote
// call; there are no retries, failure is terminal for the query.
type GeminiGenerator struct {
	model       string
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

type rateLimits struct {
	RPM int // Requests per minute
}

func getRateLimits(tier string) rateLimits {
	switch tier {
	case "tier1":
		return rateLimits{RPM: 1000}
	case "tier2":
		return rateLimits{RPM: 2000}
	default:
		return rateLimits{RPM: 10}
	}
}

func NewGeminiGenerator(cfg *config.Config) *GeminiGenerator {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	limits := getRateLimits(cfg.GeminiTier)
	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), max(limits.RPM/10, 1))

	return &GeminiGenerator{
		model:       cfg.GeminiModel,
		breaker:     breaker,
		rateLimiter: rateLimiter,
	}
}

// Generate answers the question from the retrieved context chunks. Grounded
// mode constrains the model to the provided context; with no context at all
// it answers locally instead of burning a remote call.
func (g *GeminiGenerator) Generate(ctx context.Context, question string, contextChunks []string, mode string, temperature float64, apiKey string) (string, error) {
	tracer := otel.Tracer("gemini-generator")
	ctx, span := tracer.Start(ctx, "gemini.generate")
	defer span.End()

	span.SetAttributes(
		attribute.String("gemini.model", g.model),
		attribute.String("gemini.mode", mode),
		attribute.Int("gemini.context_chunks", len(contextChunks)),
	)

	if err := ValidateAPIKey(apiKey); err != nil {
		return "", err
	}

	if len(contextChunks) == 0 && mode == models.ModeGrounded {
		span.SetAttributes(attribute.Bool("gemini.no_context", true))
		return noContextAnswer, nil
	}

	if err := g.rateLimiter.Wait(ctx); err != nil {
		return "", &ProviderError{Op: "generate", Err: err}
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			return nil, err
		}
		defer client.Close()

		model := client.GenerativeModel(g.model)
		model.SetTemperature(float32(temperature))
		model.SetMaxOutputTokens(2048)

		prompt := buildPrompt(question, contextChunks, mode)
		return model.GenerateContent(ctx, genai.Text(prompt))
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", &ProviderError{Op: "generate", Err: err}
		}
		return "", wrapRemoteErr("generate", err)
	}

	answer := extractText(result.(*genai.GenerateContentResponse))
	if answer == "" {
		return "", &ProviderError{Op: "generate", Err: fmt.Errorf("empty response from model")}
	}

	span.SetAttributes(attribute.Bool("gemini.success", true))
	return answer, nil
}

// buildPrompt assembles the context block and the question. Grounded mode
// forbids answers from outside the provided context.
func buildPrompt(question string, contextChunks []string, mode string) string {
	if len(contextChunks) == 0 {
		return question
	}

	var b strings.Builder
	for i, chunk := range contextChunks {
		fmt.Fprintf(&b, "Context %d:\n%s\n\n", i+1, chunk)
	}

	if mode == models.ModeGrounded {
		return fmt.Sprintf("Answer the question using ONLY the context below. If the context does not contain the answer, say that the uploaded documents do not cover it.\n\n%s\nQuestion: %s", b.String(), question)
	}
	return fmt.Sprintf("Based on the following context:\n\n%s\nPlease answer this question: %s", b.String(), question)
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return strings.TrimSpace(b.String())
}
