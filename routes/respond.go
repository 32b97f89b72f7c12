package routes

import (
	"errors"

	"github.com/gin-gonic/gin"

	"document-query-bot/internal/ai"
	"document-query-bot/internal/config"
	"document-query-bot/utils"
)

// respondPipelineError maps the error taxonomy onto HTTP statuses:
// credential problems are the caller's fault, provider failures are the
// upstream's.
func respondPipelineError(c *gin.Context, err error) {
	var authErr *ai.AuthError
	if errors.As(err, &authErr) {
		utils.RespondWithUnauthorized(c, authErr.Error())
		return
	}

	var providerErr *ai.ProviderError
	if errors.As(err, &providerErr) {
		utils.RespondWithBadGateway(c, "Upstream AI provider failed", gin.H{"error": providerErr.Error()})
		return
	}

	utils.RespondWithInternalError(c, "Operation failed", gin.H{"error": err.Error()})
}

// resolveAPIKey picks the credential for a request: the caller's own key if
// supplied, otherwise the host-shared key when that is enabled. The second
// return value reports whether the host key was chosen.
func resolveAPIKey(cfg *config.Config, provided string) (string, bool, error) {
	if provided != "" {
		return provided, provided == cfg.GeminiAPIKey, nil
	}
	if cfg.EnableHostAPIKey {
		return cfg.GeminiAPIKey, true, nil
	}
	return "", false, &ai.AuthError{Reason: "no API key provided and host key is disabled"}
}
