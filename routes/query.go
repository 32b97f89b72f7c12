package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"document-query-bot/internal/ai"
	"document-query-bot/internal/config"
	"document-query-bot/internal/telemetry"
	"document-query-bot/models"
	"document-query-bot/services"
	"document-query-bot/utils"
)

// SetupQueryRoutes wires the query boundary.
func SetupQueryRoutes(router *gin.Engine, cfg *config.Config, chain *services.RetrievalChain, metrics *telemetry.Metrics) {
	router.POST("/query", handleQuery(cfg, chain, metrics))
}

func handleQuery(cfg *config.Config, chain *services.RetrievalChain, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		if req.Source == "" {
			req.Source = models.SourceUploadedDocuments
		}
		if req.Source != models.SourceUploadedDocuments {
			utils.RespondWithBadRequest(c, "Unknown query source", gin.H{"source": req.Source})
			return
		}

		if req.Mode == "" {
			req.Mode = models.ModeUnrestricted
		}
		if req.Mode != models.ModeUnrestricted && req.Mode != models.ModeGrounded {
			utils.RespondWithBadRequest(c, "Unknown response mode", gin.H{"mode": req.Mode})
			return
		}

		if req.Temperature < 0 || req.Temperature > 1 {
			utils.RespondWithBadRequest(c, "Temperature must be in [0, 1]", gin.H{"temperature": req.Temperature})
			return
		}

		apiKey, _, err := resolveAPIKey(cfg, req.APIKey)
		if err != nil {
			respondPipelineError(c, err)
			return
		}
		// Gate on the key prefix before any remote call is made.
		if err := ai.ValidateAPIKey(apiKey); err != nil {
			respondPipelineError(c, err)
			return
		}
		req.APIKey = apiKey

		result, err := chain.Answer(c.Request.Context(), req)
		if metrics != nil {
			metrics.RecordQuery(req.Mode, err == nil)
		}
		if err != nil {
			respondPipelineError(c, err)
			return
		}

		sources := make([]models.Citation, 0, len(result.CitedChunks))
		for _, chunk := range result.CitedChunks {
			sources = append(sources, models.Citation{
				Text:   chunk.Text,
				Source: chunk.Source,
				Page:   chunk.Page,
			})
		}

		c.JSON(http.StatusOK, models.QueryResponse{
			Answer:  result.Answer,
			Sources: sources,
		})
	}
}
