package routes

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"document-query-bot/internal/ai"
	"document-query-bot/internal/config"
	"document-query-bot/internal/index"
	"document-query-bot/internal/telemetry"
	"document-query-bot/services"
	"document-query-bot/utils"
)

// SetupDocumentRoutes wires the upload boundary, the document listing and
// the usage counter endpoint.
func SetupDocumentRoutes(router *gin.Engine, cfg *config.Config, ingest *services.IngestionService, idx index.Index, usage *services.UsageGuard, metrics *telemetry.Metrics) {
	docs := router.Group("/documents")
	docs.POST("/upload", handleUpload(cfg, ingest, usage, metrics))
	docs.GET("", handleListDocuments(idx))

	router.GET("/usage", handleUsage(cfg, usage))
}

// handleUpload accepts a multipart batch of files and runs the ingestion
// pipeline. Upload has replace semantics: a successful batch discards the
// previous index content entirely.
func handleUpload(cfg *config.Config, ingest *services.IngestionService, usage *services.UsageGuard, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseMultipartForm(cfg.MaxFileSize); err != nil {
			utils.RespondWithBadRequest(c, "Invalid multipart form or files too large", gin.H{"error": err.Error()})
			return
		}

		form := c.Request.MultipartForm
		headers := form.File["files"]
		if len(headers) == 0 {
			utils.RespondWithBadRequest(c, "No files provided", nil)
			return
		}

		apiKey, isHostKey, err := resolveAPIKey(cfg, c.PostForm("api_key"))
		if err != nil {
			respondPipelineError(c, err)
			return
		}
		// Reject malformed keys before touching file contents or the provider.
		if err := ai.ValidateAPIKey(apiKey); err != nil {
			respondPipelineError(c, err)
			return
		}
		if isHostKey && usage.CapReached() {
			utils.RespondWithError(c, http.StatusForbidden, "host_usage_cap_reached",
				"Host API key usage cap reached. Supply your own API key.",
				gin.H{"used": usage.Count(), "cap": usage.Cap()})
			return
		}

		files := make([]services.UploadedFile, 0, len(headers))
		for _, header := range headers {
			if header.Size > cfg.MaxFileSize {
				utils.RespondWithBadRequest(c, fmt.Sprintf("File %s exceeds maximum size", header.Filename), nil)
				return
			}
			f, err := header.Open()
			if err != nil {
				utils.RespondWithInternalError(c, "Failed to open uploaded file", gin.H{"file": header.Filename})
				return
			}
			data, err := io.ReadAll(io.LimitReader(f, cfg.MaxFileSize))
			f.Close()
			if err != nil {
				utils.RespondWithInternalError(c, "Failed to read uploaded file", gin.H{"file": header.Filename})
				return
			}
			files = append(files, services.UploadedFile{Name: header.Filename, Data: data})
		}

		start := time.Now()
		report, err := ingest.Ingest(c.Request.Context(), files, apiKey)
		if metrics != nil {
			metrics.RecordIngestion(time.Since(start).Seconds(), report.ChunkCount, len(report.Errors))
		}
		if err != nil {
			respondPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"document_names": report.DocumentNames,
			"chunk_count":    report.ChunkCount,
			"errors":         report.Errors,
		})
	}
}

func handleListDocuments(idx index.Index) gin.HandlerFunc {
	return func(c *gin.Context) {
		names, err := idx.DocumentNames(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list documents", gin.H{"error": err.Error()})
			return
		}
		if names == nil {
			names = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"document_names": names})
	}
}

func handleUsage(cfg *config.Config, usage *services.UsageGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"documents_embedded": usage.Count(),
			"cap":                usage.Cap(),
			"host_key_enabled":   cfg.EnableHostAPIKey,
		})
	}
}
