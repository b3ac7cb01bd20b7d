package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tally-dashboard/internal/service"
)

const defaultRecentLimit = 20

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// Download handles GET /v1/exports/:collection
// Sends the whole collection as an attachment
func (h *ExportHandler) Download(c *gin.Context) {
	collection := c.Param("collection")

	file, err := h.services.Export.Export(c.Request.Context(), storeFrom(c), collection)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("X-Row-Count", strconv.Itoa(file.Rows))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// Archived handles GET /v1/archives/:archive_id
func (h *ExportHandler) Archived(c *gin.Context) {
	file, err := h.services.Export.Archived(c.Request.Context(), storeFrom(c), c.Param("archive_id"))
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			h.log.Error().Err(err).Msg("Failed to load export archive")
		}
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("X-Row-Count", strconv.Itoa(file.Rows))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// RecentExports handles GET /v1/exports?limit=...
func (h *ExportHandler) RecentExports(c *gin.Context) {
	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	archives, err := h.services.Export.RecentExports(c.Request.Context(), storeFrom(c), limit)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			h.log.Error().Err(err).Msg("Failed to list export archives")
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exports": archives, "count": len(archives)})
}
