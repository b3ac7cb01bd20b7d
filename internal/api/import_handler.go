package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tally-dashboard/internal/config"
	"github.com/tally-dashboard/internal/service"
	"github.com/tally-dashboard/internal/view"
)

// ImportHandler handles upload endpoints
type ImportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

func tooLarge(limit int64) error {
	return fmt.Errorf("%w, max size is %d bytes", errUploadTooLarge, limit)
}

// limitBody caps the request body at limit bytes
func limitBody(c *gin.Context, limit int64) error {
	if c.Request.ContentLength > limit {
		return tooLarge(limit)
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	return nil
}

// readPart reads one multipart file field fully into memory
func readPart(c *gin.Context, field string, limit int64) (string, []byte, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return "", nil, tooLarge(limit)
		}
		return "", nil, fmt.Errorf("%w: %s", errMissingFile, field)
	}
	defer file.Close()

	if header.Size > limit {
		return "", nil, tooLarge(limit)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return header.Filename, data, nil
}

// readUpload reads the single file field of an upload request
func readUpload(c *gin.Context, field string, limit int64) (string, []byte, error) {
	if err := limitBody(c, limit); err != nil {
		return "", nil, err
	}
	return readPart(c, field, limit)
}

// Preview handles POST /v1/imports/:collection/preview
func (h *ImportHandler) Preview(c *gin.Context) {
	filename, data, err := readUpload(c, "file", h.cfg.Import.MaxUploadSize)
	if err != nil {
		respondError(c, err)
		return
	}

	preview, err := h.services.Import.Preview(c.Request.Context(), storeFrom(c), c.Param("collection"), filename, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// Import handles POST /v1/imports/:collection
// Rows are merged only when every column and value checks out.
func (h *ImportHandler) Import(c *gin.Context) {
	collection := c.Param("collection")

	filename, data, err := readUpload(c, "file", h.cfg.Import.MaxUploadSize)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.services.Import.Import(c.Request.Context(), storeFrom(c), collection, filename, data)
	if err != nil {
		h.log.Info().Err(err).Str("collection", collection).Str("filename", filename).Msg("Import rejected")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AnalyzeWater handles POST /v1/water/analyze
func (h *ImportHandler) AnalyzeWater(c *gin.Context) {
	store := storeFrom(c)

	filename, data, err := readUpload(c, "file", h.cfg.Import.MaxUploadSize)
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := h.services.Import.AnalyzeWater(c.Request.Context(), store, filename, data)
	if err != nil {
		respondError(c, err)
		return
	}

	display, err := h.services.Dashboard.Render(store, view.Request{
		Module:   "water",
		Messages: []view.Message{{Level: view.LevelSuccess, Text: fmt.Sprintf("Analyzed %d households", report.Records)}},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report, "display": display})
}
