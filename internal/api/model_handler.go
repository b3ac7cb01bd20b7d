package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tally-dashboard/internal/config"
	"github.com/tally-dashboard/internal/service"
)

// ModelHandler handles model adapter endpoints
type ModelHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewModelHandler creates a new ModelHandler
func NewModelHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ModelHandler {
	return &ModelHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "model").Logger(),
	}
}

// Status handles GET /v1/model
func (h *ModelHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Model.Status())
}

// Replace handles POST /v1/model/artifacts
// Expects multipart fields "model" and "transformer"
func (h *ModelHandler) Replace(c *gin.Context) {
	limit := h.cfg.Import.MaxUploadSize
	if err := limitBody(c, limit); err != nil {
		respondError(c, err)
		return
	}

	_, modelData, err := readPart(c, "model", limit)
	if err != nil {
		respondError(c, err)
		return
	}
	_, transformerData, err := readPart(c, "transformer", limit)
	if err != nil {
		respondError(c, err)
		return
	}

	status, err := h.services.Model.Replace(c.Request.Context(), storeFrom(c), modelData, transformerData)
	if err != nil {
		h.log.Warn().Err(err).Msg("Model replacement rejected")
		body := errorBody(err)
		body["status"] = status
		c.JSON(statusFor(err), body)
		return
	}
	c.JSON(http.StatusOK, status)
}
