package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tally-dashboard/internal/forms"
	"github.com/tally-dashboard/internal/models"
	"github.com/tally-dashboard/internal/service"
	"github.com/tally-dashboard/internal/validation"
	"github.com/tally-dashboard/internal/view"
)

// DashboardHandler handles module, form and collection endpoints
type DashboardHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(services *service.Services, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		services: services,
		log:      log.With().Str("handler", "dashboard").Logger(),
	}
}

// parseFilter reads the search, from and to query parameters
func parseFilter(c *gin.Context) (view.Filter, error) {
	f := view.Filter{Search: strings.TrimSpace(c.Query("search"))}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		t, err := validation.ParseDate(raw)
		if err != nil {
			return f, fmt.Errorf("%w: %s must be YYYY-MM-DD", errInvalidFilter, p.name)
		}
		*p.dst = &t
	}
	return f, nil
}

// displayStatus is the HTTP status of a rendered display
func displayStatus(d view.Display) int {
	switch d.Kind {
	case view.KindLogin:
		return http.StatusUnauthorized
	case view.KindAccessDenied:
		return http.StatusForbidden
	}
	return http.StatusOK
}

// Modules handles GET /v1/modules
func (h *DashboardHandler) Modules(c *gin.Context) {
	session, err := storeFrom(c).Session()
	if err != nil {
		respondError(c, err)
		return
	}
	if !session.LoggedIn {
		respondError(c, service.ErrNotAuthenticated)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modules": models.ModulesFor(session)})
}

// Module handles GET /v1/modules/:module
func (h *DashboardHandler) Module(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	display, err := h.services.Dashboard.Render(storeFrom(c), view.Request{
		Module: c.Param("module"),
		Filter: filter,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(displayStatus(display), display)
}

// Forms handles GET /v1/forms
func (h *DashboardHandler) Forms(c *gin.Context) {
	list, err := h.services.Dashboard.Forms(storeFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forms": list})
}

// submissionFields reads a JSON object or an urlencoded form body
func submissionFields(c *gin.Context) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	if c.ContentType() == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&fields); err != nil {
			return nil, errInvalidBody
		}
		return fields, nil
	}
	if err := c.Request.ParseMultipartForm(32 << 10); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, errInvalidBody
	}
	for k, v := range c.Request.PostForm {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields, nil
}

func successText(form forms.Form, action *forms.Action) string {
	switch action.Kind {
	case forms.KindAppend:
		return fmt.Sprintf("%s added (%s)", form.Title, action.RecordID)
	case forms.KindSave:
		return "Settings saved"
	case forms.KindCredential:
		return "User added"
	}
	return form.Title + " completed"
}

// Submit handles POST /v1/forms/:form_id
// The response carries the action and the re-rendered module of the form.
func (h *DashboardHandler) Submit(c *gin.Context) {
	store := storeFrom(c)
	formID := c.Param("form_id")

	fields, err := submissionFields(c)
	if err != nil {
		respondError(c, err)
		return
	}

	module := "dashboard"
	form, ok := forms.Lookup(formID)
	if ok {
		module = form.Module
	}

	action, err := h.services.Dashboard.Submit(c.Request.Context(), store, formID, fields)
	if err != nil {
		body := errorBody(err)
		display, rerr := h.services.Dashboard.Render(store, view.Request{
			Module:   module,
			Messages: []view.Message{{Level: view.LevelError, Text: err.Error()}},
		})
		if rerr == nil {
			body["display"] = display
		}
		c.JSON(statusFor(err), body)
		return
	}

	display, err := h.services.Dashboard.Render(store, view.Request{
		Module:   module,
		Messages: []view.Message{{Level: view.LevelSuccess, Text: successText(form, action)}},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": action, "display": display})
}

// Records handles GET /v1/collections/:collection
func (h *DashboardHandler) Records(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	collection := c.Param("collection")
	records, err := h.services.Dashboard.Records(storeFrom(c), collection, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"collection": collection,
		"count":      len(records),
		"records":    records,
	})
}

type updateRequest struct {
	Field string      `json:"field" binding:"required"`
	Value interface{} `json:"value"`
}

// UpdateRecord handles PATCH /v1/collections/:collection/:record_id
func (h *DashboardHandler) UpdateRecord(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errInvalidBody)
		return
	}

	record, err := h.services.Dashboard.UpdateRecord(storeFrom(c), c.Param("collection"), c.Param("record_id"), req.Field, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
