package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tally-dashboard/internal/auth"
	"github.com/tally-dashboard/internal/config"
	"github.com/tally-dashboard/internal/service"
	"github.com/tally-dashboard/internal/view"
)

// SessionHandler handles login, logout and session endpoints
type SessionHandler struct {
	services *service.Services
	cookies  config.AuthConfig
	log      zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(services *service.Services, cookies config.AuthConfig, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		services: services,
		cookies:  cookies,
		log:      log.With().Str("handler", "session").Logger(),
	}
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Login handles POST /v1/session/login. A caller without a session gets
// one only once the credentials are accepted.
func (h *SessionHandler) Login(c *gin.Context) {
	store := storeFrom(c)

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, errInvalidBody)
		return
	}

	session, err := h.services.Session.Login(c.Request.Context(), store, req.Username, req.Password)
	if err != nil {
		status := statusFor(err)
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.log.Error().Err(err).Msg("Login failed")
			respondError(c, err)
			return
		}
		display, rerr := h.services.Dashboard.Render(store, view.Request{
			Messages: []view.Message{{Level: view.LevelError, Text: "Invalid username or password"}},
		})
		if rerr != nil {
			respondError(c, rerr)
			return
		}
		c.JSON(status, gin.H{"error": err.Error(), "display": display})
		return
	}

	id := c.GetString(sessionIDKey)
	if id == "" {
		id = h.services.Session.Register(store)
	}
	setSession(c, h.cookies, id)

	display, err := h.services.Dashboard.Render(store, view.Request{
		Module:   "dashboard",
		Messages: []view.Message{{Level: view.LevelSuccess, Text: "Welcome, " + session.Username}},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "display": display})
}

// Logout handles POST /v1/session/logout
func (h *SessionHandler) Logout(c *gin.Context) {
	store := storeFrom(c)

	if err := h.services.Session.Logout(c.Request.Context(), c.GetString(sessionIDKey), store); err != nil {
		respondError(c, err)
		return
	}
	clearSession(c, h.cookies)

	display, err := h.services.Dashboard.Render(store, view.Request{
		Messages: []view.Message{{Level: view.LevelInfo, Text: "You have been logged out"}},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"display": display})
}

// Current handles GET /v1/session
func (h *SessionHandler) Current(c *gin.Context) {
	session, err := storeFrom(c).Session()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": c.GetString(sessionIDKey),
		"session":    session,
	})
}
