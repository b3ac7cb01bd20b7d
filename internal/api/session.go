package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tally-dashboard/internal/config"
	"github.com/tally-dashboard/internal/service"
	"github.com/tally-dashboard/internal/state"
)

const (
	sessionHeader = "X-Session-ID"
	storeKey      = "store"
	sessionIDKey  = "session_id"
)

// sessionMiddleware attaches the caller's store to the request. Callers
// without a live session id get an untracked store; login registers it.
func sessionMiddleware(sessions service.SessionService, cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(sessionHeader)
		if id == "" {
			id, _ = c.Cookie(cfg.CookieName)
		}

		store, ok := sessions.Get(id)
		if !ok {
			id, store = "", sessions.Anonymous()
		}

		c.Set(sessionIDKey, id)
		c.Set(storeKey, store)
		c.Next()
	}
}

// setSession issues the session cookie and header for id
func setSession(c *gin.Context, cfg config.AuthConfig, id string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Header(sessionHeader, id)
	c.Set(sessionIDKey, id)
}

// clearSession expires the session cookie
func clearSession(c *gin.Context, cfg config.AuthConfig) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(sessionIDKey, "")
}

// storeFrom returns the store attached by sessionMiddleware
func storeFrom(c *gin.Context) *state.Store {
	return c.MustGet(storeKey).(*state.Store)
}
