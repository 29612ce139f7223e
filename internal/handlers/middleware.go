package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"webauth/internal/models"
)

// loadIdentity runs on every request. It reads the serialized user id
// from the session cookie and, when it resolves to a live user record,
// attaches the identity to the request context. A missing cookie, a
// malformed value, or a stale id all leave the request unauthenticated.
func (h *Handler) loadIdentity(c *gin.Context) {
	session := sessions.Default(c)

	userID, ok := sessionUserID(session.Get(sessionKeyUserID))
	if !ok {
		c.Next()
		return
	}

	u, err := h.services.Identity.Deserialize(c.Request.Context(), userID)
	if err != nil {
		// Store trouble must not take the request down; it just means
		// we cannot prove who the caller is.
		if h.log != nil {
			h.log.Errorw("identity_deserialize_failed", "user_id", userID, "err", err)
		}
		c.Next()
		return
	}
	if u != nil {
		c.Set(contextKeyUser, u)
	}
	c.Next()
}

// requireAuth guards protected routes: without an identity the request
// is redirected to the landing page.
func (h *Handler) requireAuth(c *gin.Context) {
	if currentUser(c) == nil {
		c.Redirect(http.StatusFound, "/")
		c.Abort()
		return
	}
	c.Next()
}

// currentUser returns the identity attached by loadIdentity, or nil.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(contextKeyUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// sessionUserID coerces the session value into a user id. The cookie
// store round-trips ints through gob, but be lenient about widths.
func sessionUserID(v any) (int, bool) {
	switch id := v.(type) {
	case int:
		return id, true
	case int64:
		return int(id), true
	case float64:
		return int(id), true
	default:
		return 0, false
	}
}
