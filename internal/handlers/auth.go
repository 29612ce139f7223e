package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"webauth/internal/models"
	"webauth/internal/service"
)

const (
	redirectHome    = "/"
	redirectProfile = "/profile"
)

// Single, shared credentials payload for both register and login.
type authCredentials struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// bindCredentialsOrRedirect binds the form body into dst. Malformed
// credentials are not an error worth explaining: the browser is sent
// back to the landing page, same as a rejection.
func (h *Handler) bindCredentialsOrRedirect(c *gin.Context, dst *authCredentials) bool {
	if err := c.ShouldBind(dst); err != nil {
		if h.log != nil {
			h.log.Infow("auth_bad_request_body", "err", err)
		}
		c.Redirect(http.StatusFound, redirectHome)
		return false
	}
	return true
}

// @Summary      Log in
// @Description  Validates credentials, serializes the identity into the session cookie, and redirects to /profile. Any rejection redirects to / with no detail.
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Param        username  formData  string  true  "Username"
// @Param        password  formData  string  true  "Password"
// @Success      302
// @Router       /login [post]
func (h *Handler) postLogin(c *gin.Context) {
	var input authCredentials
	if ok := h.bindCredentialsOrRedirect(c, &input); !ok {
		return
	}

	u, err := h.services.Authorization.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.rejectLogin(c, input.Username, err)
		return
	}

	h.recordEvent(c, models.EventLogin, u.Username, nil)
	h.establishSession(c, u)
}

// @Summary      Register
// @Description  Creates a user with a hashed password, logs the new user in, and redirects to /profile. Duplicate usernames redirect to / with no detail.
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Param        username  formData  string  true  "Username"
// @Param        password  formData  string  true  "Password"
// @Success      302
// @Router       /register [post]
func (h *Handler) postRegister(c *gin.Context) {
	var input authCredentials
	if ok := h.bindCredentialsOrRedirect(c, &input); !ok {
		return
	}

	u, err := h.services.Authorization.Register(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_register_rejected", "username", input.Username, "err", err)
		}
		c.Redirect(http.StatusFound, redirectHome)
		return
	}

	h.recordEvent(c, models.EventRegister, u.Username, nil)
	h.establishSession(c, u)
}

// @Summary      Log out
// @Description  Invalidates the session and clears the cookie, then redirects to /. Succeeds even when no session exists.
// @Tags         auth
// @Success      302
// @Router       /logout [get]
func (h *Handler) logout(c *gin.Context) {
	if u := currentUser(c); u != nil {
		h.recordEvent(c, models.EventLogout, u.Username, nil)
	}

	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1, HttpOnly: true})
	if err := session.Save(); err != nil {
		h.internalError(c, "session_clear_failed", err)
		return
	}
	c.Redirect(http.StatusFound, redirectHome)
}

// establishSession serializes the identity into the session and sends
// the browser to the profile page.
func (h *Handler) establishSession(c *gin.Context, u *models.User) {
	session := sessions.Default(c)
	session.Set(sessionKeyUserID, h.services.Identity.Serialize(u))
	if err := session.Save(); err != nil {
		h.internalError(c, "session_save_failed", err)
		return
	}
	c.Redirect(http.StatusFound, redirectProfile)
}

// rejectLogin translates an authentication failure into the uniform
// redirect. Internal store errors are logged at error level but still
// produce the same response shape as a credential rejection.
func (h *Handler) rejectLogin(c *gin.Context, username string, err error) {
	if h.log != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.log.Infow("auth_login_rejected", "username", username)
		} else {
			h.log.Errorw("auth_login_failed", "username", username, "err", err)
		}
	}
	h.recordEvent(c, models.EventLoginFailed, username, nil)
	c.Redirect(http.StatusFound, redirectHome)
}

// recordEvent appends to the audit trail; failures are logged, never surfaced.
func (h *Handler) recordEvent(c *gin.Context, eventType, username string, meta any) {
	if h.services.EventLog == nil {
		return
	}
	if err := h.services.EventLog.Record(c.Request.Context(), eventType, username, meta); err != nil {
		if h.log != nil {
			h.log.Errorw("auth_event_record_failed", "type", eventType, "username", username, "err", err)
		}
	}
}

// internalError answers with a generic 500; detail stays server-side.
func (h *Handler) internalError(c *gin.Context, logKey string, err error) {
	if h.log != nil && err != nil {
		h.log.Errorw(logKey, "err", err)
	}
	c.String(http.StatusInternalServerError, "internal server error")
	c.Abort()
}
