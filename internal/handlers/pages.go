package handlers

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

// pageTemplates holds the two server-rendered pages. The markup is
// deliberately minimal; the view layer is not this service's job.
var pageTemplates = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>Home</title></head>
<body>
  <h1>Please log in</h1>
  <form method="POST" action="/login">
    <input type="text" name="username" placeholder="username" required>
    <input type="password" name="password" placeholder="password" required>
    <button type="submit">Log in</button>
  </form>
  <h2>Or register</h2>
  <form method="POST" action="/register">
    <input type="text" name="username" placeholder="username" required>
    <input type="password" name="password" placeholder="password" required>
    <button type="submit">Register</button>
  </form>
</body>
</html>`))

func init() {
	template.Must(pageTemplates.New("profile").Parse(`<!DOCTYPE html>
<html>
<head><title>Profile</title></head>
<body>
  <h1>Welcome, {{.Username}}!</h1>
  <a href="/logout">Log out</a>
</body>
</html>`))
}

// @Summary      Landing page
// @Description  Login and registration forms. Also shown to authenticated users; logging in again simply re-serializes the identity.
// @Tags         pages
// @Produce      html
// @Success      200
// @Router       / [get]
func (h *Handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index", nil)
}

// @Summary      Profile page
// @Tags         pages
// @Produce      html
// @Success      200
// @Failure      302  "redirect to / when unauthenticated"
// @Router       /profile [get]
func (h *Handler) profile(c *gin.Context) {
	u := currentUser(c)
	c.HTML(http.StatusOK, "profile", gin.H{"Username": u.Username})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (h *Handler) notFound(c *gin.Context) {
	c.String(http.StatusNotFound, "not found")
}
