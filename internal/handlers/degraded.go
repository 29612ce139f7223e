package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"webauth/internal/logger"
)

const errStoreUnavailable = "unable to connect to database"

// NewDegradedRouter returns the engine served when the credential store
// could not be reached at startup. Every route answers 503 for the
// lifetime of the process; there is no reconnect loop.
func NewDegradedRouter(log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.NoRoute(func(c *gin.Context) {
		if log != nil {
			log.Warnw("request_in_degraded_mode", "path", c.Request.URL.Path)
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errStoreUnavailable})
	})

	return router
}
