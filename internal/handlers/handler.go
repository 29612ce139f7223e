package handlers

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"webauth/internal/logger"
	"webauth/internal/service"
)

// Session cookie and context keys shared across handlers.
const (
	SessionCookieName = "session_id"
	sessionKeyUserID  = "user_id"
	contextKeyUser    = "currentUser"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
// The session store is injected so main and tests can configure cookie
// signing and lifetime themselves.
func (h *Handler) InitRoutes(store sessions.Store) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(pageTemplates)

	router.Use(sessions.Sessions(SessionCookieName, store))
	router.Use(h.loadIdentity)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Public surface: landing page and credential endpoints
	router.GET("/", h.index)
	router.POST("/login", h.postLogin)
	router.POST("/register", h.postRegister)
	router.GET("/logout", h.logout)
	router.POST("/logout", h.logout)

	// Protected surface
	h.registerProtectedRoutes(router)

	router.NoRoute(h.notFound)

	return router
}

func (h *Handler) registerProtectedRoutes(r *gin.Engine) {
	protected := r.Group("", h.requireAuth)
	{
		protected.GET("/profile", h.profile)
		protected.GET("/ws", h.wsEvents)
	}

	api := r.Group("/api/v1", h.requireAuth)
	{
		api.GET("/events", h.getEvents)
	}
}
