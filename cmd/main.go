package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"webauth/internal/config"
	"webauth/internal/handlers"
	"webauth/internal/logger"
	"webauth/internal/repository"
	"webauth/internal/repository/db"
	"webauth/internal/server"
	"webauth/internal/service"
)

func main() {
	// load .env / config.yml / environment
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	// The store handle is opened once here and passed down explicitly;
	// nothing else in the process opens or caches a connection.
	conn, err := db.InitDB(cfg.DBPath)
	if err != nil {
		// Degraded mode: keep serving, answer every route 503 for the
		// rest of the process lifetime instead of crashing.
		log.Errorw("failed to init sqlite, serving degraded", "path", cfg.DBPath, "err", err)
		runAndWait(&server.Server{}, cfg.Port, handlers.NewDegradedRouter(log), log)
		return
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, cfg.BcryptCost)
	apiHandler := handlers.NewHandler(services, log)

	router := apiHandler.InitRoutes(newSessionStore(cfg))

	runAndWait(&server.Server{}, cfg.Port, router, log)
}

// newSessionStore builds the signed cookie store for session state.
func newSessionStore(cfg *config.Config) sessions.Store {
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// runAndWait starts the HTTP server and blocks until a termination
// signal arrives, then shuts down gracefully.
func runAndWait(srv *server.Server, port string, handler http.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("starting server", "port", port)
		if err := srv.Run(port, handler); err != nil && err != http.ErrServerClosed {
			log.Fatalw("error starting server", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
