// Package http provides HTTP server implementation and request handlers using Gin web framework.
// The server uses Clean Architecture principles with structured logging (slog) and graceful shutdown.
//
// This server uses Gin (github.com/gin-gonic/gin) for HTTP routing while maintaining
// compatibility with the application's existing patterns:
//   - Custom slog-based logging middleware (instead of Gin's default logger)
//   - Gin-compatible error handling utilities (httputil.HandleErrorGin)
//   - Manual http.Server configuration for timeout and graceful shutdown control
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	authHTTP "github.com/sealedbox/sealedbox/internal/auth/http"
	"github.com/sealedbox/sealedbox/internal/auth/token"
	"github.com/sealedbox/sealedbox/internal/config"
	dekHTTP "github.com/sealedbox/sealedbox/internal/crypto/dek/http"
	folderHTTP "github.com/sealedbox/sealedbox/internal/folder/http"
	"github.com/sealedbox/sealedbox/internal/metrics"
	secretsHTTP "github.com/sealedbox/sealedbox/internal/secrets/http"
)

// Server represents the HTTP server.
type Server struct {
	db       *sql.DB
	server   *http.Server
	logger   *slog.Logger
	router   *gin.Engine
	reqGroup singleflight.Group
}

// NewServer creates a new HTTP server.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter configures the Gin router with all routes and middleware.
// This method is called during server initialization with all required dependencies.
func (s *Server) SetupRouter(
	cfg *config.Config,
	tokens *token.Service,
	authHandler *authHTTP.Handler,
	dekHandler *dekHTTP.Handler,
	secretHandler *secretsHTTP.Handler,
	folderHandler *folderHTTP.Handler,
	metricsProvider *metrics.Provider,
	metricsNamespace string,
) {
	router := gin.New()

	router.Use(gin.Recovery())

	if corsMiddleware := createCORSMiddleware(
		cfg.CORSEnabled,
		cfg.CORSAllowOrigins,
		s.logger,
	); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), metricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	authMiddleware := authHTTP.AuthenticationMiddleware(tokens, s.logger)

	var loginRateLimitMiddleware gin.HandlerFunc
	if cfg.LoginRateLimitEnabled {
		loginRateLimitMiddleware = authHTTP.LoginRateLimitMiddleware(
			cfg.LoginRateLimitRequestsPerSec,
			cfg.LoginRateLimitBurst,
			s.logger,
		)
	}

	client := router.Group("/client")
	{
		if loginRateLimitMiddleware != nil {
			client.POST("/login", loginRateLimitMiddleware, authHandler.Login)
		} else {
			client.POST("/login", authHandler.Login)
		}

		client.POST("/register", authMiddleware, authHTTP.RequirePermission("client:write", s.logger), authHandler.Register)
		client.GET("/:id", authMiddleware, authHTTP.RequirePermission("client:read", s.logger), authHandler.Info)
		client.GET("", authMiddleware, authHTTP.RequirePermission("client:read", s.logger), authHandler.List)
		client.POST("/:id/revoke", authMiddleware, authHTTP.RequirePermission("client:write", s.logger), authHandler.Revoke)
	}

	dek := router.Group("/dek")
	dek.Use(authMiddleware)
	{
		dek.POST("", authHTTP.RequireRole("admin", s.logger), dekHandler.Create)
		dek.GET("", authHTTP.RequirePermission("dek:read", s.logger), dekHandler.List)
		dek.GET("/:id", authHTTP.RequirePermission("dek:read", s.logger), dekHandler.Get)
		dek.POST("/:id/deactivate", authHTTP.RequireRole("admin", s.logger), dekHandler.Deactivate)
		dek.DELETE("/:id", authHTTP.RequireRole("admin", s.logger), dekHandler.Delete)
		dek.POST("/rotate-kek", authHTTP.RequireRole("admin", s.logger), dekHandler.RotateKEK)
	}

	secret := router.Group("/secret")
	secret.Use(authMiddleware)
	{
		secret.POST("", authHTTP.RequirePermission("secret:write", s.logger), secretHandler.Create)
		secret.GET("", authHTTP.RequirePermission("secret:read", s.logger), secretHandler.List)
		secret.GET("/:idOrName", authHTTP.RequirePermission("secret:read", s.logger), secretHandler.Get)
		secret.PUT("/:idOrName", authHTTP.RequirePermission("secret:write", s.logger), secretHandler.Update)
		secret.DELETE("/:idOrName", authHTTP.RequirePermission("secret:write", s.logger), secretHandler.Delete)
	}

	folder := router.Group("/folder")
	folder.Use(authMiddleware)
	{
		folder.POST("", authHTTP.RequirePermission("secret:write", s.logger), folderHandler.Create)
		folder.GET("", authHTTP.RequirePermission("secret:read", s.logger), folderHandler.List)
		folder.GET("/:id", authHTTP.RequirePermission("secret:read", s.logger), folderHandler.Get)
		folder.PUT("/:id", authHTTP.RequirePermission("secret:write", s.logger), folderHandler.Update)
		folder.DELETE("/:id", authHTTP.RequirePermission("secret:write", s.logger), folderHandler.Delete)
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
// Returns nil if SetupRouter has not been called yet.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not initialized - call SetupRouter first")
	}

	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler returns a simple health check response.
func (s *Server) healthHandler(c *gin.Context) {
	v, _, _ := s.reqGroup.Do("health", func() (interface{}, error) {
		return gin.H{"status": "healthy"}, nil
	})
	c.JSON(http.StatusOK, v)
}

type readinessResponse struct {
	StatusCode int
	Body       gin.H
}

// readinessHandler returns a simple readiness check response.
func (s *Server) readinessHandler(c *gin.Context) {
	v, _, _ := s.reqGroup.Do("readiness", func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		dbStatus := "ok"
		httpStatus := http.StatusOK

		if s.db == nil {
			s.logger.Error("readiness check failed: database not initialized")
			dbStatus = "error"
			httpStatus = http.StatusServiceUnavailable
		} else if err := s.db.PingContext(ctx); err != nil {
			s.logger.Error("readiness check failed: database ping error", slog.Any("err", err))
			dbStatus = "error"
			httpStatus = http.StatusServiceUnavailable
		}

		return readinessResponse{
			StatusCode: httpStatus,
			Body: gin.H{
				"status": map[int]string{
					http.StatusOK:                 "ready",
					http.StatusServiceUnavailable: "not_ready",
				}[httpStatus],
				"components": gin.H{
					"database": dbStatus,
				},
			},
		}, nil
	})

	res := v.(readinessResponse)
	c.JSON(res.StatusCode, res.Body)
}
