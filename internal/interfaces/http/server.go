// Package http provides the HTTP adapter for the application layer. It is a
// thin translation from HTTP requests to change request service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pmforge/changeflow/internal/application/service"
	"github.com/pmforge/changeflow/internal/attachment"
	"github.com/pmforge/changeflow/internal/storage"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config        ServerConfig
	httpServer    *http.Server
	router        *gin.Engine
	changeService *service.ChangeRequestService
	attachments   *storage.AttachmentStore
	pdfReader     *attachment.PDFReader
	logger        Logger
}

// ServerOption configures the server
type ServerOption func(*Server)

// WithAttachments enables supporting document upload and text extraction
func WithAttachments(store *storage.AttachmentStore, reader *attachment.PDFReader) ServerOption {
	return func(s *Server) {
		s.attachments = store
		s.pdfReader = reader
	}
}

// NewServer creates a new HTTP server
func NewServer(config ServerConfig, changeService *service.ChangeRequestService, logger Logger, opts ...ServerOption) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:        config,
		router:        gin.New(),
		changeService: changeService,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(server)
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.changeService, s.logger)
	handlers.attachments = s.attachments
	handlers.pdfReader = s.pdfReader

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	// API routes
	api := s.router.Group("/api")
	{
		api.POST("/requests", handlers.CreateRequest)
		api.GET("/requests/:id", handlers.GetRequest)
		api.GET("/requests/:id/actions", handlers.AvailableActions)
		api.POST("/requests/:id/actions", handlers.ExecuteAction)
		api.GET("/requests/:id/progress", handlers.GetProgress)
		api.GET("/requests/:id/consistency", handlers.CheckConsistency)
		api.GET("/requests/:id/escalation", handlers.GetEscalationPlan)
		api.POST("/requests/:id/attachments", handlers.UploadAttachment)
		api.GET("/requests/:id/attachments", handlers.ListAttachments)
		api.POST("/requests/:id/approvals", handlers.AssignApprovals)
		api.POST("/requests/:id/actuals", handlers.RecordActuals)
		api.POST("/requests/:id/analysis", handlers.AttachAnalysis)
		api.POST("/requests/:id/analysis/draft", handlers.DraftAnalysis)
		api.POST("/requests/:id/decisions/resolve", handlers.ResolveDecisions)
	}
}

// Start starts the HTTP server and blocks until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
