// Package http is the HTTP adapter: it translates requests into calls on the
// approval engine and its collaborators.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Pranay8282/Expense-Management/internal/approval"
	"github.com/Pranay8282/Expense-Management/internal/auth"
	"github.com/Pranay8282/Expense-Management/internal/models"
	"github.com/Pranay8282/Expense-Management/internal/receipt"
	"github.com/Pranay8282/Expense-Management/internal/report"
	"github.com/Pranay8282/Expense-Management/internal/repository"
	"github.com/Pranay8282/Expense-Management/internal/storage"
	"github.com/Pranay8282/Expense-Management/pkg/database"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Deps carries everything the handlers call into.
type Deps struct {
	DB           *database.DB
	Engine       *approval.Engine
	Templates    *approval.TemplateStore
	Users        *repository.UserRepository
	Companies    *repository.CompanyRepository
	Rules        *repository.RuleRepository
	OCRRecords   *repository.OCRRepository
	Expenses     *repository.ExpenseRepository
	Tokens       *auth.TokenManager
	AuthMW       *auth.Middleware
	TextReader   *receipt.TextReader
	Extractor    *receipt.Extractor
	ReceiptStore *storage.ReceiptStore
	Exporter     *report.Exporter
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Deps
	logger     *zap.Logger
}

// NewServer creates a new HTTP server wired to the given dependencies.
func NewServer(config ServerConfig, deps Deps, logger *zap.Logger) *Server {
	router := gin.New()

	server := &Server{
		config: config,
		router: router,
		deps:   deps,
		logger: logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware())
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "expense-management",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	api := s.router.Group("/api")

	users := api.Group("/users")
	{
		users.POST("/register", s.handleRegister)
		users.POST("/login", s.handleLogin)

		authed := users.Group("", s.deps.AuthMW.Authenticate())
		authed.GET("/profile", s.handleProfile)

		manage := authed.Group("/manage", auth.RequireRoles(models.RoleAdmin))
		manage.GET("", s.handleListUsers)
		manage.POST("", s.handleCreateUser)
		manage.PUT("/:id", s.handleUpdateUser)
		manage.DELETE("/:id", s.handleDeleteUser)
	}

	expenses := api.Group("/expenses", s.deps.AuthMW.Authenticate())
	{
		expenses.POST("", s.handleSubmitExpense)
		expenses.GET("", s.handleListExpenses)
		expenses.GET("/approval-queue",
			auth.RequireRoles(models.RoleManager, models.RoleAdmin), s.handleApprovalQueue)
		expenses.GET("/:id", s.handleGetExpense)
		expenses.POST("/:id/approve", s.handleApprove)
		expenses.POST("/:id/reject", s.handleReject)
		expenses.POST("/:id/override",
			auth.RequireRoles(models.RoleAdmin), s.handleOverride)
	}

	flows := api.Group("/approval-flows",
		s.deps.AuthMW.Authenticate(), auth.RequireRoles(models.RoleAdmin))
	{
		flows.GET("", s.handleListTemplates)
		flows.POST("", s.handleCreateTemplate)
		flows.POST("/:id/set-default", s.handleSetDefaultTemplate)
	}

	rules := api.Group("/approval-rules",
		s.deps.AuthMW.Authenticate(), auth.RequireRoles(models.RoleAdmin))
	{
		rules.GET("", s.handleListRules)
		rules.POST("", s.handleCreateRule)
		rules.DELETE("/:id", s.handleDeleteRule)
	}

	api.POST("/ocr", s.deps.AuthMW.Authenticate(), s.handleOCR)

	api.GET("/reports/expenses.xlsx",
		s.deps.AuthMW.Authenticate(), auth.RequireRoles(models.RoleAdmin), s.handleExpenseReport)
}

// Start begins listening. Blocks until the server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("HTTP server listening", zap.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the underlying router, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
