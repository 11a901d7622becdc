package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/Pranay8282/Expense-Management/internal/approval"
	"github.com/Pranay8282/Expense-Management/internal/auth"
	"github.com/Pranay8282/Expense-Management/internal/config"
	"github.com/Pranay8282/Expense-Management/internal/exchange"
	"github.com/Pranay8282/Expense-Management/internal/interfaces/http"
	"github.com/Pranay8282/Expense-Management/internal/receipt"
	"github.com/Pranay8282/Expense-Management/internal/report"
	"github.com/Pranay8282/Expense-Management/internal/repository"
	"github.com/Pranay8282/Expense-Management/internal/storage"
	"github.com/Pranay8282/Expense-Management/pkg/database"
	"github.com/Pranay8282/Expense-Management/pkg/utils"
)

func main() {
	// Optional .env for local development; real deployments set env vars.
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Expense Management System",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	companyRepo := repository.NewCompanyRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)
	expenseRepo := repository.NewExpenseRepository(db.DB, logger)
	stepRepo := repository.NewStepRepository(db.DB, logger)
	templateRepo := repository.NewFlowTemplateRepository(db.DB, logger)
	ruleRepo := repository.NewRuleRepository(db.DB, logger)
	ocrRepo := repository.NewOCRRepository(db.DB, logger)

	// Approval core
	templateStore := approval.NewTemplateStore(db, templateRepo, logger)
	materializer := approval.NewMaterializer(userRepo, stepRepo, templateRepo, logger)
	converter := exchange.NewConverter(exchange.Config{
		BaseURL: cfg.Exchange.BaseURL,
		Timeout: cfg.Exchange.Timeout,
	}, logger)
	engine := approval.NewEngine(db, expenseRepo, stepRepo, companyRepo,
		materializer, converter, cfg.Approval.OverrideResolvesSteps, logger)

	// Auth
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authMW := auth.NewMiddleware(tokens, userRepo, logger)

	// Receipt pipeline
	receiptStore, err := storage.NewReceiptStore(cfg.Storage.ReceiptDir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize receipt storage", zap.Error(err))
	}
	textReader := receipt.NewTextReader(logger)
	extractor := receipt.NewExtractor(cfg.OpenAI.APIKey, cfg.OpenAI.Model,
		cfg.OpenAI.Temperature, logger)

	exporter := report.NewExporter(logger)

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	server := http.NewServer(http.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, http.Deps{
		DB:           db,
		Engine:       engine,
		Templates:    templateStore,
		Users:        userRepo,
		Companies:    companyRepo,
		Rules:        ruleRepo,
		OCRRecords:   ocrRepo,
		Expenses:     expenseRepo,
		Tokens:       tokens,
		AuthMW:       authMW,
		TextReader:   textReader,
		Extractor:    extractor,
		ReceiptStore: receiptStore,
		Exporter:     exporter,
	}, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
