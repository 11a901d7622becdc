// Command seed resets the database and loads a small demo company: an admin,
// an approving manager with two reports, a default two-step approval flow and
// a couple of pending expenses.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/Pranay8282/Expense-Management/internal/approval"
	"github.com/Pranay8282/Expense-Management/internal/auth"
	"github.com/Pranay8282/Expense-Management/internal/config"
	"github.com/Pranay8282/Expense-Management/internal/exchange"
	"github.com/Pranay8282/Expense-Management/internal/models"
	"github.com/Pranay8282/Expense-Management/internal/repository"
	"github.com/Pranay8282/Expense-Management/pkg/database"
	"github.com/Pranay8282/Expense-Management/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{Level: "info", OutputPath: "stdout", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	logger.Info("Deleting old data")
	for _, table := range []string{
		"approval_steps", "expenses", "ocr_records", "approval_rules",
		"flow_template_steps", "flow_templates", "users", "companies",
	} {
		if _, err := db.DB.Exec("DELETE FROM " + table); err != nil {
			logger.Fatal("Failed to clear table", zap.String("table", table), zap.Error(err))
		}
	}

	logger.Info("Creating demo data")

	companyRepo := repository.NewCompanyRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)
	expenseRepo := repository.NewExpenseRepository(db.DB, logger)
	stepRepo := repository.NewStepRepository(db.DB, logger)
	templateRepo := repository.NewFlowTemplateRepository(db.DB, logger)

	company := &models.Company{Name: "Innovate Inc.", Country: "United States", Currency: "USD"}
	if err := companyRepo.Create(nil, company); err != nil {
		logger.Fatal("Failed to create company", zap.Error(err))
	}

	admin := createUser(userRepo, logger, &models.User{
		Username:  "admin",
		Email:     "admin@innovate.com",
		FirstName: "Admin",
		LastName:  "User",
		Role:      models.RoleAdmin,
		CompanyID: company.ID,
	})
	manager := createUser(userRepo, logger, &models.User{
		Username:          "manager",
		Email:             "manager@innovate.com",
		FirstName:         "Manager",
		LastName:          "Person",
		Role:              models.RoleManager,
		CompanyID:         company.ID,
		IsManagerApprover: true,
	})
	employee1 := createUser(userRepo, logger, &models.User{
		Username:  "employee1",
		Email:     "employee1@innovate.com",
		FirstName: "John",
		LastName:  "Doe",
		Role:      models.RoleEmployee,
		CompanyID: company.ID,
		ManagerID: &manager.ID,
	})
	employee2 := createUser(userRepo, logger, &models.User{
		Username:  "employee2",
		Email:     "employee2@innovate.com",
		FirstName: "Jane",
		LastName:  "Smith",
		Role:      models.RoleEmployee,
		CompanyID: company.ID,
		ManagerID: &manager.ID,
	})
	_ = admin

	templateStore := approval.NewTemplateStore(db, templateRepo, logger)
	if _, err := templateStore.Create(company.ID, "Standard review", []models.FlowTemplateStep{
		{StepNumber: 1, ApproverRole: models.FlowRoleManager},
		{StepNumber: 2, ApproverRole: models.FlowRoleAdmin},
	}, true); err != nil {
		logger.Fatal("Failed to create default flow template", zap.Error(err))
	}

	materializer := approval.NewMaterializer(userRepo, stepRepo, templateRepo, logger)
	converter := exchange.NewConverter(exchange.Config{
		BaseURL: cfg.Exchange.BaseURL,
		Timeout: cfg.Exchange.Timeout,
	}, logger)
	engine := approval.NewEngine(db, expenseRepo, stepRepo, companyRepo,
		materializer, converter, cfg.Approval.OverrideResolvesSteps, logger)

	ctx := context.Background()
	seedExpense(ctx, engine, logger, employee1, 150.75, "Travel", "Client meeting lunch")
	seedExpense(ctx, engine, logger, employee2, 89.99, "Software", "New design software subscription")

	logger.Info("Successfully seeded database")
}

func createUser(repo *repository.UserRepository, logger *zap.Logger, user *models.User) *models.User {
	hash, err := auth.HashPassword("password123")
	if err != nil {
		logger.Fatal("Failed to hash password", zap.Error(err))
	}
	user.PasswordHash = hash
	if err := repo.Create(nil, user); err != nil {
		logger.Fatal("Failed to create user", zap.String("username", user.Username), zap.Error(err))
	}
	return user
}

func seedExpense(ctx context.Context, engine *approval.Engine, logger *zap.Logger, submitter *models.User, amount float64, category, description string) {
	if _, err := engine.Submit(ctx, submitter, approval.SubmitInput{
		Amount:      amount,
		Currency:    "USD",
		Category:    category,
		Description: description,
		Date:        time.Now(),
	}); err != nil {
		logger.Fatal("Failed to seed expense", zap.String("employee", submitter.Username), zap.Error(err))
	}
}
