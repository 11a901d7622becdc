package approval

import (
	"database/sql"
	"fmt"

	"github.com/Pranay8282/Expense-Management/internal/models"
	"github.com/Pranay8282/Expense-Management/internal/repository"
	"github.com/Pranay8282/Expense-Management/pkg/database"
	"go.uber.org/zap"
)

// TemplateStore manages a company's reusable flow templates and the
// single-default invariant: at most one template per company is default at
// any time.
type TemplateStore struct {
	db        *database.DB
	templates *repository.FlowTemplateRepository
	logger    *zap.Logger
}

// NewTemplateStore creates a new template store
func NewTemplateStore(db *database.DB, templates *repository.FlowTemplateRepository, logger *zap.Logger) *TemplateStore {
	return &TemplateStore{
		db:        db,
		templates: templates,
		logger:    logger,
	}
}

// Create validates and persists a template. When markDefault is set, any
// existing default for the company is demoted in the same transaction, so
// there is no window with zero or two defaults.
func (s *TemplateStore) Create(companyID int64, name string, steps []models.FlowTemplateStep, markDefault bool) (*models.FlowTemplate, error) {
	if err := validateSteps(steps); err != nil {
		return nil, err
	}

	template := &models.FlowTemplate{
		CompanyID: companyID,
		Name:      name,
		IsDefault: markDefault,
		Steps:     steps,
	}

	err := s.db.WithTransaction(func(tx *sql.Tx) error {
		if markDefault {
			if err := s.templates.ClearDefault(tx, companyID); err != nil {
				return err
			}
		}
		return s.templates.Create(tx, template)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Flow template created",
		zap.Int64("template_id", template.ID),
		zap.Int64("company_id", companyID),
		zap.Bool("default", markDefault),
		zap.Int("steps", len(steps)))
	return template, nil
}

// SetDefault promotes the template to the company default, demoting any
// current default first. Demote and promote run in one transaction keyed on
// the company's templates; concurrent swaps serialize on the database, so
// exactly one of them ends up default.
func (s *TemplateStore) SetDefault(companyID, templateID int64) (*models.FlowTemplate, error) {
	var template *models.FlowTemplate

	err := s.db.WithTransaction(func(tx *sql.Tx) error {
		var err error
		template, err = s.templates.GetByID(tx, templateID)
		if err != nil {
			return err
		}
		if template == nil || template.CompanyID != companyID {
			return fmt.Errorf("%w: flow template %d", ErrNotFound, templateID)
		}

		if err := s.templates.ClearDefault(tx, companyID); err != nil {
			return err
		}
		if err := s.templates.MarkDefault(tx, templateID); err != nil {
			return err
		}
		template.IsDefault = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Default flow template changed",
		zap.Int64("company_id", companyID),
		zap.Int64("template_id", templateID))
	return template, nil
}

// GetDefault returns the company's default template, or nil when none is set.
func (s *TemplateStore) GetDefault(companyID int64) (*models.FlowTemplate, error) {
	return s.templates.GetDefault(nil, companyID)
}

// List returns all of the company's templates.
func (s *TemplateStore) List(companyID int64) ([]*models.FlowTemplate, error) {
	return s.templates.ListByCompany(companyID)
}

// validateSteps checks template steps: numbers unique and positive, roles
// recognized. An empty step list is legal; materializing it yields no steps
// and the expense auto-approves.
func validateSteps(steps []models.FlowTemplateStep) error {
	seen := make(map[int]bool, len(steps))
	for _, step := range steps {
		if step.StepNumber <= 0 {
			return fmt.Errorf("%w: step number %d must be positive", ErrInvalidTemplate, step.StepNumber)
		}
		if seen[step.StepNumber] {
			return fmt.Errorf("%w: duplicate step number %d", ErrInvalidTemplate, step.StepNumber)
		}
		seen[step.StepNumber] = true
		if !models.IsValidFlowRole(step.ApproverRole) {
			return fmt.Errorf("%w: unknown approver role %q", ErrInvalidTemplate, step.ApproverRole)
		}
	}
	return nil
}
