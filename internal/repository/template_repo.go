package repository

import (
	"database/sql"
	"fmt"

	"github.com/Pranay8282/Expense-Management/internal/models"
	"go.uber.org/zap"
)

// FlowTemplateRepository handles flow template database operations
type FlowTemplateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFlowTemplateRepository creates a new flow template repository
func NewFlowTemplateRepository(db *sql.DB, logger *zap.Logger) *FlowTemplateRepository {
	return &FlowTemplateRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a template together with its steps.
func (r *FlowTemplateRepository) Create(tx *sql.Tx, template *models.FlowTemplate) error {
	query := `INSERT INTO flow_templates (company_id, name, is_default) VALUES (?, ?, ?)`

	result, err := pick(r.db, tx).Exec(query, template.CompanyID, template.Name, template.IsDefault)
	if err != nil {
		r.logger.Error("Failed to create flow template", zap.String("name", template.Name), zap.Error(err))
		return fmt.Errorf("failed to create flow template: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	template.ID = id

	stepQuery := `INSERT INTO flow_template_steps (template_id, step_number, approver_role) VALUES (?, ?, ?)`
	for i := range template.Steps {
		step := &template.Steps[i]
		step.TemplateID = id

		stepResult, err := pick(r.db, tx).Exec(stepQuery, id, step.StepNumber, step.ApproverRole)
		if err != nil {
			r.logger.Error("Failed to create flow template step",
				zap.Int64("template_id", id),
				zap.Int("step_number", step.StepNumber),
				zap.Error(err))
			return fmt.Errorf("failed to create flow template step: %w", err)
		}
		if step.ID, err = stepResult.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a template with its steps. Returns nil when none exists.
func (r *FlowTemplateRepository) GetByID(tx *sql.Tx, id int64) (*models.FlowTemplate, error) {
	query := `SELECT id, company_id, name, is_default, created_at FROM flow_templates WHERE id = ?`

	var template models.FlowTemplate
	err := pick(r.db, tx).QueryRow(query, id).Scan(
		&template.ID,
		&template.CompanyID,
		&template.Name,
		&template.IsDefault,
		&template.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get flow template", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get flow template: %w", err)
	}

	if err := r.loadSteps(tx, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// GetDefault retrieves the company's default template with its steps, or nil
// when the company has no default.
func (r *FlowTemplateRepository) GetDefault(tx *sql.Tx, companyID int64) (*models.FlowTemplate, error) {
	query := `SELECT id, company_id, name, is_default, created_at
		FROM flow_templates WHERE company_id = ? AND is_default = 1`

	var template models.FlowTemplate
	err := pick(r.db, tx).QueryRow(query, companyID).Scan(
		&template.ID,
		&template.CompanyID,
		&template.Name,
		&template.IsDefault,
		&template.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get default flow template", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to get default flow template: %w", err)
	}

	if err := r.loadSteps(tx, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// ClearDefault demotes every default template of the company.
func (r *FlowTemplateRepository) ClearDefault(tx *sql.Tx, companyID int64) error {
	_, err := pick(r.db, tx).Exec(
		`UPDATE flow_templates SET is_default = 0 WHERE company_id = ? AND is_default = 1`,
		companyID,
	)
	if err != nil {
		r.logger.Error("Failed to clear default flow template", zap.Int64("company_id", companyID), zap.Error(err))
		return fmt.Errorf("failed to clear default flow template: %w", err)
	}
	return nil
}

// MarkDefault promotes the template to default.
func (r *FlowTemplateRepository) MarkDefault(tx *sql.Tx, templateID int64) error {
	_, err := pick(r.db, tx).Exec(`UPDATE flow_templates SET is_default = 1 WHERE id = ?`, templateID)
	if err != nil {
		r.logger.Error("Failed to mark default flow template", zap.Int64("template_id", templateID), zap.Error(err))
		return fmt.Errorf("failed to mark default flow template: %w", err)
	}
	return nil
}

// ListByCompany retrieves all templates of a company with their steps.
func (r *FlowTemplateRepository) ListByCompany(companyID int64) ([]*models.FlowTemplate, error) {
	query := `SELECT id, company_id, name, is_default, created_at
		FROM flow_templates WHERE company_id = ? ORDER BY id`

	rows, err := r.db.Query(query, companyID)
	if err != nil {
		r.logger.Error("Failed to list flow templates", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list flow templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.FlowTemplate
	for rows.Next() {
		var template models.FlowTemplate
		err := rows.Scan(
			&template.ID,
			&template.CompanyID,
			&template.Name,
			&template.IsDefault,
			&template.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow template: %w", err)
		}
		templates = append(templates, &template)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, template := range templates {
		if err := r.loadSteps(nil, template); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

func (r *FlowTemplateRepository) loadSteps(tx *sql.Tx, template *models.FlowTemplate) error {
	query := `SELECT id, template_id, step_number, approver_role
		FROM flow_template_steps WHERE template_id = ? ORDER BY step_number`

	rows, err := pick(r.db, tx).Query(query, template.ID)
	if err != nil {
		return fmt.Errorf("failed to load template steps: %w", err)
	}
	defer rows.Close()

	template.Steps = nil
	for rows.Next() {
		var step models.FlowTemplateStep
		if err := rows.Scan(&step.ID, &step.TemplateID, &step.StepNumber, &step.ApproverRole); err != nil {
			return fmt.Errorf("failed to scan template step: %w", err)
		}
		template.Steps = append(template.Steps, step)
	}
	return rows.Err()
}
