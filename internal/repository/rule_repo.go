package repository

import (
	"database/sql"
	"fmt"

	"github.com/Pranay8282/Expense-Management/internal/models"
	"go.uber.org/zap"
)

// RuleRepository handles approval rule database operations. Rules are stored
// and served over the admin API but not consulted by the approval engine.
type RuleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *sql.DB, logger *zap.Logger) *RuleRepository {
	return &RuleRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new approval rule
func (r *RuleRepository) Create(tx *sql.Tx, rule *models.ApprovalRule) error {
	query := `
		INSERT INTO approval_rules (company_id, name, percentage_required, specific_approver_id, hybrid)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := pick(r.db, tx).Exec(query,
		rule.CompanyID,
		rule.Name,
		rule.PercentageRequired,
		rule.SpecificApproverID,
		rule.Hybrid,
	)
	if err != nil {
		r.logger.Error("Failed to create approval rule", zap.String("name", rule.Name), zap.Error(err))
		return fmt.Errorf("failed to create approval rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rule.ID = id
	return nil
}

// ListByCompany retrieves a company's approval rules.
func (r *RuleRepository) ListByCompany(companyID int64) ([]*models.ApprovalRule, error) {
	query := `SELECT id, company_id, name, percentage_required, specific_approver_id, hybrid
		FROM approval_rules WHERE company_id = ? ORDER BY id`

	rows, err := r.db.Query(query, companyID)
	if err != nil {
		r.logger.Error("Failed to list approval rules", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approval rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.ApprovalRule
	for rows.Next() {
		var rule models.ApprovalRule
		var percentage sql.NullInt64
		var approverID sql.NullInt64

		err := rows.Scan(&rule.ID, &rule.CompanyID, &rule.Name, &percentage, &approverID, &rule.Hybrid)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval rule: %w", err)
		}

		if percentage.Valid {
			p := int(percentage.Int64)
			rule.PercentageRequired = &p
		}
		if approverID.Valid {
			rule.SpecificApproverID = &approverID.Int64
		}
		rules = append(rules, &rule)
	}
	return rules, rows.Err()
}

// Delete removes an approval rule.
func (r *RuleRepository) Delete(tx *sql.Tx, id int64) error {
	_, err := pick(r.db, tx).Exec(`DELETE FROM approval_rules WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete approval rule", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete approval rule: %w", err)
	}
	return nil
}
