package repository

import (
	"database/sql"
	"fmt"

	"github.com/Pranay8282/Expense-Management/internal/models"
	"go.uber.org/zap"
)

const expenseColumns = `id, employee_id, amount, currency, converted_amount,
	category, description, date, receipt_path, status, flow_template_id,
	created_at, updated_at`

// ExpenseRepository handles expense database operations
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new expense
func (r *ExpenseRepository) Create(tx *sql.Tx, expense *models.Expense) error {
	query := `
		INSERT INTO expenses (
			employee_id, amount, currency, converted_amount, category,
			description, date, receipt_path, status, flow_template_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := pick(r.db, tx).Exec(query,
		expense.EmployeeID,
		expense.Amount,
		expense.Currency,
		expense.ConvertedAmount,
		expense.Category,
		expense.Description,
		expense.Date,
		expense.ReceiptPath,
		expense.Status,
		expense.FlowTemplateID,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Int64("employee_id", expense.EmployeeID), zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	expense.ID = id
	return nil
}

// GetByID retrieves an expense by ID. Returns nil when no expense exists.
func (r *ExpenseRepository) GetByID(tx *sql.Tx, id int64) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`
	return r.scanOne(pick(r.db, tx).QueryRow(query, id))
}

// UpdateStatus sets the cached expense status.
func (r *ExpenseRepository) UpdateStatus(tx *sql.Tx, id int64, status string) error {
	query := `UPDATE expenses SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := pick(r.db, tx).Exec(query, status, id)
	if err != nil {
		r.logger.Error("Failed to update expense status",
			zap.Int64("id", id),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update expense status: %w", err)
	}

	return nil
}

// SetFlowTemplate records which template materialized the expense's chain,
// for audit.
func (r *ExpenseRepository) SetFlowTemplate(tx *sql.Tx, id, templateID int64) error {
	_, err := pick(r.db, tx).Exec(`UPDATE expenses SET flow_template_id = ? WHERE id = ?`, templateID, id)
	if err != nil {
		r.logger.Error("Failed to set expense flow template",
			zap.Int64("id", id),
			zap.Int64("template_id", templateID),
			zap.Error(err))
		return fmt.Errorf("failed to set expense flow template: %w", err)
	}
	return nil
}

// ListByEmployee retrieves an employee's own expenses, newest first.
func (r *ExpenseRepository) ListByEmployee(employeeID int64) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE employee_id = ? ORDER BY created_at DESC`
	return r.list(query, employeeID)
}

// ListByCompany retrieves all expenses submitted by a company's employees.
func (r *ExpenseRepository) ListByCompany(companyID int64) ([]*models.Expense, error) {
	query := `SELECT ` + prefixed(expenseColumns, "e.") + ` FROM expenses e
		JOIN users u ON u.id = e.employee_id
		WHERE u.company_id = ?
		ORDER BY e.created_at DESC`
	return r.list(query, companyID)
}

// ListApprovedByCompany retrieves a company's APPROVED expenses for reporting.
func (r *ExpenseRepository) ListApprovedByCompany(companyID int64) ([]*models.Expense, error) {
	query := `SELECT ` + prefixed(expenseColumns, "e.") + ` FROM expenses e
		JOIN users u ON u.id = e.employee_id
		WHERE u.company_id = ? AND e.status = ?
		ORDER BY e.date, e.id`
	return r.list(query, companyID, models.StatusApproved)
}

// ListForManager retrieves the expenses a manager sees: their team members'
// expenses plus any expense holding a pending step assigned to them.
func (r *ExpenseRepository) ListForManager(managerID int64) ([]*models.Expense, error) {
	query := `SELECT DISTINCT ` + prefixed(expenseColumns, "e.") + ` FROM expenses e
		LEFT JOIN users u ON u.id = e.employee_id
		LEFT JOIN approval_steps s ON s.expense_id = e.id
		WHERE u.manager_id = ?
			OR (s.approver_id = ? AND s.status = ?)
		ORDER BY e.created_at DESC`
	return r.list(query, managerID, managerID, models.StatusPending)
}

// ListPendingForApprover retrieves the distinct expenses holding at least one
// pending step assigned to the approver.
func (r *ExpenseRepository) ListPendingForApprover(approverID int64) ([]*models.Expense, error) {
	query := `SELECT DISTINCT ` + prefixed(expenseColumns, "e.") + ` FROM expenses e
		JOIN approval_steps s ON s.expense_id = e.id
		WHERE s.approver_id = ? AND s.status = ?
		ORDER BY e.created_at DESC`
	return r.list(query, approverID, models.StatusPending)
}

func (r *ExpenseRepository) list(query string, args ...interface{}) ([]*models.Expense, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

func (r *ExpenseRepository) scanOne(row *sql.Row) (*models.Expense, error) {
	var expense models.Expense
	var receiptPath sql.NullString
	var templateID sql.NullInt64

	err := row.Scan(
		&expense.ID,
		&expense.EmployeeID,
		&expense.Amount,
		&expense.Currency,
		&expense.ConvertedAmount,
		&expense.Category,
		&expense.Description,
		&expense.Date,
		&receiptPath,
		&expense.Status,
		&templateID,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to scan expense", zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if receiptPath.Valid {
		expense.ReceiptPath = &receiptPath.String
	}
	if templateID.Valid {
		expense.FlowTemplateID = &templateID.Int64
	}
	return &expense, nil
}

func (r *ExpenseRepository) scanRow(rows *sql.Rows) (*models.Expense, error) {
	var expense models.Expense
	var receiptPath sql.NullString
	var templateID sql.NullInt64

	err := rows.Scan(
		&expense.ID,
		&expense.EmployeeID,
		&expense.Amount,
		&expense.Currency,
		&expense.ConvertedAmount,
		&expense.Category,
		&expense.Description,
		&expense.Date,
		&receiptPath,
		&expense.Status,
		&templateID,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}

	if receiptPath.Valid {
		expense.ReceiptPath = &receiptPath.String
	}
	if templateID.Valid {
		expense.FlowTemplateID = &templateID.Int64
	}
	return &expense, nil
}
