package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Pranay8282/Expense-Management/internal/models"
	"go.uber.org/zap"
)

const stepColumns = `id, expense_id, approver_id, step_number, status,
	comments, acted_at, created_at`

// StepRepository handles approval step database operations
type StepRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStepRepository creates a new step repository
func NewStepRepository(db *sql.DB, logger *zap.Logger) *StepRepository {
	return &StepRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new approval step
func (r *StepRepository) Create(tx *sql.Tx, step *models.ApprovalStep) error {
	query := `
		INSERT INTO approval_steps (expense_id, approver_id, step_number, status, comments)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := pick(r.db, tx).Exec(query,
		step.ExpenseID,
		step.ApproverID,
		step.StepNumber,
		step.Status,
		step.Comments,
	)
	if err != nil {
		r.logger.Error("Failed to create approval step",
			zap.Int64("expense_id", step.ExpenseID),
			zap.Int64("approver_id", step.ApproverID),
			zap.Error(err))
		return fmt.Errorf("failed to create approval step: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	step.ID = id
	return nil
}

// GetPending returns the pending step assigned to the approver on the
// expense, or nil when none exists.
func (r *StepRepository) GetPending(tx *sql.Tx, expenseID, approverID int64) (*models.ApprovalStep, error) {
	query := `SELECT ` + stepColumns + ` FROM approval_steps
		WHERE expense_id = ? AND approver_id = ? AND status = ?`

	return r.scanOne(pick(r.db, tx).QueryRow(query, expenseID, approverID, models.StatusPending))
}

// Resolve marks a step APPROVED or REJECTED with comments and a decision
// timestamp. The status guard in the WHERE clause makes the transition
// single-shot: a step that is no longer PENDING is not touched, and Resolve
// reports false.
func (r *StepRepository) Resolve(tx *sql.Tx, stepID int64, status, comments string, actedAt time.Time) (bool, error) {
	query := `UPDATE approval_steps
		SET status = ?, comments = ?, acted_at = ?
		WHERE id = ? AND status = ?`

	result, err := pick(r.db, tx).Exec(query, status, comments, actedAt, stepID, models.StatusPending)
	if err != nil {
		r.logger.Error("Failed to resolve approval step", zap.Int64("step_id", stepID), zap.Error(err))
		return false, fmt.Errorf("failed to resolve approval step: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected == 1, nil
}

// DeleteAfter removes every step on the expense with a step number strictly
// greater than afterNumber. Used by the rejection cascade: once a chain is
// dead, later gates never get decided.
func (r *StepRepository) DeleteAfter(tx *sql.Tx, expenseID int64, afterNumber int) error {
	query := `DELETE FROM approval_steps WHERE expense_id = ? AND step_number > ?`

	_, err := pick(r.db, tx).Exec(query, expenseID, afterNumber)
	if err != nil {
		r.logger.Error("Failed to delete later approval steps",
			zap.Int64("expense_id", expenseID),
			zap.Int("after_number", afterNumber),
			zap.Error(err))
		return fmt.Errorf("failed to delete later approval steps: %w", err)
	}

	return nil
}

// CountPending returns the number of pending steps on the expense.
func (r *StepRepository) CountPending(tx *sql.Tx, expenseID int64) (int, error) {
	query := `SELECT COUNT(*) FROM approval_steps WHERE expense_id = ? AND status = ?`

	var count int
	err := pick(r.db, tx).QueryRow(query, expenseID, models.StatusPending).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count pending steps", zap.Int64("expense_id", expenseID), zap.Error(err))
		return 0, fmt.Errorf("failed to count pending steps: %w", err)
	}
	return count, nil
}

// ResolveAllPending marks every pending step on the expense with the given
// status. Used when an administrative override is configured to also close
// the outstanding chain.
func (r *StepRepository) ResolveAllPending(tx *sql.Tx, expenseID int64, status, comments string, actedAt time.Time) error {
	query := `UPDATE approval_steps
		SET status = ?, comments = ?, acted_at = ?
		WHERE expense_id = ? AND status = ?`

	_, err := pick(r.db, tx).Exec(query, status, comments, actedAt, expenseID, models.StatusPending)
	if err != nil {
		r.logger.Error("Failed to resolve pending steps", zap.Int64("expense_id", expenseID), zap.Error(err))
		return fmt.Errorf("failed to resolve pending steps: %w", err)
	}
	return nil
}

// ListByExpense retrieves the expense's steps ordered by step number.
func (r *StepRepository) ListByExpense(tx *sql.Tx, expenseID int64) ([]*models.ApprovalStep, error) {
	query := `SELECT ` + stepColumns + ` FROM approval_steps
		WHERE expense_id = ? ORDER BY step_number`

	rows, err := pick(r.db, tx).Query(query, expenseID)
	if err != nil {
		r.logger.Error("Failed to list approval steps", zap.Int64("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approval steps: %w", err)
	}
	defer rows.Close()

	var steps []*models.ApprovalStep
	for rows.Next() {
		var step models.ApprovalStep
		var actedAt sql.NullTime

		err := rows.Scan(
			&step.ID,
			&step.ExpenseID,
			&step.ApproverID,
			&step.StepNumber,
			&step.Status,
			&step.Comments,
			&actedAt,
			&step.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval step: %w", err)
		}

		if actedAt.Valid {
			step.ActedAt = &actedAt.Time
		}
		steps = append(steps, &step)
	}
	return steps, rows.Err()
}

func (r *StepRepository) scanOne(row *sql.Row) (*models.ApprovalStep, error) {
	var step models.ApprovalStep
	var actedAt sql.NullTime

	err := row.Scan(
		&step.ID,
		&step.ExpenseID,
		&step.ApproverID,
		&step.StepNumber,
		&step.Status,
		&step.Comments,
		&actedAt,
		&step.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to scan approval step", zap.Error(err))
		return nil, fmt.Errorf("failed to get approval step: %w", err)
	}

	if actedAt.Valid {
		step.ActedAt = &actedAt.Time
	}
	return &step, nil
}
