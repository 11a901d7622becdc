package repository

import (
	"database/sql"
	"fmt"

	"github.com/Pranay8282/Expense-Management/internal/models"
	"go.uber.org/zap"
)

// OCRRepository handles OCR record database operations
type OCRRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOCRRepository creates a new OCR repository
func NewOCRRepository(db *sql.DB, logger *zap.Logger) *OCRRepository {
	return &OCRRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new OCR record
func (r *OCRRepository) Create(tx *sql.Tx, record *models.OCRRecord) error {
	query := `
		INSERT INTO ocr_records (expense_id, raw_text, extracted_amount, extracted_date, extracted_description)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := pick(r.db, tx).Exec(query,
		record.ExpenseID,
		record.RawText,
		record.ExtractedAmount,
		record.ExtractedDate,
		record.ExtractedDescription,
	)
	if err != nil {
		r.logger.Error("Failed to create OCR record", zap.Error(err))
		return fmt.Errorf("failed to create OCR record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// AttachToExpense links a pre-fill OCR record to the expense it ended up on.
func (r *OCRRepository) AttachToExpense(tx *sql.Tx, recordID, expenseID int64) error {
	_, err := pick(r.db, tx).Exec(`UPDATE ocr_records SET expense_id = ? WHERE id = ?`, expenseID, recordID)
	if err != nil {
		r.logger.Error("Failed to attach OCR record",
			zap.Int64("record_id", recordID),
			zap.Int64("expense_id", expenseID),
			zap.Error(err))
		return fmt.Errorf("failed to attach OCR record: %w", err)
	}
	return nil
}

// GetByExpenseID retrieves the OCR record linked to an expense, or nil.
func (r *OCRRepository) GetByExpenseID(expenseID int64) (*models.OCRRecord, error) {
	query := `SELECT id, expense_id, raw_text, extracted_amount, extracted_date, extracted_description, created_at
		FROM ocr_records WHERE expense_id = ?`

	var record models.OCRRecord
	var linkedExpense sql.NullInt64
	var amount sql.NullFloat64
	var date sql.NullTime
	var description sql.NullString

	err := r.db.QueryRow(query, expenseID).Scan(
		&record.ID,
		&linkedExpense,
		&record.RawText,
		&amount,
		&date,
		&description,
		&record.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get OCR record", zap.Int64("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("failed to get OCR record: %w", err)
	}

	if linkedExpense.Valid {
		record.ExpenseID = &linkedExpense.Int64
	}
	if amount.Valid {
		record.ExtractedAmount = &amount.Float64
	}
	if date.Valid {
		record.ExtractedDate = &date.Time
	}
	if description.Valid {
		record.ExtractedDescription = &description.String
	}
	return &record, nil
}
