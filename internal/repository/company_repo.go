package repository

import (
	"database/sql"
	"fmt"

	"github.com/Pranay8282/Expense-Management/internal/models"
	"go.uber.org/zap"
)

// CompanyRepository handles company database operations
type CompanyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *sql.DB, logger *zap.Logger) *CompanyRepository {
	return &CompanyRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new company
func (r *CompanyRepository) Create(tx *sql.Tx, company *models.Company) error {
	query := `INSERT INTO companies (name, country, currency) VALUES (?, ?, ?)`

	result, err := pick(r.db, tx).Exec(query, company.Name, company.Country, company.Currency)
	if err != nil {
		r.logger.Error("Failed to create company", zap.Error(err))
		return fmt.Errorf("failed to create company: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	company.ID = id
	return nil
}

// GetByID retrieves a company by ID. Returns nil when no company exists.
func (r *CompanyRepository) GetByID(id int64) (*models.Company, error) {
	query := `SELECT id, name, country, currency, created_at FROM companies WHERE id = ?`

	var company models.Company
	err := r.db.QueryRow(query, id).Scan(
		&company.ID,
		&company.Name,
		&company.Country,
		&company.Currency,
		&company.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get company by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return &company, nil
}
