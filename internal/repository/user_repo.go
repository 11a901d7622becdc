package repository

import (
	"database/sql"
	"fmt"

	"github.com/Pranay8282/Expense-Management/internal/models"
	"go.uber.org/zap"
)

const userColumns = `id, username, email, first_name, last_name, password_hash,
	role, company_id, manager_id, is_manager_approver, created_at`

// UserRepository handles user database operations
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new user
func (r *UserRepository) Create(tx *sql.Tx, user *models.User) error {
	query := `
		INSERT INTO users (
			username, email, first_name, last_name, password_hash,
			role, company_id, manager_id, is_manager_approver
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := pick(r.db, tx).Exec(query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Role,
		user.CompanyID,
		user.ManagerID,
		user.IsManagerApprover,
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("username", user.Username), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = id
	return nil
}

// Update updates profile and routing fields of an existing user.
func (r *UserRepository) Update(tx *sql.Tx, user *models.User) error {
	query := `
		UPDATE users
		SET email = ?, first_name = ?, last_name = ?, role = ?,
			manager_id = ?, is_manager_approver = ?
		WHERE id = ?
	`

	_, err := pick(r.db, tx).Exec(query,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Role,
		user.ManagerID,
		user.IsManagerApprover,
		user.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update user", zap.Int64("id", user.ID), zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(tx *sql.Tx, id int64, passwordHash string) error {
	_, err := pick(r.db, tx).Exec(`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		r.logger.Error("Failed to update password", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(tx *sql.Tx, id int64) error {
	_, err := pick(r.db, tx).Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete user", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID. Returns nil when no user exists.
func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByUsername retrieves a user by username. Returns nil when no user exists.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return r.scanOne(r.db.QueryRow(query, username))
}

// ListByCompany retrieves all users belonging to a company.
func (r *UserRepository) ListByCompany(companyID int64) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE company_id = ? ORDER BY id`

	rows, err := r.db.Query(query, companyID)
	if err != nil {
		r.logger.Error("Failed to list users", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// FirstAdmin returns the company's ADMIN user with the lowest ID, or nil when
// the company has no admin. Lowest ID means identity creation order, which
// keeps role resolution deterministic.
func (r *UserRepository) FirstAdmin(tx *sql.Tx, companyID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE company_id = ? AND role = ?
		ORDER BY id LIMIT 1`
	return r.scanOne(pick(r.db, tx).QueryRow(query, companyID, models.RoleAdmin))
}

// GetManager returns the user's direct manager, or nil when the user has none.
func (r *UserRepository) GetManager(tx *sql.Tx, user *models.User) (*models.User, error) {
	if user.ManagerID == nil {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(pick(r.db, tx).QueryRow(query, *user.ManagerID))
}

func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	var user models.User
	var managerID sql.NullInt64

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.Role,
		&user.CompanyID,
		&managerID,
		&user.IsManagerApprover,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to scan user", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if managerID.Valid {
		user.ManagerID = &managerID.Int64
	}
	return &user, nil
}

func (r *UserRepository) scanAll(rows *sql.Rows) ([]*models.User, error) {
	var users []*models.User
	for rows.Next() {
		var user models.User
		var managerID sql.NullInt64

		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.FirstName,
			&user.LastName,
			&user.PasswordHash,
			&user.Role,
			&user.CompanyID,
			&managerID,
			&user.IsManagerApprover,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		if managerID.Valid {
			user.ManagerID = &managerID.Int64
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}
