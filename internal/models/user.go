package models

import "time"

// User roles
const (
	RoleAdmin    = "ADMIN"
	RoleManager  = "MANAGER"
	RoleEmployee = "EMPLOYEE"
)

// User represents an account in the system. ManagerID points at the user's
// direct manager; IsManagerApprover marks whether that manager gates the
// user's expenses.
type User struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	PasswordHash      string    `json:"-"`
	Role              string    `json:"role"`
	CompanyID         int64     `json:"company_id"`
	ManagerID         *int64    `json:"manager_id,omitempty"`
	IsManagerApprover bool      `json:"is_manager_approver"`
	CreatedAt         time.Time `json:"created_at"`
}

// IsValidRole reports whether role is one of the recognized user roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}
