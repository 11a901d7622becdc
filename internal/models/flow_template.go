package models

import "time"

// Abstract approver roles a flow template step may name.
const (
	FlowRoleManager = "MANAGER"
	FlowRoleAdmin   = "ADMIN"
)

// FlowTemplate is a reusable, ordered approval chain definition for one
// company. At most one template per company is the default; the default is
// the one consulted when an expense is submitted.
type FlowTemplate struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`

	Steps []FlowTemplateStep `json:"steps"`
}

// FlowTemplateStep is one position in a flow template: an abstract role at a
// declared step number.
type FlowTemplateStep struct {
	ID           int64  `json:"id"`
	TemplateID   int64  `json:"template_id"`
	StepNumber   int    `json:"step_number"`
	ApproverRole string `json:"approver_role"`
}

// IsValidFlowRole reports whether role is a recognized template role.
func IsValidFlowRole(role string) bool {
	return role == FlowRoleManager || role == FlowRoleAdmin
}
