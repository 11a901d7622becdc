package models

import "time"

// Expense statuses. Expense status is a cached projection of the expense's
// approval steps; the approval engine keeps it consistent.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Expense represents a submitted cost claim awaiting approval.
type Expense struct {
	ID              int64      `json:"id"`
	EmployeeID      int64      `json:"employee_id"`
	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency"`
	ConvertedAmount float64    `json:"converted_amount"`
	Category        string     `json:"category"`
	Description     string     `json:"description"`
	Date            time.Time  `json:"date"`
	ReceiptPath     *string    `json:"receipt_path,omitempty"`
	Status          string     `json:"status"`
	// FlowTemplateID records which template was used to materialize the
	// approval chain, for audit only. Nil when the implicit fallback chain
	// was used.
	FlowTemplateID *int64     `json:"flow_template_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Steps []*ApprovalStep `json:"approval_steps,omitempty"`
}

// IsTerminal reports whether the expense has reached a final status.
func (e *Expense) IsTerminal() bool {
	return e.Status == StatusApproved || e.Status == StatusRejected
}
