package models

import "time"

// ApprovalStep is a concrete decision slot for one reviewer on one expense.
// Steps for an expense are ordered by StepNumber; numbers are not required to
// be contiguous (template positions that fail to resolve leave gaps). No two
// steps on the same expense name the same approver.
type ApprovalStep struct {
	ID         int64      `json:"id"`
	ExpenseID  int64      `json:"expense_id"`
	ApproverID int64      `json:"approver_id"`
	StepNumber int        `json:"step_number"`
	Status     string     `json:"status"`
	Comments   string     `json:"comments,omitempty"`
	ActedAt    *time.Time `json:"acted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
