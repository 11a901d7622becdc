package models

// ApprovalRule is a richer approval policy (percentage threshold, specific
// named approver, or a hybrid of both). Rules are stored and managed over the
// admin API but are not consulted by the approval engine, which runs the
// sequential chain only.
type ApprovalRule struct {
	ID                 int64  `json:"id"`
	CompanyID          int64  `json:"company_id"`
	Name               string `json:"name"`
	PercentageRequired *int   `json:"percentage_required,omitempty"`
	SpecificApproverID *int64 `json:"specific_approver_id,omitempty"`
	Hybrid             bool   `json:"hybrid"`
}
