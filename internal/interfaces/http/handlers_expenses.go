package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Pranay8282/Expense-Management/internal/approval"
	"github.com/Pranay8282/Expense-Management/internal/auth"
	"github.com/Pranay8282/Expense-Management/internal/models"
	"github.com/Pranay8282/Expense-Management/pkg/utils"
)

type submitExpenseRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Currency    string  `json:"currency" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Description string  `json:"description"`
	Date        string  `json:"date" binding:"required"`
	ReceiptPath *string `json:"receipt_path"`
	OCRRecordID *int64  `json:"ocr_record_id"`
}

// handleSubmitExpense creates an expense and materializes its approval chain.
func (s *Server) handleSubmitExpense(c *gin.Context) {
	user := auth.CurrentUser(c)

	var req submitExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := utils.ValidateCurrencyCode(req.Currency); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	expense, err := s.deps.Engine.Submit(c.Request.Context(), user, approval.SubmitInput{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Category:    req.Category,
		Description: utils.SanitizeString(req.Description),
		Date:        date,
		ReceiptPath: req.ReceiptPath,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	if req.OCRRecordID != nil {
		if err := s.deps.OCRRecords.AttachToExpense(nil, *req.OCRRecordID, expense.ID); err != nil {
			// The expense is already committed; a dangling pre-fill record is
			// tolerable.
			s.logger.Warn("Failed to attach OCR record to expense",
				zap.Int64("record_id", *req.OCRRecordID),
				zap.Int64("expense_id", expense.ID),
				zap.Error(err))
		}
	}

	respondOK(c, http.StatusCreated, expense)
}

// handleListExpenses is role-scoped: admins see their whole company, managers
// their team plus expenses pending their decision, employees their own.
func (s *Server) handleListExpenses(c *gin.Context) {
	user := auth.CurrentUser(c)

	var (
		expenses []*models.Expense
		err      error
	)
	switch user.Role {
	case models.RoleAdmin:
		expenses, err = s.deps.Expenses.ListByCompany(user.CompanyID)
	case models.RoleManager:
		expenses, err = s.deps.Expenses.ListForManager(user.ID)
	default:
		expenses, err = s.deps.Expenses.ListByEmployee(user.ID)
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	respondOK(c, http.StatusOK, expenses)
}

func (s *Server) handleGetExpense(c *gin.Context) {
	user := auth.CurrentUser(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	expense, err := s.deps.Engine.GetExpense(id)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	if !s.canViewExpense(user, expense) {
		respondError(c, http.StatusForbidden, "not allowed to view this expense")
		return
	}
	respondOK(c, http.StatusOK, expense)
}

// canViewExpense allows the owner, anyone holding a step on the chain, the
// owner's manager, and company admins.
func (s *Server) canViewExpense(user *models.User, expense *models.Expense) bool {
	if expense.EmployeeID == user.ID {
		return true
	}
	for _, step := range expense.Steps {
		if step.ApproverID == user.ID {
			return true
		}
	}
	owner, err := s.deps.Users.GetByID(expense.EmployeeID)
	if err != nil || owner == nil {
		return false
	}
	if owner.ManagerID != nil && *owner.ManagerID == user.ID {
		return true
	}
	return user.Role == models.RoleAdmin && owner.CompanyID == user.CompanyID
}

type decisionRequest struct {
	Comments string `json:"comments"`
}

func (s *Server) handleApprove(c *gin.Context) {
	s.handleDecision(c, approval.OutcomeApprove)
}

func (s *Server) handleReject(c *gin.Context) {
	s.handleDecision(c, approval.OutcomeReject)
}

func (s *Server) handleDecision(c *gin.Context, outcome string) {
	user := auth.CurrentUser(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	expense, err := s.deps.Engine.Decide(id, user, outcome, req.Comments)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	respondOK(c, http.StatusOK, expense)
}

func (s *Server) handleApprovalQueue(c *gin.Context) {
	user := auth.CurrentUser(c)

	expenses, err := s.deps.Engine.Queue(user)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	respondOK(c, http.StatusOK, expenses)
}

type overrideRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) handleOverride(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	expense, err := s.deps.Engine.Override(id, req.Status)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	respondOK(c, http.StatusOK, expense)
}
