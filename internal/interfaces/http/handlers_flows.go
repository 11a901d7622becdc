package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Pranay8282/Expense-Management/internal/auth"
	"github.com/Pranay8282/Expense-Management/internal/models"
)

type templateStepRequest struct {
	StepNumber   int    `json:"step_number" binding:"required"`
	ApproverRole string `json:"approver_role" binding:"required"`
}

type createTemplateRequest struct {
	Name      string                `json:"name" binding:"required"`
	IsDefault bool                  `json:"is_default"`
	Steps     []templateStepRequest `json:"steps"`
}

func (s *Server) handleListTemplates(c *gin.Context) {
	user := auth.CurrentUser(c)

	templates, err := s.deps.Templates.List(user.CompanyID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	respondOK(c, http.StatusOK, templates)
}

func (s *Server) handleCreateTemplate(c *gin.Context) {
	user := auth.CurrentUser(c)

	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	steps := make([]models.FlowTemplateStep, 0, len(req.Steps))
	for _, st := range req.Steps {
		steps = append(steps, models.FlowTemplateStep{
			StepNumber:   st.StepNumber,
			ApproverRole: st.ApproverRole,
		})
	}

	template, err := s.deps.Templates.Create(user.CompanyID, req.Name, steps, req.IsDefault)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, template)
}

func (s *Server) handleSetDefaultTemplate(c *gin.Context) {
	user := auth.CurrentUser(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	template, err := s.deps.Templates.SetDefault(user.CompanyID, id)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	respondOK(c, http.StatusOK, template)
}

type createRuleRequest struct {
	Name               string `json:"name" binding:"required"`
	PercentageRequired *int   `json:"percentage_required"`
	SpecificApproverID *int64 `json:"specific_approver_id"`
	Hybrid             bool   `json:"hybrid"`
}

func (s *Server) handleListRules(c *gin.Context) {
	user := auth.CurrentUser(c)

	rules, err := s.deps.Rules.ListByCompany(user.CompanyID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	respondOK(c, http.StatusOK, rules)
}

func (s *Server) handleCreateRule(c *gin.Context) {
	user := auth.CurrentUser(c)

	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.PercentageRequired != nil && (*req.PercentageRequired < 1 || *req.PercentageRequired > 100) {
		respondError(c, http.StatusBadRequest, "percentage_required must be between 1 and 100")
		return
	}

	rule := &models.ApprovalRule{
		CompanyID:          user.CompanyID,
		Name:               req.Name,
		PercentageRequired: req.PercentageRequired,
		SpecificApproverID: req.SpecificApproverID,
		Hybrid:             req.Hybrid,
	}
	if err := s.deps.Rules.Create(nil, rule); err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	respondOK(c, http.StatusCreated, rule)
}

func (s *Server) handleDeleteRule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.deps.Rules.Delete(nil, id); err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": id})
}
