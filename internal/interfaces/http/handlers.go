package http

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Pranay8282/Expense-Management/internal/approval"
	"github.com/Pranay8282/Expense-Management/internal/auth"
	"github.com/Pranay8282/Expense-Management/internal/models"
	"github.com/Pranay8282/Expense-Management/pkg/utils"
)

// Response is the standard JSON envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Error: message})
}

// respondEngineError maps approval engine errors onto HTTP statuses.
func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, approval.ErrNoPendingApproval):
		respondError(c, http.StatusForbidden, "No pending approval for you on this expense.")
	case errors.Is(err, approval.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, approval.ErrInvalidTemplate), errors.Is(err, approval.ErrInvalidStatus):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
	Email       string `json:"email" binding:"required,email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CompanyName string `json:"company_name" binding:"required"`
	Country     string `json:"country" binding:"required"`
	Currency    string `json:"currency" binding:"required"`
}

// handleRegister signs up a new company: it creates the company and its first
// user, who becomes the company ADMIN.
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateCurrencyCode(req.Currency); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	company := &models.Company{
		Name:     req.CompanyName,
		Country:  req.Country,
		Currency: req.Currency,
	}
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}

	err = s.deps.DB.WithTransaction(func(tx *sql.Tx) error {
		if err := s.deps.Companies.Create(tx, company); err != nil {
			return err
		}
		user.CompanyID = company.ID
		return s.deps.Users.Create(tx, user)
	})
	if err != nil {
		s.logger.Error("Failed to register company", zap.String("username", req.Username), zap.Error(err))
		respondError(c, http.StatusConflict, "could not register: username may already exist")
		return
	}

	token, err := s.deps.Tokens.Issue(user.ID, user.Role)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"access":  token,
		"user":    user,
		"company": company,
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.deps.Users.GetByUsername(req.Username)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.deps.Tokens.Issue(user.ID, user.Role)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"access": token,
		"user":   user,
	})
}

func (s *Server) handleProfile(c *gin.Context) {
	respondOK(c, http.StatusOK, auth.CurrentUser(c))
}

func (s *Server) handleListUsers(c *gin.Context) {
	admin := auth.CurrentUser(c)
	users, err := s.deps.Users.ListByCompany(admin.CompanyID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	respondOK(c, http.StatusOK, users)
}

type createUserRequest struct {
	Username          string `json:"username" binding:"required"`
	Password          string `json:"password" binding:"required,min=8"`
	Email             string `json:"email" binding:"required,email"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Role              string `json:"role" binding:"required"`
	ManagerID         *int64 `json:"manager_id"`
	IsManagerApprover bool   `json:"is_manager_approver"`
}

// handleCreateUser lets an admin add a user to their own company.
func (s *Server) handleCreateUser(c *gin.Context) {
	admin := auth.CurrentUser(c)

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !models.IsValidRole(req.Role) {
		respondError(c, http.StatusBadRequest, "unknown role")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	user := &models.User{
		Username:          req.Username,
		Email:             req.Email,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		PasswordHash:      hash,
		Role:              req.Role,
		CompanyID:         admin.CompanyID,
		ManagerID:         req.ManagerID,
		IsManagerApprover: req.IsManagerApprover,
	}

	if err := s.deps.Users.Create(nil, user); err != nil {
		respondError(c, http.StatusConflict, "could not create user: username may already exist")
		return
	}
	respondOK(c, http.StatusCreated, user)
}

type updateUserRequest struct {
	Email             string  `json:"email"`
	FirstName         string  `json:"first_name"`
	LastName          string  `json:"last_name"`
	Role              string  `json:"role"`
	ManagerID         *int64  `json:"manager_id"`
	IsManagerApprover *bool   `json:"is_manager_approver"`
	Password          *string `json:"password"`
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	admin := auth.CurrentUser(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := s.deps.Users.GetByID(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || user.CompanyID != admin.CompanyID {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.Email != "" {
		user.Email = req.Email
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Role != "" {
		if !models.IsValidRole(req.Role) {
			respondError(c, http.StatusBadRequest, "unknown role")
			return
		}
		user.Role = req.Role
	}
	if req.ManagerID != nil {
		user.ManagerID = req.ManagerID
	}
	if req.IsManagerApprover != nil {
		user.IsManagerApprover = *req.IsManagerApprover
	}

	if err := s.deps.Users.Update(nil, user); err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	if req.Password != nil && *req.Password != "" {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "internal error")
			return
		}
		if err := s.deps.Users.UpdatePassword(nil, user.ID, hash); err != nil {
			respondError(c, http.StatusInternalServerError, "internal error")
			return
		}
	}

	respondOK(c, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	admin := auth.CurrentUser(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	if id == admin.ID {
		respondError(c, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	user, err := s.deps.Users.GetByID(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || user.CompanyID != admin.CompanyID {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}

	if err := s.deps.Users.Delete(nil, id); err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": id})
}
