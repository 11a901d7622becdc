package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Pranay8282/Expense-Management/internal/approval"
	"github.com/Pranay8282/Expense-Management/internal/auth"
	"github.com/Pranay8282/Expense-Management/internal/receipt"
	"github.com/Pranay8282/Expense-Management/internal/report"
	"github.com/Pranay8282/Expense-Management/internal/repository"
	"github.com/Pranay8282/Expense-Management/internal/storage"
	"github.com/Pranay8282/Expense-Management/pkg/database"
)

type nopConverter struct{}

func (nopConverter) Convert(_ context.Context, amount float64, _, _ string) (float64, error) {
	return amount, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	dir := t.TempDir()
	db, err := database.New(database.Config{
		Path:            filepath.Join(dir, "test.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrator := database.NewMigrator(db, logger)
	require.NoError(t, migrator.RunMigrations("../../../migrations"))

	companyRepo := repository.NewCompanyRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)
	expenseRepo := repository.NewExpenseRepository(db.DB, logger)
	stepRepo := repository.NewStepRepository(db.DB, logger)
	templateRepo := repository.NewFlowTemplateRepository(db.DB, logger)

	materializer := approval.NewMaterializer(userRepo, stepRepo, templateRepo, logger)
	engine := approval.NewEngine(db, expenseRepo, stepRepo, companyRepo,
		materializer, nopConverter{}, false, logger)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	receiptStore, err := storage.NewReceiptStore(filepath.Join(dir, "receipts"), logger)
	require.NoError(t, err)

	return NewServer(ServerConfig{Host: "127.0.0.1", Port: 0}, Deps{
		DB:           db,
		Engine:       engine,
		Templates:    approval.NewTemplateStore(db, templateRepo, logger),
		Users:        userRepo,
		Companies:    companyRepo,
		Rules:        repository.NewRuleRepository(db.DB, logger),
		OCRRecords:   repository.NewOCRRepository(db.DB, logger),
		Expenses:     expenseRepo,
		Tokens:       tokens,
		AuthMW:       auth.NewMiddleware(tokens, userRepo, logger),
		TextReader:   receipt.NewTextReader(logger),
		Extractor:    receipt.NewExtractor("", "gpt-4o-mini", 0.1, logger),
		ReceiptStore: receiptStore,
		Exporter:     report.NewExporter(logger),
	}, logger)
}

func doJSON(t *testing.T, server *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
		Error   string                 `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data
}

// register signs up a company and returns the admin's token.
func register(t *testing.T, server *Server, username, company string) string {
	t.Helper()
	rec := doJSON(t, server, http.MethodPost, "/api/users/register", "", gin.H{
		"username":     username,
		"password":     "password123",
		"email":        username + "@test.example",
		"company_name": company,
		"country":      "United States",
		"currency":     "USD",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeData(t, rec)["access"].(string)
}

// createUser makes a user over the admin API and logs them in.
func createUser(t *testing.T, server *Server, adminToken string, body gin.H) string {
	t.Helper()
	rec := doJSON(t, server, http.MethodPost, "/api/users/manage", adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, server, http.MethodPost, "/api/users/login", "", gin.H{
		"username": body["username"],
		"password": body["password"],
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeData(t, rec)["access"].(string)
}

func submitExpense(t *testing.T, server *Server, token string) float64 {
	t.Helper()
	rec := doJSON(t, server, http.MethodPost, "/api/expenses", token, gin.H{
		"amount":      55.20,
		"currency":    "USD",
		"category":    "Travel",
		"description": "Taxi",
		"date":        "2024-03-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeData(t, rec)["id"].(float64)
}

func TestServer_RegisterAndLogin(t *testing.T) {
	server := newTestServer(t)

	token := register(t, server, "alice", "Acme")
	require.NotEmpty(t, token)

	rec := doJSON(t, server, http.MethodGet, "/api/users/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decodeData(t, rec)
	assert.Equal(t, "alice", profile["username"])
	assert.Equal(t, "ADMIN", profile["role"])

	rec = doJSON(t, server, http.MethodPost, "/api/users/login", "", gin.H{
		"username": "alice",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_UnauthenticatedRequestsRejected(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/expenses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/expenses", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_ApprovalLifecycle(t *testing.T) {
	server := newTestServer(t)

	adminToken := register(t, server, "admin", "Acme")

	managerToken := createUser(t, server, adminToken, gin.H{
		"username":            "manager",
		"password":            "password123",
		"email":               "manager@test.example",
		"role":                "MANAGER",
		"is_manager_approver": true,
	})

	// Look up the manager's ID to attach the employee to them.
	rec := doJSON(t, server, http.MethodGet, "/api/users/profile", managerToken, nil)
	managerID := decodeData(t, rec)["id"].(float64)

	employeeToken := createUser(t, server, adminToken, gin.H{
		"username":   "employee",
		"password":   "password123",
		"email":      "employee@test.example",
		"role":       "EMPLOYEE",
		"manager_id": int64(managerID),
	})

	expenseID := submitExpense(t, server, employeeToken)

	// The expense sits in the manager's queue.
	rec = doJSON(t, server, http.MethodGet, "/api/expenses/approval-queue", managerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The employee holds no step and cannot decide.
	rec = doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/api/expenses/%d/approve", int64(expenseID)), employeeToken, gin.H{})
	require.Equal(t, http.StatusForbidden, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "No pending approval for you on this expense.", resp.Error)

	// Manager approves, then admin approves, closing the expense.
	rec = doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/api/expenses/%d/approve", int64(expenseID)), managerToken, gin.H{"comments": "ok"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "PENDING", decodeData(t, rec)["status"])

	rec = doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/api/expenses/%d/approve", int64(expenseID)), adminToken, gin.H{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "APPROVED", decodeData(t, rec)["status"])

	// A decision on the closed expense is refused.
	rec = doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/api/expenses/%d/approve", int64(expenseID)), managerToken, gin.H{})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_RejectStopsChain(t *testing.T) {
	server := newTestServer(t)

	adminToken := register(t, server, "admin", "Acme")
	employeeToken := createUser(t, server, adminToken, gin.H{
		"username": "employee",
		"password": "password123",
		"email":    "employee@test.example",
		"role":     "EMPLOYEE",
	})

	// No manager: the fallback chain resolves to the admin alone.
	expenseID := submitExpense(t, server, employeeToken)

	rec := doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/api/expenses/%d/reject", int64(expenseID)), adminToken, gin.H{"comments": "no receipt"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "REJECTED", decodeData(t, rec)["status"])
}

func TestServer_OverrideRequiresAdmin(t *testing.T) {
	server := newTestServer(t)

	adminToken := register(t, server, "admin", "Acme")
	employeeToken := createUser(t, server, adminToken, gin.H{
		"username": "employee",
		"password": "password123",
		"email":    "employee@test.example",
		"role":     "EMPLOYEE",
	})

	expenseID := submitExpense(t, server, employeeToken)

	rec := doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/api/expenses/%d/override", int64(expenseID)), employeeToken, gin.H{"status": "APPROVED"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/api/expenses/%d/override", int64(expenseID)), adminToken, gin.H{"status": "APPROVED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "APPROVED", decodeData(t, rec)["status"])

	rec = doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/api/expenses/%d/override", int64(expenseID)), adminToken, gin.H{"status": "PENDING"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_FlowTemplateAPI(t *testing.T) {
	server := newTestServer(t)

	adminToken := register(t, server, "admin", "Acme")

	rec := doJSON(t, server, http.MethodPost, "/api/approval-flows", adminToken, gin.H{
		"name":       "Admin only",
		"is_default": false,
		"steps": []gin.H{
			{"step_number": 1, "approver_role": "ADMIN"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	templateID := decodeData(t, rec)["id"].(float64)

	rec = doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/api/approval-flows/%d/set-default", int64(templateID)), adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decodeData(t, rec)["is_default"])

	// Bad template shapes are rejected.
	rec = doJSON(t, server, http.MethodPost, "/api/approval-flows", adminToken, gin.H{
		"name": "broken",
		"steps": []gin.H{
			{"step_number": 1, "approver_role": "CFO"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Health(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
