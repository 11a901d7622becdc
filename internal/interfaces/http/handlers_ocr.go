package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Pranay8282/Expense-Management/internal/auth"
	"github.com/Pranay8282/Expense-Management/internal/models"
	"github.com/Pranay8282/Expense-Management/internal/receipt"
)

// handleOCR accepts a receipt upload, stores it, extracts its text and
// returns the pre-fill fields for the expense form.
func (s *Server) handleOCR(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "file is required")
		return
	}
	if !receipt.Supported(fileHeader.Filename) {
		respondError(c, http.StatusBadRequest, "unsupported file type; use pdf, png or jpg")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "cannot read upload")
		return
	}
	defer file.Close()

	path, err := s.deps.ReceiptStore.Save(fileHeader.Filename, file)
	if err != nil {
		s.logger.Error("Failed to store receipt", zap.String("filename", fileHeader.Filename), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to store receipt")
		return
	}

	rawText, err := s.deps.TextReader.ReadText(path)
	if err != nil {
		s.logger.Error("Failed to extract receipt text", zap.String("path", path), zap.Error(err))
		respondError(c, http.StatusUnprocessableEntity, "could not read text from receipt")
		return
	}

	record := s.deps.Extractor.Extract(c.Request.Context(), rawText)
	if err := s.deps.OCRRecords.Create(nil, record); err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"record":       record,
		"receipt_path": path,
	})
}

// handleExpenseReport streams an xlsx workbook of the company's approved
// expenses.
func (s *Server) handleExpenseReport(c *gin.Context) {
	user := auth.CurrentUser(c)

	expenses, err := s.deps.Expenses.ListApprovedByCompany(user.CompanyID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	users, err := s.deps.Users.ListByCompany(user.CompanyID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}
	usersByID := make(map[int64]*models.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	filename := "expenses-" + time.Now().Format("2006-01-02") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := s.deps.Exporter.Export(c.Writer, expenses, usersByID); err != nil {
		s.logger.Error("Failed to write expense report", zap.Error(err))
	}
}
