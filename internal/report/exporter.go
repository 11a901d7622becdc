// Package report generates spreadsheet exports of approved expenses.
package report

import (
	"fmt"
	"io"

	"github.com/Pranay8282/Expense-Management/internal/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Exporter writes approved expenses into an xlsx workbook.
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

const sheetName = "Approved Expenses"

var headers = []string{"ID", "Employee", "Date", "Category", "Description", "Amount", "Currency", "Converted Amount"}

// Export writes one row per expense to w. usersByID maps employee IDs to
// users for the Employee column; unknown IDs fall back to the numeric ID.
func (e *Exporter) Export(w io.Writer, expenses []*models.Expense, usersByID map[int64]*models.User) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	total := 0.0
	for i, expense := range expenses {
		row := i + 2
		employee := fmt.Sprintf("%d", expense.EmployeeID)
		if user, ok := usersByID[expense.EmployeeID]; ok {
			employee = user.Username
		}

		values := []interface{}{
			expense.ID,
			employee,
			expense.Date.Format("2006-01-02"),
			expense.Category,
			expense.Description,
			expense.Amount,
			expense.Currency,
			expense.ConvertedAmount,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
		total += expense.ConvertedAmount
	}

	totalRow := len(expenses) + 2
	labelCell, _ := excelize.CoordinatesToCellName(len(headers)-1, totalRow)
	totalCell, _ := excelize.CoordinatesToCellName(len(headers), totalRow)
	f.SetCellValue(sheetName, labelCell, "Total")
	f.SetCellValue(sheetName, totalCell, total)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Expense report exported",
		zap.Int("expenses", len(expenses)),
		zap.Float64("total", total))
	return nil
}
