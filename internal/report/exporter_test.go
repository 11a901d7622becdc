package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Pranay8282/Expense-Management/internal/models"
)

func TestExporter_Export(t *testing.T) {
	exporter := NewExporter(zap.NewNop())

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	expenses := []*models.Expense{
		{
			ID: 1, EmployeeID: 10, Amount: 120.50, Currency: "USD",
			ConvertedAmount: 120.50, Category: "Travel",
			Description: "Taxi", Date: date, Status: models.StatusApproved,
		},
		{
			ID: 2, EmployeeID: 11, Amount: 80, Currency: "EUR",
			ConvertedAmount: 88, Category: "Meals",
			Description: "Team dinner", Date: date, Status: models.StatusApproved,
		},
	}
	users := map[int64]*models.User{
		10: {ID: 10, Username: "jdoe"},
	}

	var buf bytes.Buffer
	require.NoError(t, exporter.Export(&buf, expenses, users))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Approved Expenses")
	require.NoError(t, err)
	require.Len(t, rows, 4) // header + 2 expenses + total

	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "jdoe", rows[1][1])
	// Employee 11 is not in the map; the numeric ID stands in.
	assert.Equal(t, "11", rows[2][1])
	assert.Equal(t, "Travel", rows[1][3])
	assert.Equal(t, "2024-03-15", rows[1][2])

	totalRow := rows[3]
	assert.Equal(t, "Total", totalRow[len(totalRow)-2])
	assert.Equal(t, "208.5", totalRow[len(totalRow)-1])
}

func TestExporter_ExportEmpty(t *testing.T) {
	exporter := NewExporter(zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, exporter.Export(&buf, nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Approved Expenses")
	require.NoError(t, err)
	require.Len(t, rows, 2) // header + total
	assert.Equal(t, "0", rows[1][len(rows[1])-1])
}
