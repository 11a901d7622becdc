package approval

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Pranay8282/Expense-Management/internal/models"
	"github.com/Pranay8282/Expense-Management/internal/repository"
	"github.com/Pranay8282/Expense-Management/pkg/database"
	"go.uber.org/zap"
)

// Decision outcomes a reviewer may submit.
const (
	OutcomeApprove = "APPROVE"
	OutcomeReject  = "REJECT"
)

// RateConverter converts an amount between currencies. Implementations must
// be time-bounded; the engine treats any failure as "use the original
// amount", never as a reason to refuse a submission.
type RateConverter interface {
	Convert(ctx context.Context, amount float64, from, to string) (float64, error)
}

// Engine runs the approval workflow: it materializes step chains at
// submission, applies reviewer decisions, keeps the expense status consistent
// with its steps, and answers reviewer queues.
type Engine struct {
	db           *database.DB
	expenses     *repository.ExpenseRepository
	steps        *repository.StepRepository
	companies    *repository.CompanyRepository
	materializer *Materializer
	converter    RateConverter

	// overrideResolvesSteps controls whether Override also force-resolves
	// outstanding pending steps.
	overrideResolvesSteps bool

	logger *zap.Logger
}

// NewEngine creates a new approval engine
func NewEngine(
	db *database.DB,
	expenses *repository.ExpenseRepository,
	steps *repository.StepRepository,
	companies *repository.CompanyRepository,
	materializer *Materializer,
	converter RateConverter,
	overrideResolvesSteps bool,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		db:                    db,
		expenses:              expenses,
		steps:                 steps,
		companies:             companies,
		materializer:          materializer,
		converter:             converter,
		overrideResolvesSteps: overrideResolvesSteps,
		logger:                logger,
	}
}

// SubmitInput carries the submitter-provided fields of a new expense.
type SubmitInput struct {
	Amount      float64
	Currency    string
	Category    string
	Description string
	Date        time.Time
	ReceiptPath *string
}

// Submit converts the amount into the company currency, then creates the
// expense and its approval chain in one transaction. Conversion failure
// degrades to the original amount. An empty chain auto-approves the expense:
// nobody is configured to gate it.
func (e *Engine) Submit(ctx context.Context, submitter *models.User, in SubmitInput) (*models.Expense, error) {
	converted := e.convert(ctx, submitter, in)

	expense := &models.Expense{
		EmployeeID:      submitter.ID,
		Amount:          in.Amount,
		Currency:        in.Currency,
		ConvertedAmount: converted,
		Category:        in.Category,
		Description:     in.Description,
		Date:            in.Date,
		ReceiptPath:     in.ReceiptPath,
		Status:          models.StatusPending,
	}

	err := e.db.WithTransaction(func(tx *sql.Tx) error {
		if err := e.expenses.Create(tx, expense); err != nil {
			return err
		}

		steps, templateID, err := e.materializer.Materialize(tx, expense, submitter)
		if err != nil {
			return err
		}
		expense.Steps = steps

		if templateID != nil {
			if err := e.expenses.SetFlowTemplate(tx, expense.ID, *templateID); err != nil {
				return err
			}
			expense.FlowTemplateID = templateID
		}

		if len(steps) == 0 {
			if err := e.expenses.UpdateStatus(tx, expense.ID, models.StatusApproved); err != nil {
				return err
			}
			expense.Status = models.StatusApproved
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Failed to submit expense", zap.Int64("employee_id", submitter.ID), zap.Error(err))
		return nil, err
	}

	e.logger.Info("Expense submitted",
		zap.Int64("expense_id", expense.ID),
		zap.Int64("employee_id", submitter.ID),
		zap.String("status", expense.Status),
		zap.Int("steps", len(expense.Steps)))
	return expense, nil
}

// convert returns the amount in the submitter's company currency, falling
// back to the unconverted amount when the rate provider is unavailable.
func (e *Engine) convert(ctx context.Context, submitter *models.User, in SubmitInput) float64 {
	company, err := e.companies.GetByID(submitter.CompanyID)
	if err != nil || company == nil {
		e.logger.Warn("Could not load company for conversion, using original amount",
			zap.Int64("company_id", submitter.CompanyID),
			zap.Error(err))
		return in.Amount
	}

	converted, err := e.converter.Convert(ctx, in.Amount, in.Currency, company.Currency)
	if err != nil {
		e.logger.Warn("Currency conversion unavailable, using original amount",
			zap.String("from", in.Currency),
			zap.String("to", company.Currency),
			zap.Error(err))
		return in.Amount
	}
	return converted
}

// Decide applies a reviewer's decision to their pending step on the expense.
// The step lookup and resolution run in one transaction, so a double-submit
// or a concurrent reject cascade cannot both succeed. Returns
// ErrNoPendingApproval when the actor holds no pending step, including on
// expenses already in a terminal status.
func (e *Engine) Decide(expenseID int64, actor *models.User, outcome, comments string) (*models.Expense, error) {
	var newStatus string
	switch outcome {
	case OutcomeApprove:
		newStatus = models.StatusApproved
	case OutcomeReject:
		newStatus = models.StatusRejected
	default:
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrInvalidStatus, outcome)
	}

	var expense *models.Expense
	now := time.Now()

	err := e.db.WithTransaction(func(tx *sql.Tx) error {
		var err error
		expense, err = e.expenses.GetByID(tx, expenseID)
		if err != nil {
			return err
		}
		if expense == nil {
			return fmt.Errorf("%w: expense %d", ErrNotFound, expenseID)
		}
		if expense.IsTerminal() {
			// Resolved expenses take no further decisions.
			return ErrNoPendingApproval
		}

		step, err := e.steps.GetPending(tx, expenseID, actor.ID)
		if err != nil {
			return err
		}
		if step == nil {
			return ErrNoPendingApproval
		}

		resolved, err := e.steps.Resolve(tx, step.ID, newStatus, comments, now)
		if err != nil {
			return err
		}
		if !resolved {
			return ErrNoPendingApproval
		}

		if outcome == OutcomeReject {
			// The chain is dead: set the terminal status first, then drop the
			// gates that will never be decided. Steps at or below this number
			// are left as the historical record.
			if err := e.expenses.UpdateStatus(tx, expenseID, models.StatusRejected); err != nil {
				return err
			}
			if err := e.steps.DeleteAfter(tx, expenseID, step.StepNumber); err != nil {
				return err
			}
			expense.Status = models.StatusRejected
		} else {
			pending, err := e.steps.CountPending(tx, expenseID)
			if err != nil {
				return err
			}
			if pending == 0 {
				if err := e.expenses.UpdateStatus(tx, expenseID, models.StatusApproved); err != nil {
					return err
				}
				expense.Status = models.StatusApproved
			}
		}

		expense.Steps, err = e.steps.ListByExpense(tx, expenseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Approval decision applied",
		zap.Int64("expense_id", expenseID),
		zap.Int64("approver_id", actor.ID),
		zap.String("outcome", outcome),
		zap.String("expense_status", expense.Status))
	return expense, nil
}

// Queue returns the distinct expenses currently waiting on the approver: all
// expenses holding at least one pending step assigned to them.
func (e *Engine) Queue(approver *models.User) ([]*models.Expense, error) {
	return e.expenses.ListPendingForApprover(approver.ID)
}

// Override sets the expense status directly, bypassing step evaluation.
// Depending on configuration the outstanding pending steps are either
// force-resolved with the same status or left untouched; in the latter case
// the step chain may disagree with the expense status afterwards.
func (e *Engine) Override(expenseID int64, newStatus string) (*models.Expense, error) {
	if newStatus != models.StatusApproved && newStatus != models.StatusRejected {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	var expense *models.Expense
	now := time.Now()

	err := e.db.WithTransaction(func(tx *sql.Tx) error {
		var err error
		expense, err = e.expenses.GetByID(tx, expenseID)
		if err != nil {
			return err
		}
		if expense == nil {
			return fmt.Errorf("%w: expense %d", ErrNotFound, expenseID)
		}

		if err := e.expenses.UpdateStatus(tx, expenseID, newStatus); err != nil {
			return err
		}
		expense.Status = newStatus

		if e.overrideResolvesSteps {
			if err := e.steps.ResolveAllPending(tx, expenseID, newStatus, "resolved by administrative override", now); err != nil {
				return err
			}
		}

		expense.Steps, err = e.steps.ListByExpense(tx, expenseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Expense status overridden",
		zap.Int64("expense_id", expenseID),
		zap.String("status", newStatus),
		zap.Bool("steps_resolved", e.overrideResolvesSteps))
	return expense, nil
}

// GetExpense loads an expense with its steps.
func (e *Engine) GetExpense(expenseID int64) (*models.Expense, error) {
	expense, err := e.expenses.GetByID(nil, expenseID)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, fmt.Errorf("%w: expense %d", ErrNotFound, expenseID)
	}
	expense.Steps, err = e.steps.ListByExpense(nil, expenseID)
	if err != nil {
		return nil, err
	}
	return expense, nil
}
