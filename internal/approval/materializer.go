package approval

import (
	"database/sql"

	"github.com/Pranay8282/Expense-Management/internal/models"
	"github.com/Pranay8282/Expense-Management/internal/repository"
	"go.uber.org/zap"
)

// ChainSnapshot is a read-only view of the people who may gate a submitter's
// expense, taken at submission time. Resolution works off this snapshot
// rather than live lookups so it stays deterministic and testable.
type ChainSnapshot struct {
	// Manager is the submitter's direct manager, nil when they have none.
	Manager *models.User
	// FirstAdmin is the company's ADMIN with the lowest ID, nil when the
	// company has no admin.
	FirstAdmin *models.User
}

// PlannedStep is one resolved position of an approval chain before it is
// persisted.
type PlannedStep struct {
	ApproverID int64
	StepNumber int
}

// fallbackSteps is the implicit chain used when a company has no default
// template: manager first, then admin.
func fallbackSteps() []models.FlowTemplateStep {
	return []models.FlowTemplateStep{
		{StepNumber: 1, ApproverRole: models.FlowRoleManager},
		{StepNumber: 2, ApproverRole: models.FlowRoleAdmin},
	}
}

// ResolveChain turns abstract template steps into concrete approver-bound
// steps against a snapshot. Rules:
//   - MANAGER resolves to the snapshot manager only when that manager has the
//     approver capability flag; otherwise the position is skipped.
//   - ADMIN resolves to the snapshot's first admin, skipped when none exists.
//   - An approver already present in the chain is not added again, so one
//     person never gates the same expense twice.
//
// Skipped positions leave gaps in the step numbers; gaps are benign.
func ResolveChain(steps []models.FlowTemplateStep, snapshot ChainSnapshot) []PlannedStep {
	var planned []PlannedStep
	used := make(map[int64]bool)

	add := func(approver *models.User, number int) {
		if approver == nil || used[approver.ID] {
			return
		}
		used[approver.ID] = true
		planned = append(planned, PlannedStep{ApproverID: approver.ID, StepNumber: number})
	}

	for _, step := range steps {
		switch step.ApproverRole {
		case models.FlowRoleManager:
			if snapshot.Manager != nil && snapshot.Manager.IsManagerApprover {
				add(snapshot.Manager, step.StepNumber)
			}
		case models.FlowRoleAdmin:
			add(snapshot.FirstAdmin, step.StepNumber)
		}
	}
	return planned
}

// Materializer builds the concrete approval chain for a submitted expense.
type Materializer struct {
	users     *repository.UserRepository
	steps     *repository.StepRepository
	templates *repository.FlowTemplateRepository
	logger    *zap.Logger
}

// NewMaterializer creates a new materializer
func NewMaterializer(
	users *repository.UserRepository,
	steps *repository.StepRepository,
	templates *repository.FlowTemplateRepository,
	logger *zap.Logger,
) *Materializer {
	return &Materializer{
		users:     users,
		steps:     steps,
		templates: templates,
		logger:    logger,
	}
}

// Materialize creates the approval steps for the expense inside tx and
// returns them together with the ID of the template used (nil when the
// implicit fallback chain applied). A submitter with nobody configured to
// gate them gets an empty chain; the caller auto-approves in that case.
// Materialization never fails the submission on resolution grounds.
func (m *Materializer) Materialize(tx *sql.Tx, expense *models.Expense, submitter *models.User) ([]*models.ApprovalStep, *int64, error) {
	snapshot, err := m.snapshot(tx, submitter)
	if err != nil {
		return nil, nil, err
	}

	templateSteps := fallbackSteps()
	var templateID *int64

	template, err := m.templates.GetDefault(tx, submitter.CompanyID)
	if err != nil {
		return nil, nil, err
	}
	if template != nil {
		templateSteps = template.Steps
		templateID = &template.ID
	}

	planned := ResolveChain(templateSteps, snapshot)

	steps := make([]*models.ApprovalStep, 0, len(planned))
	for _, p := range planned {
		step := &models.ApprovalStep{
			ExpenseID:  expense.ID,
			ApproverID: p.ApproverID,
			StepNumber: p.StepNumber,
			Status:     models.StatusPending,
		}
		if err := m.steps.Create(tx, step); err != nil {
			return nil, nil, err
		}
		steps = append(steps, step)
	}

	m.logger.Info("Approval chain materialized",
		zap.Int64("expense_id", expense.ID),
		zap.Int64("employee_id", submitter.ID),
		zap.Bool("from_template", template != nil),
		zap.Int("steps", len(steps)))
	return steps, templateID, nil
}

func (m *Materializer) snapshot(tx *sql.Tx, submitter *models.User) (ChainSnapshot, error) {
	manager, err := m.users.GetManager(tx, submitter)
	if err != nil {
		return ChainSnapshot{}, err
	}
	admin, err := m.users.FirstAdmin(tx, submitter.CompanyID)
	if err != nil {
		return ChainSnapshot{}, err
	}
	return ChainSnapshot{Manager: manager, FirstAdmin: admin}, nil
}
