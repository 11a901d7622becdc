package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Pranay8282/Expense-Management/internal/models"
)

func approverIDs(planned []PlannedStep) []int64 {
	ids := make([]int64, 0, len(planned))
	for _, p := range planned {
		ids = append(ids, p.ApproverID)
	}
	return ids
}

func TestResolveChain(t *testing.T) {
	manager := &models.User{ID: 10, Role: models.RoleManager, IsManagerApprover: true}
	silentManager := &models.User{ID: 11, Role: models.RoleManager, IsManagerApprover: false}
	admin := &models.User{ID: 20, Role: models.RoleAdmin}

	managerThenAdmin := []models.FlowTemplateStep{
		{StepNumber: 1, ApproverRole: models.FlowRoleManager},
		{StepNumber: 2, ApproverRole: models.FlowRoleAdmin},
	}

	tests := []struct {
		name     string
		steps    []models.FlowTemplateStep
		snapshot ChainSnapshot
		want     []PlannedStep
	}{
		{
			name:     "manager then admin with both available",
			steps:    managerThenAdmin,
			snapshot: ChainSnapshot{Manager: manager, FirstAdmin: admin},
			want: []PlannedStep{
				{ApproverID: 10, StepNumber: 1},
				{ApproverID: 20, StepNumber: 2},
			},
		},
		{
			name:     "manager without approver flag is skipped",
			steps:    managerThenAdmin,
			snapshot: ChainSnapshot{Manager: silentManager, FirstAdmin: admin},
			want:     []PlannedStep{{ApproverID: 20, StepNumber: 2}},
		},
		{
			name:     "no manager at all leaves the gap",
			steps:    managerThenAdmin,
			snapshot: ChainSnapshot{FirstAdmin: admin},
			want:     []PlannedStep{{ApproverID: 20, StepNumber: 2}},
		},
		{
			name:     "missing admin is skipped",
			steps:    managerThenAdmin,
			snapshot: ChainSnapshot{Manager: manager},
			want:     []PlannedStep{{ApproverID: 10, StepNumber: 1}},
		},
		{
			name:     "nobody resolves to an empty chain",
			steps:    managerThenAdmin,
			snapshot: ChainSnapshot{Manager: silentManager},
			want:     nil,
		},
		{
			name: "same person is never added twice",
			steps: []models.FlowTemplateStep{
				{StepNumber: 1, ApproverRole: models.FlowRoleManager},
				{StepNumber: 2, ApproverRole: models.FlowRoleAdmin},
				{StepNumber: 3, ApproverRole: models.FlowRoleManager},
			},
			snapshot: ChainSnapshot{Manager: manager, FirstAdmin: admin},
			want: []PlannedStep{
				{ApproverID: 10, StepNumber: 1},
				{ApproverID: 20, StepNumber: 2},
			},
		},
		{
			name: "admin who is also the manager gates only once",
			steps: []models.FlowTemplateStep{
				{StepNumber: 1, ApproverRole: models.FlowRoleManager},
				{StepNumber: 2, ApproverRole: models.FlowRoleAdmin},
			},
			snapshot: ChainSnapshot{
				Manager:    &models.User{ID: 20, Role: models.RoleAdmin, IsManagerApprover: true},
				FirstAdmin: admin,
			},
			want: []PlannedStep{{ApproverID: 20, StepNumber: 1}},
		},
		{
			name:  "empty template yields empty chain",
			steps: nil,
			snapshot: ChainSnapshot{
				Manager:    manager,
				FirstAdmin: admin,
			},
			want: nil,
		},
		{
			name: "non-contiguous template numbers survive resolution",
			steps: []models.FlowTemplateStep{
				{StepNumber: 5, ApproverRole: models.FlowRoleAdmin},
				{StepNumber: 9, ApproverRole: models.FlowRoleManager},
			},
			snapshot: ChainSnapshot{Manager: manager, FirstAdmin: admin},
			want: []PlannedStep{
				{ApproverID: 20, StepNumber: 5},
				{ApproverID: 10, StepNumber: 9},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveChain(tt.steps, tt.snapshot)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFallbackSteps(t *testing.T) {
	steps := fallbackSteps()
	assert.Len(t, steps, 2)
	assert.Equal(t, models.FlowRoleManager, steps[0].ApproverRole)
	assert.Equal(t, models.FlowRoleAdmin, steps[1].ApproverRole)
	assert.Equal(t, []int64{10}, approverIDs(ResolveChain(steps, ChainSnapshot{
		Manager: &models.User{ID: 10, IsManagerApprover: true},
	})))
}
