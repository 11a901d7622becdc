package approval

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pranay8282/Expense-Management/internal/models"
)

func TestTemplateStore_CreateValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		steps []models.FlowTemplateStep
	}{
		{
			name:  "zero step number",
			steps: []models.FlowTemplateStep{{StepNumber: 0, ApproverRole: models.FlowRoleAdmin}},
		},
		{
			name:  "negative step number",
			steps: []models.FlowTemplateStep{{StepNumber: -1, ApproverRole: models.FlowRoleAdmin}},
		},
		{
			name: "duplicate step number",
			steps: []models.FlowTemplateStep{
				{StepNumber: 1, ApproverRole: models.FlowRoleManager},
				{StepNumber: 1, ApproverRole: models.FlowRoleAdmin},
			},
		},
		{
			name:  "unknown role",
			steps: []models.FlowTemplateStep{{StepNumber: 1, ApproverRole: "CFO"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.store.Create(env.company.ID, "bad", tt.steps, false)
			assert.ErrorIs(t, err, ErrInvalidTemplate)
		})
	}
}

func TestTemplateStore_CreateAllowsEmptyAndGappedSteps(t *testing.T) {
	env := newTestEnv(t)

	empty, err := env.store.Create(env.company.ID, "empty", nil, false)
	require.NoError(t, err)
	assert.Empty(t, empty.Steps)

	gapped, err := env.store.Create(env.company.ID, "gapped", []models.FlowTemplateStep{
		{StepNumber: 3, ApproverRole: models.FlowRoleManager},
		{StepNumber: 7, ApproverRole: models.FlowRoleAdmin},
	}, false)
	require.NoError(t, err)
	assert.Len(t, gapped.Steps, 2)
}

func TestTemplateStore_CreateAsDefaultDemotesExisting(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.store.Create(env.company.ID, "first", nil, true)
	require.NoError(t, err)

	second, err := env.store.Create(env.company.ID, "second", nil, true)
	require.NoError(t, err)

	def, err := env.store.GetDefault(env.company.ID)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, second.ID, def.ID)

	templates, err := env.store.List(env.company.ID)
	require.NoError(t, err)
	defaults := 0
	for _, tmpl := range templates {
		if tmpl.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestTemplateStore_SetDefaultSwaps(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.store.Create(env.company.ID, "first", nil, true)
	require.NoError(t, err)
	second, err := env.store.Create(env.company.ID, "second", nil, false)
	require.NoError(t, err)

	promoted, err := env.store.SetDefault(env.company.ID, second.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsDefault)

	def, err := env.store.GetDefault(env.company.ID)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, second.ID, def.ID)

	reloaded, err := env.templates.GetByID(nil, first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)
}

func TestTemplateStore_SetDefaultWrongCompany(t *testing.T) {
	env := newTestEnv(t)

	other := &models.Company{Name: "Other", Country: "France", Currency: "EUR"}
	require.NoError(t, env.companies.Create(nil, other))

	template, err := env.store.Create(other.ID, "theirs", nil, false)
	require.NoError(t, err)

	_, err = env.store.SetDefault(env.company.ID, template.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.store.SetDefault(env.company.ID, 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTemplateStore_ConcurrentSetDefaultKeepsOneDefault(t *testing.T) {
	env := newTestEnv(t)

	var ids []int64
	for _, name := range []string{"a", "b", "c", "d"} {
		tmpl, err := env.store.Create(env.company.ID, name, nil, false)
		require.NoError(t, err)
		ids = append(ids, tmpl.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			// busy_timeout on the connection absorbs writer contention.
			_, err := env.store.SetDefault(env.company.ID, id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	templates, err := env.store.List(env.company.ID)
	require.NoError(t, err)
	defaults := 0
	for _, tmpl := range templates {
		if tmpl.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}
