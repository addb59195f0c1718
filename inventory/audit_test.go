package inventory

import (
	"context"
	"testing"

	"tool_inventory/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileRepairsDrift(t *testing.T) {
	f := newFixture(t)
	tool, insts := f.createSerial(t, "Drill", 2)
	_, err := f.svc.Loan(f.worker, tool.ID, insts[0].ID, "alice")
	require.NoError(t, err)

	require.NoError(t, f.repo.DB.WithContext(context.Background()).
		Model(&models.ToolInstance{}).
		Where("id = ?", insts[0].ID).
		Update("status", models.StatusAvailable).Error)

	drifts, err := f.svc.Audit(f.admin)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, models.StatusAvailable, drifts[0].Stored)
	assert.Equal(t, models.StatusLoaned, drifts[0].Expected)

	fixed, err := f.svc.Reconcile(f.admin)
	require.NoError(t, err)
	assert.Len(t, fixed, 1)

	it, err := f.svc.GetInstance(f.worker, insts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLoaned, it.Status)

	drifts, err = f.svc.Audit(f.admin)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}
