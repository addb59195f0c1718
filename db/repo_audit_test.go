package db

import (
	"context"
	"testing"
	"time"

	"tool_inventory/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditAndReconcile(t *testing.T) {
	r, clock := newTestRepo(t)
	ctx := context.Background()
	tool, insts := serialTool(t, r, "Drill", 3)

	_, err := r.RegisterLoan(ctx, tool.ID, insts[0].ID, "alice")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = r.RegisterLoan(ctx, tool.ID, insts[1].ID, "bob")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = r.RegisterReturn(ctx, tool.ID, insts[1].ID, "bob", "")
	require.NoError(t, err)

	drifts, err := r.AuditInstanceStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	// corrupt the materialized column behind the ledger's back
	require.NoError(t, r.DB.Model(&models.ToolInstance{}).Where("id = ?", insts[0].ID).Update("status", models.StatusAvailable).Error)
	require.NoError(t, r.DB.Model(&models.ToolInstance{}).Where("id = ?", insts[2].ID).Update("status", models.StatusLoaned).Error)

	drifts, err = r.AuditInstanceStatus(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 2)
	assert.Equal(t, insts[0].ID, drifts[0].InstanceID)
	assert.Equal(t, models.StatusLoaned, drifts[0].Expected)
	assert.Equal(t, insts[2].ID, drifts[1].InstanceID)
	assert.Equal(t, models.StatusAvailable, drifts[1].Expected)

	fixed, err := r.ReconcileInstanceStatus(ctx)
	require.NoError(t, err)
	assert.Len(t, fixed, 2)

	drifts, err = r.AuditInstanceStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestExpectedStatus(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var zero time.Time
	cases := []struct {
		name             string
		stored           models.InstanceStatus
		loaned, returned time.Time
		want             models.InstanceStatus
	}{
		{"never loaned", models.StatusLoaned, zero, zero, models.StatusAvailable},
		{"loaned only", models.StatusAvailable, t0, zero, models.StatusLoaned},
		{"returned after", models.StatusLoaned, t0, t0.Add(time.Second), models.StatusAvailable},
		{"loaned again", models.StatusAvailable, t0.Add(time.Second), t0, models.StatusLoaned},
		{"same second keeps stored", models.StatusLoaned, t0, t0, models.StatusLoaned},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, expectedStatus(tc.stored, tc.loaned, tc.returned))
		})
	}
}
