package inventory

import (
	"context"
	"testing"

	"tool_inventory/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryOperationHasAnEntry(t *testing.T) {
	ops := []Operation{
		OpListTools, OpGetTool, OpCreateTool, OpUpdateTool, OpDeleteTool, OpConsume, OpTotalQuantity,
		OpListInstances, OpGetInstance, OpLoan, OpReturn, OpListLoans, OpHistory, OpOverdue, OpStats,
		OpIssueCode, OpReissueCode, OpResolveCode, OpExport, OpAudit, OpReconcile,
	}
	for _, op := range ops {
		assert.True(t, Allowed(RoleAdmin, op), "admin may %s", op)
	}
	assert.Len(t, capabilities, len(ops))
	assert.False(t, Allowed(RoleAdmin, Operation("unknown")))
}

func TestWorkerCapabilities(t *testing.T) {
	for _, op := range []Operation{OpCreateTool, OpUpdateTool, OpDeleteTool, OpConsume, OpReissueCode, OpExport, OpAudit, OpReconcile} {
		assert.False(t, Allowed(RoleWorker, op), "worker may not %s", op)
	}
	for _, op := range []Operation{OpListTools, OpLoan, OpReturn, OpOverdue, OpStats, OpIssueCode, OpResolveCode} {
		assert.True(t, Allowed(RoleWorker, op), "worker may %s", op)
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("root")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestServiceGatesOnEntry(t *testing.T) {
	f := newFixture(t)
	in := models.ToolInput{Name: "Drill", Responsible: "A", Quantity: 1}

	_, _, err := f.svc.CreateTool(context.Background(), in, nil)
	assert.ErrorIs(t, err, models.ErrForbidden, "no role")

	_, _, err = f.svc.CreateTool(f.worker, in, nil)
	assert.ErrorIs(t, err, models.ErrForbidden)

	tool, insts := f.createSerial(t, "Drill", 1)
	_, err = f.svc.Consume(f.worker, tool.ID, 1)
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteTool(f.worker, tool.ID), models.ErrForbidden)
	_, err = f.svc.Audit(f.worker)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.svc.Loan(f.worker, tool.ID, insts[0].ID, "alice")
	assert.NoError(t, err)
}
