package inventory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"tool_inventory/models"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleWorker Role = "worker"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleWorker:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", models.ErrInvalidInput, s)
	}
}

type Operation string

const (
	OpListTools     Operation = "tools.list"
	OpGetTool       Operation = "tools.get"
	OpCreateTool    Operation = "tools.create"
	OpUpdateTool    Operation = "tools.update"
	OpDeleteTool    Operation = "tools.delete"
	OpConsume       Operation = "tools.consume"
	OpTotalQuantity Operation = "tools.total"
	OpListInstances Operation = "instances.list"
	OpGetInstance   Operation = "instances.get"
	OpLoan          Operation = "ledger.loan"
	OpReturn        Operation = "ledger.return"
	OpListLoans     Operation = "ledger.loans"
	OpHistory       Operation = "ledger.history"
	OpOverdue       Operation = "ledger.overdue"
	OpStats         Operation = "ledger.stats"
	OpIssueCode     Operation = "codes.issue"
	OpReissueCode   Operation = "codes.reissue"
	OpResolveCode   Operation = "codes.resolve"
	OpExport        Operation = "export"
	OpAudit         Operation = "audit"
	OpReconcile     Operation = "audit.reconcile"
)

var (
	adminOnly = []Role{RoleAdmin}
	everyone  = []Role{RoleAdmin, RoleWorker}
)

// capabilities is the single source of truth for who may call what.
var capabilities = map[Operation][]Role{
	OpListTools:     everyone,
	OpGetTool:       everyone,
	OpCreateTool:    adminOnly,
	OpUpdateTool:    adminOnly,
	OpDeleteTool:    adminOnly,
	OpConsume:       adminOnly,
	OpTotalQuantity: everyone,
	OpListInstances: everyone,
	OpGetInstance:   everyone,
	OpLoan:          everyone,
	OpReturn:        everyone,
	OpListLoans:     everyone,
	OpHistory:       everyone,
	OpOverdue:       everyone,
	OpStats:         everyone,
	OpIssueCode:     everyone,
	OpReissueCode:   adminOnly,
	OpResolveCode:   everyone,
	OpExport:        adminOnly,
	OpAudit:         adminOnly,
	OpReconcile:     adminOnly,
}

// Allowed reports whether role may perform op. Unknown operations are denied.
func Allowed(role Role, op Operation) bool {
	return slices.Contains(capabilities[op], role)
}

type roleKey struct{}

func WithRole(ctx context.Context, r Role) context.Context {
	return context.WithValue(ctx, roleKey{}, r)
}

func RoleFrom(ctx context.Context) (Role, bool) {
	r, ok := ctx.Value(roleKey{}).(Role)
	return r, ok
}

func authorize(ctx context.Context, op Operation) error {
	r, ok := RoleFrom(ctx)
	if !ok {
		return fmt.Errorf("%w: no role for %s", models.ErrForbidden, op)
	}
	if !Allowed(r, op) {
		return fmt.Errorf("%w: %s may not %s", models.ErrForbidden, r, op)
	}
	return nil
}
