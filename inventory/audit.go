package inventory

import (
	"context"

	"tool_inventory/models"

	"go.uber.org/zap"
)

// Audit reports instances whose stored status disagrees with the ledger.
func (s *Service) Audit(ctx context.Context) ([]models.StatusDrift, error) {
	if err := authorize(ctx, OpAudit); err != nil {
		return nil, err
	}
	return s.store.AuditInstanceStatus(ctx)
}

// Reconcile rewrites drifted statuses from the ledger.
func (s *Service) Reconcile(ctx context.Context) ([]models.StatusDrift, error) {
	if err := authorize(ctx, OpReconcile); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fixed, err := s.store.ReconcileInstanceStatus(ctx)
	if err != nil {
		return nil, err
	}
	if len(fixed) > 0 {
		s.log.Warn("instance status reconciled", zap.Int("fixed", len(fixed)))
		if err := s.stats.Invalidate(ctx); err != nil {
			s.log.Warn("invalidate stats cache", zap.Error(err))
		}
	}
	return fixed, nil
}
