package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tool_inventory/cache"
	"tool_inventory/models"

	"go.uber.org/zap"
)

// Loan hands an available instance to worker. The availability check and
// the ledger write run under the service lock, so two callers cannot both
// loan the same instance.
func (s *Service) Loan(ctx context.Context, toolID, instanceID uint, worker string) (*models.Loan, error) {
	if err := authorize(ctx, OpLoan); err != nil {
		return nil, err
	}
	if strings.TrimSpace(worker) == "" {
		return nil, models.ErrInvalidWorker
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	it, err := s.instanceOf(ctx, toolID, instanceID)
	if err != nil {
		return nil, err
	}
	if it.Status != models.StatusAvailable {
		return nil, fmt.Errorf("%w: %s is %s", models.ErrInstanceUnavailable, it.Serial, it.Status)
	}
	l, err := s.store.RegisterLoan(ctx, toolID, instanceID, worker)
	if err != nil {
		return nil, err
	}
	s.log.Info("loan registered",
		zap.Uint("instance_id", instanceID),
		zap.String("serial", it.Serial),
		zap.String("worker", l.Worker),
	)
	return l, nil
}

// Return takes back a loaned instance.
func (s *Service) Return(ctx context.Context, toolID, instanceID uint, worker, notes string) (*models.Return, error) {
	if err := authorize(ctx, OpReturn); err != nil {
		return nil, err
	}
	if strings.TrimSpace(worker) == "" {
		return nil, models.ErrInvalidWorker
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	it, err := s.instanceOf(ctx, toolID, instanceID)
	if err != nil {
		return nil, err
	}
	if it.Status != models.StatusLoaned {
		return nil, fmt.Errorf("%w: %s is %s", models.ErrInstanceNotLoaned, it.Serial, it.Status)
	}
	r, err := s.store.RegisterReturn(ctx, toolID, instanceID, worker, notes)
	if err != nil {
		return nil, err
	}
	s.log.Info("return registered",
		zap.Uint("instance_id", instanceID),
		zap.String("serial", it.Serial),
		zap.String("worker", r.Worker),
	)
	return r, nil
}

func (s *Service) instanceOf(ctx context.Context, toolID, instanceID uint) (*models.ToolInstance, error) {
	it, err := s.store.FindInstanceByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if it.ToolID != toolID {
		return nil, fmt.Errorf("instance %d of tool %d: %w", instanceID, toolID, models.ErrNotFound)
	}
	return it, nil
}

// Overdue lists loans older than threshold; zero means the configured default.
func (s *Service) Overdue(ctx context.Context, threshold time.Duration) ([]models.OverdueLoan, error) {
	if err := authorize(ctx, OpOverdue); err != nil {
		return nil, err
	}
	if threshold < 0 {
		return nil, fmt.Errorf("%w: negative threshold", models.ErrInvalidInput)
	}
	if threshold == 0 {
		threshold = s.overdue
	}
	return s.store.OverdueLoans(ctx, threshold)
}

// Stats serves ledger aggregates from the stats slot. Loans and returns do
// not clear it, so figures may lag by up to the slot TTL.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	if err := authorize(ctx, OpStats); err != nil {
		return models.Stats{}, err
	}
	s.mu.RLock()
	e, err := cache.Load(ctx, s.stats, s.clock, s.log, func(ctx context.Context) (models.Stats, error) {
		st, err := s.store.LedgerStats(ctx)
		if err != nil {
			return models.Stats{}, err
		}
		return *st, nil
	})
	s.mu.RUnlock()
	if err != nil {
		return models.Stats{}, err
	}
	st := e.Value
	st.ComputedAt = e.ComputedAt
	return st, nil
}

func (s *Service) ReturnHistory(ctx context.Context, limit int) ([]models.ReturnRecord, error) {
	if err := authorize(ctx, OpHistory); err != nil {
		return nil, err
	}
	return s.store.ListReturnHistory(ctx, limit)
}

func (s *Service) Loans(ctx context.Context, f models.LoanFilter) ([]models.Loan, error) {
	if err := authorize(ctx, OpListLoans); err != nil {
		return nil, err
	}
	return s.store.ListLoans(ctx, f)
}
