// Package inventory is the façade over the tool store, the loan ledger and
// the code issuer. Every operation checks the caller's role on entry.
package inventory

import (
	"context"
	"io"
	"sync"
	"time"

	"tool_inventory/cache"
	"tool_inventory/models"
	"tool_inventory/qr"
	"tool_inventory/storage"

	"go.uber.org/zap"
)

// Store is the persistence the service runs on; *db.Repo implements it.
type Store interface {
	CreateTool(ctx context.Context, in models.ToolInput) (*models.Tool, []models.ToolInstance, error)
	UpdateTool(ctx context.Context, id uint, in models.ToolInput) (*models.ToolUpdate, error)
	DeleteTool(ctx context.Context, id uint) (*models.ToolDeletion, error)
	Consume(ctx context.Context, id uint, amount int) (*models.Tool, error)
	FindToolByID(ctx context.Context, id uint) (*models.Tool, error)
	ListTools(ctx context.Context) ([]models.Tool, error)
	FindInstanceByID(ctx context.Context, id uint) (*models.ToolInstance, error)
	ListInstances(ctx context.Context, toolID uint) ([]models.ToolInstance, error)
	CountInstances(ctx context.Context, toolID uint) (int64, error)
	FindInstanceByCode(ctx context.Context, toolUUID string, instanceID uint) (*models.Tool, *models.ToolInstance, error)

	RegisterLoan(ctx context.Context, toolID, instanceID uint, worker string) (*models.Loan, error)
	RegisterReturn(ctx context.Context, toolID, instanceID uint, worker, notes string) (*models.Return, error)
	OverdueLoans(ctx context.Context, threshold time.Duration) ([]models.OverdueLoan, error)
	LedgerStats(ctx context.Context) (*models.Stats, error)
	ListReturnHistory(ctx context.Context, limit int) ([]models.ReturnRecord, error)
	ListLoans(ctx context.Context, f models.LoanFilter) ([]models.Loan, error)

	AuditInstanceStatus(ctx context.Context) ([]models.StatusDrift, error)
	ReconcileInstanceStatus(ctx context.Context) ([]models.StatusDrift, error)
}

const (
	DefaultToolsCacheTTL    = 60 * time.Second
	DefaultStatsCacheTTL    = 60 * time.Second
	DefaultOverdueThreshold = 24 * time.Hour
)

type Options struct {
	ToolsCache       cache.Slot[[]models.Tool]
	StatsCache       cache.Slot[models.Stats]
	OverdueThreshold time.Duration
	Clock            func() time.Time
}

type Service struct {
	store  Store
	codes  *qr.Issuer
	images storage.Store
	log    *zap.Logger

	tools   cache.Slot[[]models.Tool]
	stats   cache.Slot[models.Stats]
	overdue time.Duration
	clock   func() time.Time

	// writers hold mu exclusively; cached reads hold it shared so a result
	// computed before a write can never be stored after its invalidation
	mu sync.RWMutex
}

func New(store Store, codes *qr.Issuer, images storage.Store, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:   store,
		codes:   codes,
		images:  images,
		log:     log,
		tools:   opts.ToolsCache,
		stats:   opts.StatsCache,
		overdue: opts.OverdueThreshold,
		clock:   opts.Clock,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.tools == nil {
		m := cache.NewMemory[[]models.Tool](DefaultToolsCacheTTL)
		m.Clock = s.clock
		s.tools = m
	}
	if s.stats == nil {
		m := cache.NewMemory[models.Stats](DefaultStatsCacheTTL)
		m.Clock = s.clock
		s.stats = m
	}
	if s.overdue <= 0 {
		s.overdue = DefaultOverdueThreshold
	}
	return s
}

// invalidate clears both report caches after a tool write.
func (s *Service) invalidate(ctx context.Context) {
	if err := s.tools.Invalidate(ctx); err != nil {
		s.log.Warn("invalidate tools cache", zap.Error(err))
	}
	if err := s.stats.Invalidate(ctx); err != nil {
		s.log.Warn("invalidate stats cache", zap.Error(err))
	}
}

// Image is an uploaded tool photo.
type Image struct {
	Name string
	Body io.Reader
}
