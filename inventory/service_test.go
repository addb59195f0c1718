package inventory

import (
	"context"
	"os"
	"testing"
	"time"

	"tool_inventory/cache"
	"tool_inventory/db"
	"tool_inventory/models"
	"tool_inventory/qr"
	"tool_inventory/storage"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	svc    *Service
	repo   *db.Repo
	codes  *storage.FS
	images *storage.FS
	issuer *qr.Issuer
	now    time.Time
	admin  context.Context
	worker context.Context
}

func (f *fixture) clock() time.Time         { return f.now }
func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &fixture{now: time.Date(2025, 6, 10, 9, 0, 0, 0, time.Local)}
	f.repo = db.NewRepo(gdb)
	f.repo.Clock = f.clock

	f.codes, err = storage.NewFS(t.TempDir())
	require.NoError(t, err)
	f.images, err = storage.NewFS(t.TempDir())
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	f.issuer = qr.NewIssuer(f.repo, f.codes, log)
	f.issuer.Clock = f.clock

	tools := cache.NewMemory[[]models.Tool](DefaultToolsCacheTTL)
	tools.Clock = f.clock
	stats := cache.NewMemory[models.Stats](DefaultStatsCacheTTL)
	stats.Clock = f.clock

	f.svc = New(f.repo, f.issuer, f.images, log, Options{
		ToolsCache: tools,
		StatsCache: stats,
		Clock:      f.clock,
	})
	f.admin = WithRole(context.Background(), RoleAdmin)
	f.worker = WithRole(context.Background(), RoleWorker)
	return f
}

func (f *fixture) createSerial(t *testing.T, name string, qty int) (*models.Tool, []models.ToolInstance) {
	t.Helper()
	tool, insts, err := f.svc.CreateTool(f.admin, models.ToolInput{Name: name, Responsible: "Warehouse A", Quantity: qty}, nil)
	require.NoError(t, err)
	return tool, insts
}

func listDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if e.Name()[0] != '.' {
			out = append(out, e)
		}
	}
	return out, nil
}
