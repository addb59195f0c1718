package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"tool_inventory/models"
	"tool_inventory/qr"
	"tool_inventory/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// pausingStore parks the first ListTools call after its read until released.
type pausingStore struct {
	Store
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *pausingStore) ListTools(ctx context.Context) ([]models.Tool, error) {
	tools, err := p.Store.ListTools(ctx)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return tools, err
}

func TestListReadRacingCreateDoesNotCacheStaleList(t *testing.T) {
	f := newFixture(t)
	f.createSerial(t, "A", 1)

	ps := &pausingStore{Store: f.repo, read: make(chan struct{}), release: make(chan struct{})}
	svc := New(ps, f.issuer, f.images, zaptest.NewLogger(t), Options{Clock: f.clock})

	listed := make(chan []models.Tool, 1)
	go func() {
		tools, _ := svc.ListTools(f.worker, "")
		listed <- tools
	}()
	<-ps.read

	created := make(chan error, 1)
	go func() {
		_, _, err := svc.CreateTool(f.admin, models.ToolInput{Name: "B", Responsible: "Warehouse A", Quantity: 1}, nil)
		created <- err
	}()
	// let the create queue up behind the in-flight read
	time.Sleep(20 * time.Millisecond)
	close(ps.release)

	assert.Len(t, <-listed, 1)
	require.NoError(t, <-created)

	tools, err := svc.ListTools(f.worker, "")
	require.NoError(t, err)
	assert.Len(t, tools, 2)

	total, err := svc.TotalQuantity(f.worker)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

// flakyArtifacts fails the failOn-th Put.
type flakyArtifacts struct {
	storage.Store
	puts   int
	failOn int
}

func (s *flakyArtifacts) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	s.puts++
	if s.puts == s.failOn {
		return "", fmt.Errorf("%w: disk full", models.ErrStorage)
	}
	return s.Store.Put(ctx, name, r)
}

func TestFailedIssuanceLeavesSiblingsIntact(t *testing.T) {
	f := newFixture(t)
	log := zaptest.NewLogger(t)
	issuer := qr.NewIssuer(f.repo, &flakyArtifacts{Store: f.codes, failOn: 2}, log)
	svc := New(f.repo, issuer, f.images, log, Options{Clock: f.clock})

	tool, insts, err := svc.CreateTool(f.admin, models.ToolInput{Name: "Drill", Responsible: "Warehouse A", Quantity: 3}, nil)
	require.NoError(t, err)
	require.Len(t, insts, 3)

	listed, err := svc.ListInstances(f.worker, tool.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)

	var missing []uint
	for _, it := range listed {
		rec, err := f.repo.FindQRRecord(context.Background(), tool.ToolUUID, it.ID)
		if errors.Is(err, models.ErrNotFound) {
			missing = append(missing, it.ID)
			continue
		}
		require.NoError(t, err)
		ok, err := f.codes.Exists(context.Background(), *rec.ArtifactRef)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, []uint{insts[1].ID}, missing)

	// the missing code is issued on the next request
	rec, err := svc.IssueCode(f.worker, insts[1].ID)
	require.NoError(t, err)
	require.NotNil(t, rec.ArtifactRef)
	ok, err := f.codes.Exists(context.Background(), *rec.ArtifactRef)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListToolsFiltersByName(t *testing.T) {
	f := newFixture(t)
	f.createSerial(t, "Cordless Drill", 1)
	f.createSerial(t, "Drill bit set", 1)
	f.createSerial(t, "Saw", 1)

	cases := []struct {
		query string
		want  []string
	}{
		{"", []string{"Cordless Drill", "Drill bit set", "Saw"}},
		{"drill", []string{"Cordless Drill", "Drill bit set"}},
		{"  SAW ", []string{"Saw"}},
		{"hammer", nil},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			tools, err := f.svc.ListTools(f.worker, tc.query)
			require.NoError(t, err)
			var names []string
			for _, tl := range tools {
				names = append(names, tl.Name)
			}
			assert.Equal(t, tc.want, names)
		})
	}

	// filtering never trims the cached list
	all, err := f.svc.ListTools(f.worker, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
