package qr

import (
	"context"
	"sync"
	"testing"
	"time"

	"tool_inventory/models"
	"tool_inventory/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memRecords struct {
	mu     sync.Mutex
	nextID uint
	recs   map[uint]models.QRRecord
}

func newMemRecords() *memRecords { return &memRecords{recs: map[uint]models.QRRecord{}} }

func (m *memRecords) FindQRRecord(_ context.Context, toolUUID string, instanceID uint) (*models.QRRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[instanceID]
	if !ok || rec.ToolUUID != toolUUID {
		return nil, models.ErrNotFound
	}
	return &rec, nil
}

func (m *memRecords) SaveQRRecord(_ context.Context, rec *models.QRRecord) (*models.QRRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var prev *models.QRRecord
	if old, ok := m.recs[rec.InstanceID]; ok {
		prev = &old
	}
	m.nextID++
	rec.ID = m.nextID
	m.recs[rec.InstanceID] = *rec
	return prev, nil
}

func (m *memRecords) SetQRArtifact(_ context.Context, id uint, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, rec := range m.recs {
		if rec.ID == id {
			rec.ArtifactRef = &ref
			m.recs[k] = rec
			return nil
		}
	}
	return models.ErrNotFound
}

func newTestIssuer(t *testing.T) (*Issuer, *storage.FS) {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	return NewIssuer(newMemRecords(), fs, zaptest.NewLogger(t)), fs
}

func TestIssueIsIdempotent(t *testing.T) {
	ctx := context.Background()
	iss, _ := newTestIssuer(t)
	s := Subject{ToolUUID: "u-1", InstanceID: 3, Name: "Drill"}

	first, err := iss.Issue(ctx, s)
	require.NoError(t, err)
	require.NotNil(t, first.ArtifactRef)

	second, err := iss.Issue(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, *first.ArtifactRef, *second.ArtifactRef)
	assert.Equal(t, first.Token, second.Token)
}

func TestReissueRotatesTokenAndDropsOldArtifact(t *testing.T) {
	ctx := context.Background()
	iss, fs := newTestIssuer(t)
	s := Subject{ToolUUID: "u-1", InstanceID: 3, Name: "Drill"}

	first, err := iss.Issue(ctx, s)
	require.NoError(t, err)
	second, err := iss.Reissue(ctx, s)
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
	assert.NotEqual(t, *first.ArtifactRef, *second.ArtifactRef)

	ok, err := fs.Exists(ctx, *first.ArtifactRef)
	require.NoError(t, err)
	assert.False(t, ok)

	rc, err := iss.Open(ctx, second)
	require.NoError(t, err)
	defer rc.Close()
	text, err := DecodeImage(rc)
	require.NoError(t, err)
	p, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, second.Token, p.IssuanceID)
}

func TestIssueRestoresMissingArtifactWithSameToken(t *testing.T) {
	ctx := context.Background()
	iss, fs := newTestIssuer(t)
	iss.Clock = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	s := Subject{ToolUUID: "u-2", InstanceID: 9, Name: "Saw"}

	first, err := iss.Issue(ctx, s)
	require.NoError(t, err)
	require.NoError(t, fs.Delete(ctx, *first.ArtifactRef))

	again, err := iss.Issue(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, first.Token, again.Token)

	rc, err := fs.Open(ctx, *again.ArtifactRef)
	require.NoError(t, err)
	defer rc.Close()
	text, err := DecodeImage(rc)
	require.NoError(t, err)
	p, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, first.Token, p.IssuanceID)
	assert.Equal(t, first.IssuedAt.Local().Format(DateLayout), p.Date)
}

func TestOpenWithoutArtifact(t *testing.T) {
	iss, _ := newTestIssuer(t)
	_, err := iss.Open(context.Background(), &models.QRRecord{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}
