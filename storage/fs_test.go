package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"tool_inventory/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFS(t.TempDir())
	require.NoError(t, err)

	ref, err := s.Put(ctx, "qr_a_1_b.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "qr_a_1_b.png", ref)

	ok, err := s.Exists(ctx, ref)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Open(ctx, ref)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(body))

	require.NoError(t, s.Delete(ctx, ref))
	require.NoError(t, s.Delete(ctx, ref))

	ok, err = s.Exists(ctx, ref)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Open(ctx, ref)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFSRejectsPaths(t *testing.T) {
	s, err := NewFS(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../escape.png", "a/b.png", "..", ""} {
		_, err := s.Put(context.Background(), name, strings.NewReader("x"))
		assert.ErrorIs(t, err, models.ErrInvalidInput, name)
	}
}
