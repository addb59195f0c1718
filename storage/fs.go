package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"tool_inventory/models"
)

// FS stores artifacts as flat files in Dir. A ref is the file's base name.
type FS struct {
	Dir string
}

func NewFS(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact dir %s: %w", dir, err)
	}
	return &FS{Dir: dir}, nil
}

func (s *FS) path(ref string) (string, error) {
	base := filepath.Base(strings.TrimSpace(ref))
	if base == "." || base == ".." || base == string(filepath.Separator) || base != strings.TrimSpace(ref) {
		return "", fmt.Errorf("%w: bad artifact ref %q", models.ErrInvalidInput, ref)
	}
	return filepath.Join(s.Dir, base), nil
}

// Put writes through a temp file and renames it into place, so readers never
// see a partial artifact.
func (s *FS) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst, err := s.path(name)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(s.Dir, ".put-*")
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: write %s: %w", models.ErrStorage, name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	return filepath.Base(dst), nil
}

func (s *FS) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	p, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("artifact %s: %w", ref, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	return f, nil
}

func (s *FS) Exists(_ context.Context, ref string) (bool, error) {
	p, err := s.path(ref)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
}

// Delete is a no-op for refs that are already gone.
func (s *FS) Delete(_ context.Context, ref string) error {
	p, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	return nil
}
