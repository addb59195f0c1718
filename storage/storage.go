// Package storage keeps opaque binary artifacts (code images, tool photos).
package storage

import (
	"context"
	"io"
)

// Store puts bytes under a name and hands back an opaque reference.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Exists(ctx context.Context, ref string) (bool, error)
	Delete(ctx context.Context, ref string) error
}
