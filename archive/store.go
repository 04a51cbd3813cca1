package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// RemoteStore mirrors raw report archives to durable storage. The mining
// pipeline uploads every verified archive and falls back to Fetch when the
// local copy is missing.
type RemoteStore interface {
	Fetch(ctx context.Context, name, dest string) error
	Upload(ctx context.Context, src, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}

// DirStore is a RemoteStore backed by a directory, e.g. a mounted sync
// folder. One subdirectory per report kind.
type DirStore struct {
	root string
}

func NewDirStore(root string) (*DirStore, error) {
	if root == "" {
		return nil, fmt.Errorf("archive mirror root not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive mirror root: %w", err)
	}
	return &DirStore{root: root}, nil
}

func (s *DirStore) path(name string) string {
	return filepath.Join(s.root, name)
}

func (s *DirStore) Fetch(ctx context.Context, name, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(s.path(name))
	if err != nil {
		return fmt.Errorf("archive %s not in mirror: %w", name, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", name, err)
	}
	return nil
}

func (s *DirStore) Upload(ctx context.Context, src, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	dest := s.path(name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return nil
}

func (s *DirStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
