package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"papercast/internal/util"
)

// LocalStore mirrors blobs into a directory tree. It backs tests and
// development runs without cloud credentials.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) Upload(ctx context.Context, localPath, key string) error {
	_ = ctx
	return copyFile(localPath, filepath.Join(s.root, filepath.FromSlash(key)))
}

func (s *LocalStore) Download(ctx context.Context, key, localPath string) error {
	_ = ctx
	return copyFile(filepath.Join(s.root, filepath.FromSlash(key)), localPath)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	if err := util.EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
