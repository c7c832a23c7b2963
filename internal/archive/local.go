package archive

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/moonwalk/moonwalk/internal/errors"
)

// Local is the filesystem archive, rooted at one directory. The
// default for single-host deployments and for tests.
type Local struct {
	root string
}

// NewLocal creates a filesystem archive rooted at root.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.NewArchiveError(errors.CodeUploadFailed, "create archive root", err)
	}
	return &Local{root: root}, nil
}

func (l *Local) keyPath(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

func (l *Local) Put(ctx context.Context, localPath, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest := l.keyPath(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.NewArchiveError(errors.CodeUploadFailed, "create archive directory", err)
	}
	if err := copyFile(localPath, dest); err != nil {
		return errors.NewArchiveError(errors.CodeUploadFailed, "archive "+key, err)
	}
	return nil
}

func (l *Local) Fetch(ctx context.Context, key, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src := l.keyPath(key)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return errors.NewArchiveError(errors.CodeObjectNotFound, "archive object "+key, err)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return errors.NewArchiveError(errors.CodeDownloadFailed, "create destination directory", err)
	}
	if err := copyFile(src, localPath); err != nil {
		return errors.NewArchiveError(errors.CodeDownloadFailed, "fetch "+key, err)
	}
	return nil
}

func (l *Local) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(l.keyPath(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.NewArchiveError(errors.CodeDownloadFailed, "stat "+key, err)
	}
	return true, nil
}

func (l *Local) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := filepath.Walk(l.keyPath(prefix), func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.NewArchiveError(errors.CodeDownloadFailed, "list "+prefix, err)
	}
	return keys, nil
}

func (l *Local) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(l.keyPath(key)); err != nil && !os.IsNotExist(err) {
		return errors.NewArchiveError(errors.CodeUploadFailed, "delete "+key, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
