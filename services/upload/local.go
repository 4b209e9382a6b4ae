// Package uploadsvc stores uploaded files. The local store writes under
// Conf.UploadDir; the memory store backs tests.
package uploadsvc

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/miradi/core"
)

type localStore struct {
	root string
}

var _ core.FileStore = (*localStore)(nil)

func NewLocalStore() *localStore {
	root := core.Conf.UploadDir
	if !filepath.IsAbs(root) {
		root = filepath.Join(core.Conf.WorkDir, root)
	}
	return &localStore{root: root}
}

func (store *localStore) Save(ctx context.Context, path string, r io.Reader) (string, error) {
	fp := filepath.Join(store.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload dir")
	}
	f, err := os.Create(fp)
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	defer f.Close()

	if _, err = io.Copy(f, r); err != nil {
		return "", errors.Wrap(err, "writing upload file")
	}
	return path, nil
}

func (store *localStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(store.root, filepath.FromSlash(path)))
	if err != nil {
		return nil, errors.Wrap(err, "opening upload file")
	}
	return f, nil
}

func (store *localStore) Delete(ctx context.Context, path string) error {
	if err := os.Remove(filepath.Join(store.root, filepath.FromSlash(path))); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting upload file")
	}
	return nil
}
