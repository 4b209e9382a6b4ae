package uploadsvc

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/miradi/core"
)

type MemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

var _ core.FileStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string][]byte)}
}

func (store *MemoryStore) Save(ctx context.Context, path string, r io.Reader) (string, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "reading upload")
	}
	store.mu.Lock()
	store.files[path] = data
	store.mu.Unlock()
	return path, nil
}

func (store *MemoryStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	store.mu.RLock()
	data, ok := store.files[path]
	store.mu.RUnlock()
	if !ok {
		return nil, errors.New("file not found: " + path)
	}
	return ioutil.NopCloser(bytes.NewReader(data)), nil
}

func (store *MemoryStore) Delete(ctx context.Context, path string) error {
	store.mu.Lock()
	delete(store.files, path)
	store.mu.Unlock()
	return nil
}

// Len reports the number of stored files.
func (store *MemoryStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.files)
}
