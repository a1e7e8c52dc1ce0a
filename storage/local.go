package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps media on the local filesystem below dir. The files are
// expected to be served at baseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

var _ Store = &LocalStore{}

// NewLocalStore returns an instance of LocalStore.
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Put writes body to dir/key.
func (ls *LocalStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	path := filepath.Join(ls.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, body); err != nil {
		return "", err
	}
	return ls.baseURL + "/" + key, nil
}

// Delete removes dir/key. A missing file is not an error.
func (ls *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(ls.dir, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (ls *LocalStore) KeyOf(uri string) (string, bool) {
	return keyBelow(ls.baseURL, uri)
}
