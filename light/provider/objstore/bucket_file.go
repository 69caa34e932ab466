package objstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

type fileBucket struct {
	dir string
}

// NewFileBucket reads objects from files below dir. Handy for tests and for
// serving a mirrored bucket.
func NewFileBucket(dir string) Bucket {
	return &fileBucket{dir: dir}
}

func (b *fileBucket) Object(_ context.Context, key string) ([]byte, error) {
	f, err := os.Open(filepath.Join(b.dir, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readObject(f, key)
}

func (b *fileBucket) String() string {
	return "file://" + b.dir
}
