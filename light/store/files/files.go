// Package files implements a Store on top of a plain directory: the
// checkpoint list lives in checkpoints.yaml and every cached summary in its
// own <seq>.sum file holding the canonical encoding.
package files

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"

	tmos "github.com/lightrelay/lightrelay/libs/os"
	"github.com/lightrelay/lightrelay/light/store"
	"github.com/lightrelay/lightrelay/types"
)

const (
	// ListFile is the name of the checkpoint list inside the store directory.
	ListFile = "checkpoints.yaml"

	summaryExt = ".sum"
	filePerm   = 0o644
)

type checkpointList struct {
	Checkpoints []uint64 `yaml:"checkpoints"`
}

type fileStore struct {
	dir string

	mtx  sync.RWMutex
	list []uint64
}

var _ store.Store = (*fileStore)(nil)

// New opens (creating it if needed) the store rooted at dir and loads the
// checkpoint list into memory.
func New(dir string) (store.Store, error) {
	if err := tmos.EnsureDir(dir, 0o700); err != nil {
		return nil, store.ErrStorage{Op: "open", Err: err}
	}
	s := &fileStore{dir: dir}
	list, err := s.readList()
	if err != nil {
		return nil, err
	}
	s.list = list
	return s, nil
}

func (s *fileStore) readList() ([]uint64, error) {
	bz, err := os.ReadFile(s.listPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, store.ErrStorage{Op: "open", Err: err}
	}

	var doc checkpointList
	if err := yaml.Unmarshal(bz, &doc); err != nil {
		return nil, store.ErrStorage{Op: "open", Err: fmt.Errorf("parse %s: %w", ListFile, err)}
	}
	for i := 1; i < len(doc.Checkpoints); i++ {
		if doc.Checkpoints[i] <= doc.Checkpoints[i-1] {
			return nil, store.ErrStorage{
				Op:  "open",
				Err: fmt.Errorf("%w: %s lists %d after %d", store.ErrOutOfOrder, ListFile, doc.Checkpoints[i], doc.Checkpoints[i-1]),
			}
		}
	}
	return doc.Checkpoints, nil
}

func (s *fileStore) CheckpointList() ([]uint64, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	list := make([]uint64, len(s.list))
	copy(list, s.list)
	return list, nil
}

func (s *fileStore) LastCheckpoint() (uint64, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if len(s.list) == 0 {
		return 0, store.ErrEmptyList
	}
	return s.list[len(s.list)-1], nil
}

// AppendCheckpoint rewrites the whole list file atomically, then updates the
// in-memory copy.
func (s *fileStore) AppendCheckpoint(seq uint64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if n := len(s.list); n > 0 && seq <= s.list[n-1] {
		return store.ErrStorage{
			Op:  "append",
			Err: fmt.Errorf("%w: %d after %d", store.ErrOutOfOrder, seq, s.list[n-1]),
		}
	}

	next := make([]uint64, len(s.list), len(s.list)+1)
	copy(next, s.list)
	next = append(next, seq)

	bz, err := yaml.Marshal(checkpointList{Checkpoints: next})
	if err != nil {
		return store.ErrStorage{Op: "append", Err: err}
	}
	if err := tmos.WriteFileAtomic(s.listPath(), bz, filePerm); err != nil {
		return store.ErrStorage{Op: "append", Err: err}
	}
	s.list = next
	return nil
}

func (s *fileStore) Checkpoint(seq uint64) (*types.CertifiedCheckpointSummary, error) {
	bz, err := os.ReadFile(s.summaryPath(seq))
	if errors.Is(err, os.ErrNotExist) {
		return nil, store.ErrCheckpointNotFound
	}
	if err != nil {
		return nil, store.ErrStorage{Op: "get", Err: err}
	}

	c, err := types.CertifiedCheckpointSummaryFromBytes(bz)
	if err != nil {
		return nil, store.ErrStorage{Op: "get", Err: fmt.Errorf("%s: %w", s.summaryPath(seq), err)}
	}
	return c, nil
}

func (s *fileStore) SaveCheckpoint(seq uint64, c *types.CertifiedCheckpointSummary) error {
	if c.SequenceNumber() != seq {
		return store.ErrStorage{
			Op:  "put",
			Err: fmt.Errorf("summary #%d saved under #%d", c.SequenceNumber(), seq),
		}
	}
	bz, err := c.Bytes()
	if err != nil {
		return store.ErrStorage{Op: "put", Err: err}
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, err := os.ReadFile(s.summaryPath(seq))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return store.ErrStorage{Op: "put", Err: err}
	case bytes.Equal(existing, bz):
		return nil
	default:
		return store.ErrStorage{Op: "put", Err: fmt.Errorf("%w: #%d", store.ErrConflict, seq)}
	}

	if err := tmos.WriteFileAtomic(s.summaryPath(seq), bz, filePerm); err != nil {
		return store.ErrStorage{Op: "put", Err: err}
	}
	return nil
}

func (s *fileStore) CheckpointBefore(seq uint64) (*types.CertifiedCheckpointSummary, error) {
	s.mtx.RLock()
	var (
		prev  uint64
		found bool
	)
	for i := len(s.list) - 1; i >= 0; i-- {
		if s.list[i] < seq {
			prev, found = s.list[i], true
			break
		}
	}
	s.mtx.RUnlock()

	if !found {
		return nil, store.ErrCheckpointNotFound
	}
	return s.Checkpoint(prev)
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) listPath() string {
	return filepath.Join(s.dir, ListFile)
}

func (s *fileStore) summaryPath(seq uint64) string {
	return filepath.Join(s.dir, strconv.FormatUint(seq, 10)+summaryExt)
}
