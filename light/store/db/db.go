package db

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"sync"

	dbm "github.com/tendermint/tm-db"

	"github.com/lightrelay/lightrelay/light/store"
	"github.com/lightrelay/lightrelay/types"
)

type dbs struct {
	db     dbm.DB
	prefix string

	mtx sync.RWMutex
}

// New returns a Store that wraps any DB (with an optional prefix in case you
// want to use one DB with many light clients).
//
// Summaries are stored in their canonical encoding.
func New(db dbm.DB, prefix string) store.Store {
	return &dbs{db: db, prefix: prefix}
}

// CheckpointList returns every listed sequence number in ascending order.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) CheckpointList() ([]uint64, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	itr, err := s.db.Iterator(s.clKey(0), s.clEnd())
	if err != nil {
		return nil, store.ErrStorage{Op: "list", Err: err}
	}
	defer itr.Close()

	var list []uint64
	for ; itr.Valid(); itr.Next() {
		if seq, ok := s.parseClKey(itr.Key()); ok {
			list = append(list, seq)
		}
	}
	if err := itr.Error(); err != nil {
		return nil, store.ErrStorage{Op: "list", Err: err}
	}
	return list, nil
}

// LastCheckpoint returns the last listed sequence number.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) LastCheckpoint() (uint64, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.last()
}

func (s *dbs) last() (uint64, error) {
	itr, err := s.db.ReverseIterator(s.clKey(0), s.clEnd())
	if err != nil {
		return 0, store.ErrStorage{Op: "last", Err: err}
	}
	defer itr.Close()

	for ; itr.Valid(); itr.Next() {
		if seq, ok := s.parseClKey(itr.Key()); ok {
			return seq, nil
		}
	}
	if err := itr.Error(); err != nil {
		return 0, store.ErrStorage{Op: "last", Err: err}
	}
	return 0, store.ErrEmptyList
}

// AppendCheckpoint persists seq at the end of the list.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) AppendCheckpoint(seq uint64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	last, err := s.last()
	switch {
	case err == store.ErrEmptyList:
	case err != nil:
		return err
	case seq <= last:
		return store.ErrStorage{
			Op:  "append",
			Err: fmt.Errorf("%w: %d after %d", store.ErrOutOfOrder, seq, last),
		}
	}

	if err := s.db.SetSync(s.clKey(seq), marshalSeq(seq)); err != nil {
		return store.ErrStorage{Op: "append", Err: err}
	}
	return nil
}

// Checkpoint loads the summary cached under seq.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) Checkpoint(seq uint64) (*types.CertifiedCheckpointSummary, error) {
	bz, err := s.db.Get(s.csKey(seq))
	if err != nil {
		return nil, store.ErrStorage{Op: "get", Err: err}
	}
	if len(bz) == 0 {
		return nil, store.ErrCheckpointNotFound
	}

	c, err := types.CertifiedCheckpointSummaryFromBytes(bz)
	if err != nil {
		return nil, store.ErrStorage{Op: "get", Err: err}
	}
	return c, nil
}

// SaveCheckpoint persists c under seq unless an identical summary is already
// there.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) SaveCheckpoint(seq uint64, c *types.CertifiedCheckpointSummary) error {
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

	existing, err := s.db.Get(s.csKey(seq))
	if err != nil {
		return store.ErrStorage{Op: "put", Err: err}
	}
	if len(existing) > 0 {
		if bytes.Equal(existing, bz) {
			return nil
		}
		return store.ErrStorage{Op: "put", Err: fmt.Errorf("%w: #%d", store.ErrConflict, seq)}
	}

	if err := s.db.SetSync(s.csKey(seq), bz); err != nil {
		return store.ErrStorage{Op: "put", Err: err}
	}
	return nil
}

// CheckpointBefore iterates over the list backwards from seq and returns
// the summary of the first entry found.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) CheckpointBefore(seq uint64) (*types.CertifiedCheckpointSummary, error) {
	s.mtx.RLock()
	itr, err := s.db.ReverseIterator(s.clKey(0), s.clKey(seq))
	if err != nil {
		s.mtx.RUnlock()
		return nil, store.ErrStorage{Op: "before", Err: err}
	}

	var (
		prev  uint64
		found bool
	)
	for ; itr.Valid(); itr.Next() {
		if prev, found = s.parseClKey(itr.Key()); found {
			break
		}
	}
	itr.Close()
	s.mtx.RUnlock()

	if !found {
		return nil, store.ErrCheckpointNotFound
	}
	return s.Checkpoint(prev)
}

// Close closes the underlying database.
func (s *dbs) Close() error {
	return s.db.Close()
}

func (s *dbs) clKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("cl/%s/%020d", s.prefix, seq))
}

func (s *dbs) clEnd() []byte {
	return append(s.clKey(math.MaxUint64), byte(0x00))
}

func (s *dbs) csKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("cs/%s/%020d", s.prefix, seq))
}

var keyPattern = regexp.MustCompile(`^(cl|cs)/([^/]*)/([0-9]+)$`)

func parseKey(key []byte) (part string, prefix string, seq uint64, ok bool) {
	submatch := keyPattern.FindSubmatch(key)
	if submatch == nil {
		return "", "", 0, false
	}
	part = string(submatch[1])
	prefix = string(submatch[2])
	seq, err := strconv.ParseUint(string(submatch[3]), 10, 64)
	if err != nil {
		return "", "", 0, false
	}
	ok = true // good!
	return
}

func (s *dbs) parseClKey(key []byte) (uint64, bool) {
	part, prefix, seq, ok := parseKey(key)
	if !ok || part != "cl" || prefix != s.prefix {
		return 0, false
	}
	return seq, true
}

func marshalSeq(seq uint64) []byte {
	bs := make([]byte, 8)
	binary.BigEndian.PutUint64(bs, seq)
	return bs
}
