package objstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightrelay/lightrelay/config"
	"github.com/lightrelay/lightrelay/light/provider"
	"github.com/lightrelay/lightrelay/types"
)

func makeBlob(t *testing.T, seq uint64) ([]byte, *types.CheckpointData) {
	t.Helper()
	c, keys := types.RandCommittee(1, 4, 10)
	data, err := types.MakeCheckpointData(1, seq, 2, nil, c, keys)
	require.NoError(t, err)
	blob, err := EncodeBlob(data)
	require.NoError(t, err)
	return blob, data
}

func testFetcher(b Bucket) *Fetcher {
	return New(b, RetryPolicy(provider.NewRetryPolicy(config.TestFetchConfig())))
}

func TestDecodeBlob(t *testing.T) {
	blob, data := makeBlob(t, 9)

	got, err := DecodeBlob(blob)
	require.NoError(t, err)
	assert.Equal(t, data.Checkpoint.Summary.Digest(), got.Checkpoint.Summary.Digest())
	assert.Equal(t, data.Contents.Digest(), got.Contents.Digest())
	assert.Len(t, got.Transactions, 2)

	var decErr provider.ErrDecode
	_, err = DecodeBlob(nil)
	assert.True(t, errors.As(err, &decErr))

	bad := append([]byte{0x02}, blob[1:]...)
	_, err = DecodeBlob(bad)
	assert.True(t, errors.As(err, &decErr))

	_, err = DecodeBlob(blob[:len(blob)/2])
	assert.True(t, errors.As(err, &decErr))
}

func TestFetcherRetriesTransientErrors(t *testing.T) {
	blob, data := makeBlob(t, 7)
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "/checkpoints/7.chk", r.URL.Path)
		_, _ = w.Write(blob)
	}))
	defer ts.Close()

	f := testFetcher(NewHTTPBucket(ts.URL+"/checkpoints", config.DefaultSourceConfig().RequestTimeout))
	s, err := f.Summary(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, data.Checkpoint.Summary.Digest(), s.Summary.Digest())
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetcherFailsFastOnNotFound(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	_, err := testFetcher(NewHTTPBucket(ts.URL, 0)).FullCheckpoint(context.Background(), 1)
	assert.True(t, errors.Is(err, provider.ErrCheckpointNotFound))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetcherDoesNotRetryBadVersion(t *testing.T) {
	blob, _ := makeBlob(t, 3)
	blob[0] = 0x7f
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write(blob)
	}))
	defer ts.Close()

	_, err := testFetcher(NewHTTPBucket(ts.URL, 0)).FullCheckpoint(context.Background(), 3)
	var decErr provider.ErrDecode
	assert.True(t, errors.As(err, &decErr))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetcherTimesOut(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := testFetcher(NewHTTPBucket(ts.URL, 0)).FullCheckpoint(context.Background(), 3)
	assert.True(t, errors.Is(err, provider.ErrFetchTimeout))
}

func TestFetcherRejectsOversizedObject(t *testing.T) {
	blob, _ := makeBlob(t, 6)
	defer func(n int64) { maxObjectSize = n }(maxObjectSize)
	maxObjectSize = int64(len(blob)) - 1

	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write(blob)
	}))
	defer ts.Close()

	_, err := testFetcher(NewHTTPBucket(ts.URL, 0)).FullCheckpoint(context.Background(), 6)
	var decErr provider.ErrDecode
	require.True(t, errors.As(err, &decErr))
	assert.Contains(t, err.Error(), "exceeds")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	// exactly at the limit is fine
	maxObjectSize = int64(len(blob))
	_, err = testFetcher(NewHTTPBucket(ts.URL, 0)).FullCheckpoint(context.Background(), 6)
	require.NoError(t, err)
}

func TestFetcherRejectsMislabelledObject(t *testing.T) {
	dir := t.TempDir()
	blob, _ := makeBlob(t, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ObjectKey(5)), blob, 0o644))

	_, err := testFetcher(NewFileBucket(dir)).FullCheckpoint(context.Background(), 5)
	var decErr provider.ErrDecode
	assert.True(t, errors.As(err, &decErr))
}

func TestFileBucket(t *testing.T) {
	dir := t.TempDir()
	blob, _ := makeBlob(t, 12)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ObjectKey(12)), blob, 0o644))

	b, err := NewBucket(context.Background(), "file://"+dir, 0)
	require.NoError(t, err)
	f := testFetcher(b)

	data, err := f.FullCheckpoint(context.Background(), 12)
	require.NoError(t, err)
	assert.EqualValues(t, 12, data.Checkpoint.SequenceNumber())

	_, err = f.FullCheckpoint(context.Background(), 13)
	assert.True(t, errors.Is(err, provider.ErrCheckpointNotFound))
}

func TestNewBucketSchemes(t *testing.T) {
	b, err := NewBucket(context.Background(), "https://checkpoints.example.com/mainnet/", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://checkpoints.example.com/mainnet", b.String())

	_, err = NewBucket(context.Background(), "ftp://example.com", 0)
	assert.Error(t, err)
}
