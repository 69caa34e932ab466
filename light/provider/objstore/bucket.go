package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/lightrelay/lightrelay/light/provider"
)

// ErrObjectNotFound is returned by a Bucket when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// maxObjectSize bounds how much of an object is read.
var maxObjectSize int64 = 256 << 20

// Bucket is a read-only view of the object store checkpoints are published
// to.
type Bucket interface {
	// Object returns the contents stored under key.
	//
	// If the key does not exist, ErrObjectNotFound is returned.
	Object(ctx context.Context, key string) ([]byte, error)

	String() string
}

// NewBucket opens the bucket addressed by rawURL. Supported schemes are
// http, https, gs, s3 and file. The gs and s3 schemes take the bucket name as
// host and an optional key prefix as path; an "endpoint" query parameter
// points them at an emulator, and s3 also reads "region".
func NewBucket(ctx context.Context, rawURL string, timeout time.Duration) (Bucket, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse object store url: %w", err)
	}

	prefix := strings.Trim(u.Path, "/")
	switch u.Scheme {
	case "http", "https":
		return NewHTTPBucket(rawURL, timeout), nil
	case "gs":
		return NewGCSBucket(ctx, u.Host, prefix, u.Query().Get("endpoint"))
	case "s3":
		return NewS3Bucket(ctx, u.Host, prefix, u.Query().Get("region"), u.Query().Get("endpoint"))
	case "file":
		return NewFileBucket(u.Path), nil
	default:
		return nil, fmt.Errorf("unsupported object store scheme %q", u.Scheme)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

// readObject reads all of r. An object larger than maxObjectSize is
// rejected with provider.ErrDecode.
func readObject(r io.Reader, key string) ([]byte, error) {
	bz, err := io.ReadAll(io.LimitReader(r, maxObjectSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(bz)) > maxObjectSize {
		return nil, provider.ErrDecode{Reason: fmt.Errorf("object %s exceeds %d bytes", key, maxObjectSize)}
	}
	return bz, nil
}
