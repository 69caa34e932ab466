package objstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type gcsBucket struct {
	name   string
	prefix string
	bucket *storage.BucketHandle
}

// NewGCSBucket reads objects from a Google Cloud Storage bucket using the
// ambient credentials. A non-empty endpoint disables authentication, which
// is what local emulators expect.
func NewGCSBucket(ctx context.Context, name, prefix, endpoint string) (Bucket, error) {
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &gcsBucket{
		name:   name,
		prefix: prefix,
		bucket: client.Bucket(name),
	}, nil
}

func (b *gcsBucket) Object(ctx context.Context, key string) ([]byte, error) {
	r, err := b.bucket.Object(joinKey(b.prefix, key)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readObject(r, key)
}

func (b *gcsBucket) String() string {
	return "gs://" + b.name + "/" + b.prefix
}
