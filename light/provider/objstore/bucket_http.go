package objstore

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type httpBucket struct {
	base   string
	client *http.Client
}

// NewHTTPBucket reads objects with plain GET requests below base.
func NewHTTPBucket(base string, timeout time.Duration) Bucket {
	return &httpBucket{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

func (b *httpBucket) Object(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.base+"/"+key, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrObjectNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("GET %s: %s", key, resp.Status)
	}
	return readObject(resp.Body, key)
}

func (b *httpBucket) String() string {
	return b.base
}
